// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/bhashasutra/internal/api"
	"github.com/tomtom215/bhashasutra/internal/auth"
	"github.com/tomtom215/bhashasutra/internal/chat"
	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/database"
	"github.com/tomtom215/bhashasutra/internal/llm"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/middleware"
	"github.com/tomtom215/bhashasutra/internal/rag"
	"github.com/tomtom215/bhashasutra/internal/supervisor"
	"github.com/tomtom215/bhashasutra/internal/supervisor/services"
	ws "github.com/tomtom215/bhashasutra/internal/websocket"
)

const eventRouterStartTimeout = 10 * time.Second

//nolint:gocyclo // sequential startup
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("version", cfg.Server.Version).
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("embedding_provider", cfg.Embedding.Provider).
		Msg("Starting Bhashasutra with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	generator, err := llm.NewGemini(ctx, &cfg.LLM)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize Gemini client")
	}

	embedder, err := rag.NewEmbedder(ctx, &cfg.Embedding, &cfg.LLM)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize embedder")
	}
	logging.Info().Str("embedder", embedder.Name()).Int("dimensions", embedder.Dimensions()).Msg("Embedder ready")

	eventComponents, err := InitEvents(&cfg.Events, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize events")
	}
	defer eventComponents.Shutdown()

	ragService, err := rag.NewService(&cfg.RAG, &cfg.Embedding, rag.Deps{
		Embedder:  embedder,
		Generator: generator,
		Documents: db,
		Notifier:  eventComponents.Bus,
		Memory:    llm.NewMemory(0),
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize RAG service")
	}
	defer func() {
		if err := ragService.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing embedding cache")
		}
	}()

	if cfg.RAG.RestoreOnStartup {
		n, err := ragService.Restore(ctx)
		if err != nil {
			// An empty store still serves uploads.
			logging.Warn().Err(err).Msg("Failed to restore vector store")
		} else {
			logging.Info().Int("chunks", n).Msg("Vector store restored from database")
		}
	}

	authMiddleware := initAuth(cfg)

	hub := ws.NewHub()
	router := api.NewRouter(cfg, api.Deps{
		Handler:    api.NewHandler(cfg, ragService, db),
		Auth:       authMiddleware,
		Hub:        hub,
		RAGWS:      rag.NewWSHandler(ragService),
		BhashaGyan: chat.NewService(&cfg.Chat, generator),
	})

	cleaners := router.Cleaners()
	if c, ok := embedder.(middleware.Cleaner); ok {
		cleaners = append(cleaners, c)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Generation and websocket sessions outlive the request timeout.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	if err := eventComponents.Start(ctx, tree, eventRouterStartTimeout); err != nil {
		logging.Error().Err(err).Msg("Event router failed to start")
		cancel()
	}
	tree.AddDataService(middleware.NewJanitor(time.Minute, cleaners...))
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	logging.Info().Msg("Application stopped gracefully")
}

// initAuth returns the JWT guard, or nil when auth_mode is none.
func initAuth(cfg *config.Config) *auth.Middleware {
	if cfg.Security.AuthMode != "jwt" {
		logging.Warn().Msg("Authentication is disabled (AUTH_MODE=none); upload and delete routes are public")
		if cfg.ShouldWarnAboutCORS() {
			logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*)")
		}
		return nil
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	logging.Info().Msg("JWT authentication enabled for upload and delete routes")
	return auth.NewMiddleware(jwtManager, cfg.Security.AuthMode)
}
