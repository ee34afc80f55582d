// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/bhashasutra/internal/auth"
	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/middleware"
	"github.com/tomtom215/bhashasutra/internal/websocket"
)

// Websocket endpoint names, used as metrics labels.
const (
	EndpointRAG        = "rag"
	EndpointBhashaGyan = "bhashagyan"
)

// Deps are the collaborators the router mounts.
type Deps struct {
	Handler    *Handler
	Auth       *auth.Middleware // nil disables the guard
	Hub        *websocket.Hub
	RAGWS      websocket.Handler
	BhashaGyan websocket.Handler
}

// Router wires handlers and middleware into a chi mux.
type Router struct {
	cfg           *config.Config
	deps          Deps
	chiMiddleware *ChiMiddleware
}

// NewRouter creates the router and its limiters.
func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		cfg:           cfg,
		deps:          deps,
		chiMiddleware: NewChiMiddleware(&cfg.Security),
	}
}

// Cleaners exposes limiter state for periodic cleanup.
func (router *Router) Cleaners() []middleware.Cleaner {
	return router.chiMiddleware.Cleaners()
}

// Setup builds the HTTP handler.
//
// Middleware order: client IP from trusted proxies, request ID, panic
// recovery, metrics, CORS (global so OPTIONS preflights are answered), then
// the hourly rate limit and the per-minute throttle. A request rejected by the rate limit never occupies
// a throttle slot. Websocket upgrades pass through the limiters once.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.TrustedRealIP(router.cfg.Security.TrustedProxies))
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.chiMiddleware.CORS())
	r.Use(router.chiMiddleware.RateLimit())
	r.Use(router.chiMiddleware.Throttle())

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	h := router.deps.Handler
	guard := router.authenticate()

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/rag", func(r chi.Router) {
		r.With(guard).Post("/upload", h.Upload)
		r.Post("/query", h.Query)
		r.Get("/documents", h.ListDocuments)
		r.With(guard).Delete("/documents", h.DeleteDocuments)
		r.With(guard).Delete("/memory", h.ClearMemory)
		if router.deps.RAGWS != nil {
			r.With(router.chiMiddleware.WebSocketConnect()).
				Get("/ws", router.websocketEndpoint(EndpointRAG, router.deps.RAGWS).ServeHTTP)
		}
	})

	if router.deps.BhashaGyan != nil {
		r.With(router.chiMiddleware.WebSocketConnect()).
			Get("/ws/bhashagyan", router.websocketEndpoint(EndpointBhashaGyan, router.deps.BhashaGyan).ServeHTTP)
	}

	return r
}

func (router *Router) authenticate() func(http.Handler) http.Handler {
	if router.deps.Auth == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return router.deps.Auth.Authenticate
}

func (router *Router) websocketEndpoint(name string, h websocket.Handler) *websocket.Endpoint {
	return &websocket.Endpoint{
		Name:     name,
		Hub:      router.deps.Hub,
		Handler:  h,
		Upgrader: websocket.NewUpgrader(router.cfg.Security.CORSOrigins),
	}
}
