// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/metrics"
)

// NewClient creates a Gemini API client. baseURL may be empty.
func NewClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	guard       *Guard
}

// NewGemini builds the generation client. Without an API key it returns an
// unconfigured client whose Generate fails with ErrNotConfigured, so the
// rest of the API keeps serving.
func NewGemini(ctx context.Context, cfg *config.LLMConfig) (*Gemini, error) {
	g := &Gemini{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		guard: NewGuard(GuardConfig{
			Name:              "gemini-generate",
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
			FailureThreshold:  cfg.BreakerFailureThreshold,
			OpenTimeout:       cfg.BreakerTimeout,
		}),
	}

	if cfg.APIKey == "" {
		logging.Warn().Msg("GEMINI_API_KEY not set; generation requests will fail until configured")
		return g, nil
	}

	client, err := NewClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	g.client = client

	logging.Info().Str("model", cfg.Model).Float32("temperature", cfg.Temperature).Msg("Gemini client initialized")
	return g, nil
}

// Configured reports whether an API key was supplied.
func (g *Gemini) Configured() bool {
	return g.client != nil
}

// Model returns the model name.
func (g *Gemini) Model() string {
	return g.model
}

// Guard exposes the breaker for health reporting.
func (g *Gemini) Guard() *Guard {
	return g.guard
}

// Generate sends the system instruction, the history and the prompt, and
// returns the model's text.
func (g *Gemini) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	start := time.Now()

	if g.client == nil {
		metrics.RecordLLMRequest(g.model, "not_configured", time.Since(start))
		return "", ErrNotConfigured
	}

	answer, err := Execute(ctx, g.guard, func(ctx context.Context) (string, error) {
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		resp, err := g.client.Models.GenerateContent(ctx, g.model, buildContents(req), g.generateConfig(req))
		if err != nil {
			return "", fmt.Errorf("gemini generate: %w", err)
		}
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	})

	result := "success"
	switch {
	case errors.Is(err, ErrUnavailable):
		result = "rejected"
	case err != nil:
		result = "error"
	}
	metrics.RecordLLMRequest(g.model, result, time.Since(start))

	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("model", g.model).Msg("Generation failed")
		return "", err
	}
	return answer, nil
}

func (g *Gemini) generateConfig(req GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](g.temperature),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	return cfg
}

// buildContents maps history and prompt to Gemini turns. Empty history
// entries are skipped.
func buildContents(req GenerateRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		if m.Content == "" {
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, toGenAIRole(m.Role)))
	}
	return append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))
}

func toGenAIRole(role string) genai.Role {
	switch role {
	case RoleModel, RoleAI:
		return genai.RoleModel
	default:
		return genai.RoleUser
	}
}
