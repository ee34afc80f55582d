// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package llm

import (
	"context"
	"errors"
)

// Conversation roles. RoleAI is accepted as an alias of RoleModel.
const (
	RoleUser  = "user"
	RoleModel = "model"
	RoleAI    = "ai"
)

var (
	// ErrNotConfigured is returned at call time when no API key is set.
	ErrNotConfigured = errors.New("llm: GEMINI_API_KEY is not configured")

	// ErrUnavailable wraps circuit breaker rejections.
	ErrUnavailable = errors.New("llm: service temporarily unavailable")

	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Message is one prior conversation turn.
type Message struct {
	Role    string
	Content string
}

// GenerateRequest is a single generation call. History is replayed before
// Prompt, oldest first.
type GenerateRequest struct {
	SystemInstruction string
	History           []Message
	Prompt            string
}

// Generator produces a model answer for a request.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
