// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/llm"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/metrics"
	"github.com/tomtom215/bhashasutra/internal/models"
	"github.com/tomtom215/bhashasutra/internal/websocket"
)

const (
	msgInvalidFormat = "Invalid message format. Please send a JSON object with a 'message' field."
	msgEmptyMessage  = "Please provide a question or message."
	msgLLMFailure    = "I'm having trouble connecting to my knowledge base right now. Please try again in a moment."
	msgInternal      = "An error occurred while processing your request."
)

// Service is the BhashaGyan tutoring assistant. Each websocket session has
// its own conversation memory, dropped on disconnect.
type Service struct {
	generator llm.Generator
	memory    *llm.Memory
	greeting  string
	persona   string
	window    int
	logger    zerolog.Logger
}

// NewService builds the assistant. Empty greeting or persona fall back to
// the defaults.
func NewService(cfg *config.ChatConfig, generator llm.Generator) *Service {
	s := &Service{
		generator: generator,
		greeting:  cfg.Greeting,
		persona:   cfg.Persona,
		window:    cfg.MemoryWindow,
		logger:    logging.WithComponent("bhashagyan"),
	}
	if s.greeting == "" {
		s.greeting = config.DefaultGreeting
	}
	if s.persona == "" {
		s.persona = config.DefaultPersona
	}
	s.memory = llm.NewMemory(s.window)
	return s
}

// Memory exposes the per-session conversation buffers.
func (s *Service) Memory() *llm.Memory {
	return s.memory
}

// Greeting returns the frame sent when a session opens.
func (s *Service) Greeting() models.ChatReply {
	return models.ChatReply{Type: models.ChatTypeGreeting, Message: s.greeting}
}

// Reply answers one raw client frame for sessionID.
func (s *Service) Reply(ctx context.Context, sessionID string, data []byte) models.ChatReply {
	question, err := parseQuestion(data)
	switch {
	case errors.Is(err, errInvalidFormat):
		s.logger.Warn().Str("session_id", sessionID).Msg("Invalid JSON received")
		return models.ChatReply{Type: models.ChatTypeError, Message: msgInvalidFormat}
	case err != nil:
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Error processing message")
		return models.ChatReply{Type: models.ChatTypeError, Message: msgInternal}
	case strings.TrimSpace(question) == "":
		return models.ChatReply{Type: models.ChatTypeError, Message: msgEmptyMessage}
	}

	start := time.Now()
	answer, err := s.generator.Generate(ctx, llm.GenerateRequest{
		SystemInstruction: s.persona,
		History:           s.memory.History(sessionID, s.window),
		Prompt:            question,
	})
	if err != nil {
		metrics.RecordQuery("bhashagyan", "error", time.Since(start))
		logging.Ctx(ctx).Error().Err(err).Msg("BhashaGyan generation failed")
		return models.ChatReply{Type: models.ChatTypeResponse, Message: msgLLMFailure}
	}

	s.memory.Append(sessionID, question, answer)
	metrics.RecordQuery("bhashagyan", "success", time.Since(start))
	return models.ChatReply{Type: models.ChatTypeResponse, Message: answer}
}

// End drops the session's memory.
func (s *Service) End(sessionID string) {
	s.memory.Clear(sessionID)
}

var errInvalidFormat = errors.New("invalid message format")

// parseQuestion extracts the "message" field. Malformed JSON is
// errInvalidFormat; a JSON value of the wrong shape is a processing error.
func parseQuestion(data []byte) (string, error) {
	if !json.Valid(data) {
		return "", errInvalidFormat
	}
	var req models.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return "", err
	}
	if req.Message == nil {
		return "", nil
	}
	return *req.Message, nil
}

// OnOpen implements websocket.Handler.
func (s *Service) OnOpen(sess *websocket.Session) {
	s.logger.Info().Str("session_id", sess.ID()).Msg("New client connected to BhashaGyan")
	if err := sess.Send(s.Greeting()); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.ID()).Msg("Failed to send greeting")
	}
}

// OnMessage implements websocket.Handler.
func (s *Service) OnMessage(ctx context.Context, sess *websocket.Session, data []byte) {
	if err := sess.Send(s.Reply(ctx, sess.ID(), data)); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.ID()).Msg("Failed to send reply")
	}
}

// OnClose implements websocket.Handler.
func (s *Service) OnClose(sess *websocket.Session) {
	s.End(sess.ID())
	s.logger.Info().Str("session_id", sess.ID()).Msg("Client disconnected from BhashaGyan")
}

var _ websocket.Handler = (*Service)(nil)
