// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/models"
	"github.com/tomtom215/bhashasutra/internal/websocket"
)

// WSHandler answers each text frame on /rag/ws as a query. The connection's
// session ID is its memory key.
type WSHandler struct {
	svc *Service
}

// NewWSHandler binds the websocket route to svc.
func NewWSHandler(svc *Service) *WSHandler {
	return &WSHandler{svc: svc}
}

// OnOpen implements websocket.Handler.
func (h *WSHandler) OnOpen(s *websocket.Session) {
	logging.Ctx(s.Context()).Info().Msg("RAG websocket client connected")
}

// OnMessage implements websocket.Handler.
func (h *WSHandler) OnMessage(ctx context.Context, s *websocket.Session, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			h.sendError(s, fmt.Errorf("%v", r))
		}
	}()

	result := h.svc.Query(ctx, s.ID(), string(data), TransportWebSocket)
	if err := s.Send(result); err != nil && !errors.Is(err, websocket.ErrSessionClosed) {
		h.sendError(s, err)
	}
}

func (h *WSHandler) sendError(s *websocket.Session, err error) {
	logging.Ctx(s.Context()).Error().Err(err).Msg("WebSocket error")
	_ = s.Send(models.NewQueryError(fmt.Sprintf("An error occurred: %v", err)))
}

// OnClose implements websocket.Handler. The connection's context is
// already canceled here, so cleanup runs on a fresh one.
func (h *WSHandler) OnClose(s *websocket.Session) {
	logging.Ctx(s.Context()).Info().Msg("WebSocket client disconnected")
	h.svc.EndSession(context.Background(), s.ID())
}

var _ websocket.Handler = (*WSHandler)(nil)
