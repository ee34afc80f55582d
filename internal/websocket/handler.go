// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/metrics"
)

// Handler reacts to one session's lifecycle. OnMessage calls for a session
// never overlap. OnClose runs after the last OnMessage returns.
type Handler interface {
	OnOpen(s *Session)
	OnMessage(ctx context.Context, s *Session, data []byte)
	OnClose(s *Session)
}

func logger() *zerolog.Logger {
	l := logging.WithComponent("websocket")
	return &l
}

// NewUpgrader returns an upgrader that accepts the given browser origins.
// "*" accepts any origin, including clients that send none.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      originChecker(allowedOrigins),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	wildcard := false
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		set[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		if wildcard {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			logger().Warn().Msg("WebSocket connection rejected: missing Origin header")
			return false
		}
		if _, ok := set[origin]; ok {
			return true
		}
		logger().Warn().Str("origin", logging.SanitizeValue("origin", origin)).Msg("WebSocket connection rejected from unauthorized origin")
		return false
	}
}

// Endpoint binds a route's metrics label and handler to the shared hub.
type Endpoint struct {
	Name     string
	Hub      *Hub
	Handler  Handler
	Upgrader websocket.Upgrader
}

// ServeHTTP upgrades the request and starts the session pumps.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		metrics.WSErrors.WithLabelValues(e.Name, "upgrade").Inc()
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	s := newSession(e.Hub, conn, e.Name)
	if err := e.Hub.add(r.Context(), s); err != nil {
		s.cancel()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	metrics.WSConnections.WithLabelValues(e.Name).Inc()

	go s.writePump()
	e.Handler.OnOpen(s)
	go s.process(e.Handler)
	go s.readPump()
}
