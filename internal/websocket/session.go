// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB

	sendBufferSize    = 64
	inboundBufferSize = 16
)

var (
	// ErrSessionClosed is returned by Send after the session has been closed.
	ErrSessionClosed = errors.New("websocket session closed")

	// ErrSendBufferFull is returned when the client is not draining frames.
	ErrSendBufferFull = errors.New("websocket send buffer full")
)

// sessionSeq orders sessions for deterministic shutdown.
var sessionSeq atomic.Uint64

// Session is one websocket connection. Each session owns its own
// conversation state in the handlers; nothing is shared between sessions.
type Session struct {
	seq      uint64
	id       string
	endpoint string
	hub      *Hub
	conn     *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	send    chan []byte
	closed  bool
	inbound chan []byte
}

func newSession(hub *Hub, conn *websocket.Conn, endpoint string) *Session {
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(logging.ContextWithSessionID(context.Background(), id))
	return &Session{
		seq:      sessionSeq.Add(1),
		id:       id,
		endpoint: endpoint,
		hub:      hub,
		conn:     conn,
		ctx:      ctx,
		cancel:   cancel,
		send:     make(chan []byte, sendBufferSize),
		inbound:  make(chan []byte, inboundBufferSize),
	}
}

// ID returns the session identifier, also used as the conversation memory key.
func (s *Session) ID() string {
	return s.id
}

// Endpoint returns the metrics label of the route that accepted the session.
func (s *Session) Endpoint() string {
	return s.endpoint
}

// Context is canceled when the client disconnects.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Send marshals v as JSON and queues it as a text frame.
func (s *Session) Send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.SendRaw(data)
}

// SendRaw queues data as a text frame without blocking.
func (s *Session) SendRaw(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	select {
	case s.send <- data:
		return nil
	default:
		metrics.WSErrors.WithLabelValues(s.endpoint, "send_buffer_full").Inc()
		return ErrSendBufferFull
	}
}

// closeSend stops the write pump. Safe to call more than once.
func (s *Session) closeSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// readPump reads text frames into the inbound queue. Pongs are handled
// inside ReadMessage, so the deadline only moves while frames are read.
// Once the queue is full reading pauses until the handler catches up, and
// a handler stalled past pongWait ends the session.
func (s *Session) readPump() {
	defer func() {
		close(s.inbound)
		s.cancel()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues(s.endpoint, "unexpected_close").Inc()
				logging.Ctx(s.ctx).Warn().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
		if msgType != websocket.TextMessage {
			metrics.WSErrors.WithLabelValues(s.endpoint, "binary_frame").Inc()
			continue
		}
		metrics.WSMessagesReceived.WithLabelValues(s.endpoint).Inc()

		select {
		case s.inbound <- data:
		case <-s.ctx.Done():
			return
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close() // best-effort; unblocks readPump
	}()

	for {
		select {
		case data, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				metrics.WSErrors.WithLabelValues(s.endpoint, "write").Inc()
				logging.Ctx(s.ctx).Debug().Err(err).Msg("failed to write websocket frame")
				return
			}
			metrics.WSMessagesSent.WithLabelValues(s.endpoint).Inc()

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// process feeds inbound frames to h one at a time, so replies keep the
// order of the questions.
func (s *Session) process(h Handler) {
	defer func() {
		h.OnClose(s)
		s.hub.leave(s)
		metrics.WSConnections.WithLabelValues(s.endpoint).Dec()
		logging.Ctx(s.ctx).Debug().Str("endpoint", s.endpoint).Msg("websocket session ended")
	}()

	for data := range s.inbound {
		s.handle(h, data)
	}
}

func (s *Session) handle(h Handler, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			metrics.WSErrors.WithLabelValues(s.endpoint, "handler_panic").Inc()
			logging.Ctx(s.ctx).Error().Interface("panic", r).Msg("websocket handler panicked")
		}
	}()
	h.OnMessage(s.ctx, s, data)
}
