// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// ErrHubStopped is returned when a connection arrives after shutdown.
var ErrHubStopped = errors.New("websocket hub stopped")

// Hub tracks live sessions so shutdown can close every connection. It does
// not route messages: each session talks only to its own handler.
type Hub struct {
	sessions   map[*Session]struct{}
	register   chan *Session
	unregister chan *Session
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub creates a new Hub. RunWithContext must be running before
// connections are accepted.
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[*Session]struct{}),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		done:       make(chan struct{}),
	}
}

// RunWithContext processes registrations until ctx is canceled, then
// closes every session and returns ctx.Err().
//
// Shutdown is checked first, then lifecycle events, so a stopping hub
// never accepts a new session.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s] = struct{}{}
			total := len(h.sessions)
			h.mu.Unlock()
			logger().Info().Str("endpoint", s.endpoint).Int("total_clients", total).Msg("websocket client connected")

		case s := <-h.unregister:
			h.remove(s)
		}
	}
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) add(ctx context.Context, s *Session) error {
	select {
	case h.register <- s:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) leave(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
		s.closeSend()
	}
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	total := len(h.sessions)
	h.mu.Unlock()

	s.closeSend()
	if ok {
		logger().Info().Str("endpoint", s.endpoint).Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// logGracefulShutdown closes all sessions and logs the shutdown. ctx.Err()
// is not logged as an error because cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	h.stopOnce.Do(func() { close(h.done) })

	clientCount := h.GetClientCount()
	h.closeAllClients()

	logger().Info().
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients closes sessions in connection order.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[*Session]struct{})
	h.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].seq < sessions[j].seq
	})
	for _, s := range sessions {
		s.closeSend()
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// CountByEndpoint returns the number of clients connected to one route.
func (h *Hub) CountByEndpoint(endpoint string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for s := range h.sessions {
		if s.endpoint == endpoint {
			n++
		}
	}
	return n
}
