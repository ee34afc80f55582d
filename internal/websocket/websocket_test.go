// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/bhashasutra/internal/metrics"
)

// echoHandler greets on open, echoes every frame and panics on "panic".
type echoHandler struct {
	mu     sync.Mutex
	opened []string
	closed chan string
}

func newEchoHandler() *echoHandler {
	return &echoHandler{closed: make(chan string, 8)}
}

func (h *echoHandler) OnOpen(s *Session) {
	h.mu.Lock()
	h.opened = append(h.opened, s.ID())
	h.mu.Unlock()
	_ = s.Send(map[string]string{"type": "greeting"})
}

func (h *echoHandler) OnMessage(_ context.Context, s *Session, data []byte) {
	if string(data) == "panic" {
		panic("boom")
	}
	_ = s.SendRaw(append([]byte("echo:"), data...))
}

func (h *echoHandler) OnClose(s *Session) {
	h.closed <- s.ID()
}

// startEndpoint runs a hub and serves h on an httptest server.
func startEndpoint(t *testing.T, name string, h Handler) (*httptest.Server, *Hub, context.CancelFunc, <-chan error) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- hub.Serve(ctx) }()

	srv := httptest.NewServer(&Endpoint{
		Name:     name,
		Hub:      hub,
		Handler:  h,
		Upgrader: NewUpgrader([]string{"*"}),
	})
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, hub, cancel, served
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return string(data)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEndpoint_GreetingAndOrderedReplies(t *testing.T) {
	srv, hub, _, _ := startEndpoint(t, "test-order", newEchoHandler())
	conn := dial(t, srv)

	if got := readText(t, conn); got != `{"type":"greeting"}` {
		t.Fatalf("greeting = %q", got)
	}

	for _, m := range []string{"one", "two", "three"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	for _, want := range []string{"echo:one", "echo:two", "echo:three"} {
		if got := readText(t, conn); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}

	if hub.GetClientCount() != 1 || hub.CountByEndpoint("test-order") != 1 {
		t.Errorf("client count = %d", hub.GetClientCount())
	}
	if v := testutil.ToFloat64(metrics.WSMessagesReceived.WithLabelValues("test-order")); v != 3 {
		t.Errorf("received metric = %v, want 3", v)
	}
}

// gatedHandler echoes frames once release is closed.
type gatedHandler struct {
	*echoHandler
	release chan struct{}
}

func (h *gatedHandler) OnMessage(ctx context.Context, s *Session, data []byte) {
	<-h.release
	h.echoHandler.OnMessage(ctx, s, data)
}

func TestEndpoint_FullInboundQueueKeepsEveryFrame(t *testing.T) {
	h := &gatedHandler{echoHandler: newEchoHandler(), release: make(chan struct{})}
	srv, _, _, _ := startEndpoint(t, "test-backlog", h)
	conn := dial(t, srv)

	if got := readText(t, conn); got != `{"type":"greeting"}` {
		t.Fatalf("greeting = %q", got)
	}

	// more frames than the inbound queue holds while the handler is stalled
	total := inboundBufferSize + 4
	for i := 0; i < total; i++ {
		if err := conn.WriteMessage(websocket.TextMessage, []byte{byte('a' + i)}); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}
	close(h.release)

	for i := 0; i < total; i++ {
		if got, want := readText(t, conn), "echo:"+string(rune('a'+i)); got != want {
			t.Fatalf("reply %d = %q, want %q", i, got, want)
		}
	}
}

func TestEndpoint_DisconnectRunsOnClose(t *testing.T) {
	h := newEchoHandler()
	srv, hub, _, _ := startEndpoint(t, "test-close", h)
	conn := dial(t, srv)
	readText(t, conn)

	waitFor(t, "gauge", func() bool {
		return testutil.ToFloat64(metrics.WSConnections.WithLabelValues("test-close")) == 1
	})

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	select {
	case id := <-h.closed:
		h.mu.Lock()
		opened := h.opened[0]
		h.mu.Unlock()
		if id != opened {
			t.Errorf("closed %q, opened %q", id, opened)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose not called")
	}

	waitFor(t, "hub to drop the session", func() bool { return hub.GetClientCount() == 0 })
	if v := testutil.ToFloat64(metrics.WSConnections.WithLabelValues("test-close")); v != 0 {
		t.Errorf("connections gauge = %v, want 0", v)
	}
}

func TestEndpoint_HandlerPanicKeepsSession(t *testing.T) {
	srv, _, _, _ := startEndpoint(t, "test-panic", newEchoHandler())
	conn := dial(t, srv)
	readText(t, conn)

	_ = conn.WriteMessage(websocket.TextMessage, []byte("panic"))
	_ = conn.WriteMessage(websocket.TextMessage, []byte("after"))

	if got := readText(t, conn); got != "echo:after" {
		t.Errorf("got %q, want echo:after", got)
	}
	if v := testutil.ToFloat64(metrics.WSErrors.WithLabelValues("test-panic", "handler_panic")); v != 1 {
		t.Errorf("panic metric = %v, want 1", v)
	}
}

func TestEndpoint_BinaryFramesIgnored(t *testing.T) {
	srv, _, _, _ := startEndpoint(t, "test-binary", newEchoHandler())
	conn := dial(t, srv)
	readText(t, conn)

	_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x01})
	_ = conn.WriteMessage(websocket.TextMessage, []byte("text"))

	if got := readText(t, conn); got != "echo:text" {
		t.Errorf("got %q, want echo:text", got)
	}
}

func TestHub_ShutdownClosesSessions(t *testing.T) {
	h := newEchoHandler()
	srv, hub, cancel, served := startEndpoint(t, "test-shutdown", h)
	conn := dial(t, srv)
	readText(t, conn)
	waitFor(t, "registration", func() bool { return hub.GetClientCount() == 1 })

	cancel()

	select {
	case err := <-served:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close, got %v", err)
	}

	select {
	case <-h.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose not called after shutdown")
	}
}

func TestEndpoint_RejectsAfterShutdown(t *testing.T) {
	h := newEchoHandler()
	srv, _, cancel, served := startEndpoint(t, "test-stopped", h)
	cancel()
	<-served

	conn := dial(t, srv)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.opened) != 0 {
		t.Error("OnOpen must not run when the hub is stopped")
	}
}

func TestSession_SendAfterClose(t *testing.T) {
	s := newSession(NewHub(), nil, "test-send")
	s.closeSend()
	s.closeSend()

	if err := s.Send("x"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestSession_SendBufferFull(t *testing.T) {
	s := newSession(NewHub(), nil, "test-full")
	for i := 0; i < sendBufferSize; i++ {
		if err := s.SendRaw([]byte("x")); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}
	if err := s.SendRaw([]byte("x")); !errors.Is(err, ErrSendBufferFull) {
		t.Errorf("expected ErrSendBufferFull, got %v", err)
	}
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"wildcard", []string{"*"}, "https://evil.example", true},
		{"wildcard no origin", []string{"*"}, "", true},
		{"listed", []string{"https://app.example.org"}, "https://app.example.org", true},
		{"unlisted", []string{"https://app.example.org"}, "https://other.example", false},
		{"missing", []string{"https://app.example.org"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/rag/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := originChecker(tt.allowed)(r); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetShutdownReason(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(ctx); got != ShutdownReasonContextCanceled {
		t.Errorf("got %q", got)
	}

	ctx, cancel = context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	if got := getShutdownReason(ctx); got != ShutdownReasonContextDeadline {
		t.Errorf("got %q", got)
	}
}
