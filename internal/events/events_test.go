// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/database"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/metrics"
	"github.com/tomtom215/bhashasutra/internal/models"
)

// fakeStatusStore records SetEmbeddingStatus calls.
type fakeStatusStore struct {
	mu      sync.Mutex
	updated map[string]bool
	err     error
	done    chan string
}

func newFakeStatusStore() *fakeStatusStore {
	return &fakeStatusStore{updated: make(map[string]bool), done: make(chan string, 8)}
}

func (f *fakeStatusStore) SetEmbeddingStatus(_ context.Context, id string, embedded bool) error {
	f.mu.Lock()
	err := f.err
	if err == nil {
		f.updated[id] = embedded
	}
	f.mu.Unlock()
	if err == nil {
		f.done <- id
	}
	return err
}

func testEventsConfig() *config.EventsConfig {
	return &config.EventsConfig{BufferSize: 16, CloseTimeout: time.Second, MaxRetries: 1}
}

func TestMarshal_ValidatesEvents(t *testing.T) {
	if _, err := marshal(&DocumentIngested{}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("expected ErrInvalidEvent, got %v", err)
	}

	data, err := marshal(&DocumentIngested{DocumentID: "doc-1", Filename: "a.txt", ChunkCount: 2})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var got DocumentIngested
	if err := unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.DocumentID != "doc-1" || got.ChunkCount != 2 {
		t.Errorf("decoded = %+v", got)
	}

	if err := unmarshal([]byte("{"), &got); err == nil {
		t.Error("expected decode error")
	}
}

func TestHandleDocumentIngested(t *testing.T) {
	tests := []struct {
		name      string
		payload   []byte
		storeErr  error
		wantErr   bool
		wantMarks int
	}{
		{"marks document", []byte(`{"document_id":"doc-1","chunk_count":3}`), nil, false, 1},
		{"malformed payload dropped", []byte(`not json`), nil, false, 0},
		{"missing id dropped", []byte(`{"filename":"a.txt"}`), nil, false, 0},
		{"deleted document ignored", []byte(`{"document_id":"gone"}`), database.ErrNotFound, false, 0},
		{"store error retried", []byte(`{"document_id":"doc-2"}`), errors.New("db locked"), true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStatusStore()
			store.err = tt.storeErr
			h := NewHandlers(store)

			err := h.HandleDocumentIngested(message.NewMessage(watermill.NewUUID(), tt.payload))
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(store.updated) != tt.wantMarks {
				t.Errorf("updates = %d, want %d", len(store.updated), tt.wantMarks)
			}
		})
	}
}

func TestHandleDocumentsCleared(t *testing.T) {
	h := NewHandlers(nil)
	before := testutil.ToFloat64(metrics.EventsHandled.WithLabelValues(TopicDocumentsCleared, "success"))

	if err := h.HandleDocumentsCleared(message.NewMessage(watermill.NewUUID(), []byte(`{"deleted":4}`))); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if got := testutil.ToFloat64(metrics.EventsHandled.WithLabelValues(TopicDocumentsCleared, "success")) - before; got != 1 {
		t.Errorf("handled = %v, want 1", got)
	}
}

func TestMessageContext_CarriesRequestID(t *testing.T) {
	msg := message.NewMessage(watermill.NewUUID(), nil)
	msg.Metadata.Set(MetaRequestID, "req-42")
	if got := logging.RequestIDFromContext(messageContext(msg)); got != "req-42" {
		t.Errorf("request id = %q", got)
	}
}

func TestBusAndRouter_EndToEnd(t *testing.T) {
	cfg := testEventsConfig()
	bus := NewBus(cfg, nil)
	defer func() { _ = bus.Close() }()

	router, err := NewRouter(cfg, nil)
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	store := newFakeStatusStore()
	NewHandlers(store).Register(router, bus.Subscriber())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- router.Serve(ctx) }()

	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	if !router.IsRunning() {
		t.Error("IsRunning should be true while serving")
	}

	publishedBefore := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicDocumentIngested))
	reqCtx := logging.ContextWithRequestID(context.Background(), "req-1")
	if err := bus.DocumentIngested(reqCtx, &models.Document{ID: "doc-9", Filename: "n.txt", ChunkCount: 1}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := bus.DocumentsCleared(reqCtx, 0); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case id := <-store.done:
		if id != "doc-9" {
			t.Errorf("updated %q, want doc-9", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not run")
	}
	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicDocumentIngested)) - publishedBefore; got != 1 {
		t.Errorf("published = %v, want 1", got)
	}

	cancel()
	select {
	case <-served:
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}
	if router.String() != "event-router" {
		t.Errorf("String = %q", router.String())
	}
}

func TestBus_PublishInvalidEvent(t *testing.T) {
	bus := NewBus(testEventsConfig(), nil)
	defer func() { _ = bus.Close() }()

	if err := bus.DocumentIngested(context.Background(), &models.Document{}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("expected ErrInvalidEvent, got %v", err)
	}
}
