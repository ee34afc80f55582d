// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package events

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/bhashasutra/internal/database"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/metrics"
)

// StatusStore flips the embedding status of a persisted document.
// Implemented by *database.DB.
type StatusStore interface {
	SetEmbeddingStatus(ctx context.Context, documentID string, embedded bool) error
}

// Handlers consumes document lifecycle events.
type Handlers struct {
	store StatusStore
}

// NewHandlers creates the consumers; store may be nil when nothing is
// persisted.
func NewHandlers(store StatusStore) *Handlers {
	return &Handlers{store: store}
}

// Register subscribes every handler on router.
func (h *Handlers) Register(router *Router, subscriber message.Subscriber) {
	router.AddConsumerHandler("document-ingested", TopicDocumentIngested, subscriber, h.HandleDocumentIngested)
	router.AddConsumerHandler("documents-cleared", TopicDocumentsCleared, subscriber, h.HandleDocumentsCleared)
}

// HandleDocumentIngested marks the document as embedded. A document deleted
// before the event arrived is not an error.
func (h *Handlers) HandleDocumentIngested(msg *message.Message) (err error) {
	defer func() { metrics.RecordEvent(TopicDocumentIngested, false, err) }()

	var event DocumentIngested
	if err := unmarshal(msg.Payload, &event); err != nil {
		// malformed payloads never succeed on retry
		logging.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed document event")
		return nil
	}

	ctx := messageContext(msg)
	if h.store == nil {
		return nil
	}
	if err := h.store.SetEmbeddingStatus(ctx, event.DocumentID, true); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			logging.Ctx(ctx).Debug().Str("document_id", event.DocumentID).Msg("Document gone before status update")
			return nil
		}
		return err
	}
	logging.Ctx(ctx).Debug().Str("document_id", event.DocumentID).Int("chunks", event.ChunkCount).Msg("Document marked as embedded")
	return nil
}

// HandleDocumentsCleared records a bulk deletion.
func (h *Handlers) HandleDocumentsCleared(msg *message.Message) error {
	var event DocumentsCleared
	if err := unmarshal(msg.Payload, &event); err != nil {
		logging.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed clear event")
		metrics.RecordEvent(TopicDocumentsCleared, false, err)
		return nil
	}
	logging.Ctx(messageContext(msg)).Info().Int64("deleted", event.Deleted).Msg("Documents cleared")
	metrics.RecordEvent(TopicDocumentsCleared, false, nil)
	return nil
}

// messageContext carries the publishing request's ID into handler logs.
func messageContext(msg *message.Message) context.Context {
	ctx := msg.Context()
	if id := msg.Metadata.Get(MetaRequestID); id != "" {
		ctx = logging.ContextWithRequestID(ctx, id)
	}
	return ctx
}
