// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Topics carried on the in-process bus.
const (
	TopicDocumentIngested = "rag.document.ingested"
	TopicDocumentsCleared = "rag.documents.cleared"
)

// Metadata keys set on every message.
const (
	MetaRequestID = "request_id"
	MetaEventType = "event_type"
)

// ErrInvalidEvent is returned when an event fails validation.
var ErrInvalidEvent = errors.New("invalid event")

// DocumentIngested announces a document whose chunks are indexed.
type DocumentIngested struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunk_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// Validate checks required fields.
func (e *DocumentIngested) Validate() error {
	if e.DocumentID == "" {
		return fmt.Errorf("%w: document_id is required", ErrInvalidEvent)
	}
	return nil
}

// DocumentsCleared announces that every document was deleted.
type DocumentsCleared struct {
	Deleted   int64     `json:"deleted"`
	Timestamp time.Time `json:"timestamp"`
}

type validator interface {
	Validate() error
}

// marshal validates and encodes an event payload.
func marshal(event interface{}) ([]byte, error) {
	if v, ok := event.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("validate event: %w", err)
		}
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// unmarshal decodes an event payload into dst and validates it.
func unmarshal(data []byte, dst interface{}) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	if v, ok := dst.(validator); ok {
		return v.Validate()
	}
	return nil
}
