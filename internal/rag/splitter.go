// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package rag

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/tomtom215/bhashasutra/internal/models"
)

// DefaultSeparators are tried in order by the recursive splitter.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts loaded pages into overlapping chunks.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

// NewSplitter creates a recursive character splitter. Non-positive values
// fall back to 1000/200; an overlap not below the chunk size is clamped.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = min(200, chunkSize/5)
	}
	return &Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(DefaultSeparators),
		),
	}
}

// Split turns the pages of one document into chunks. Each chunk inherits
// its page metadata plus document_id and chunk_index; indexes run across
// the whole document.
func (s *Splitter) Split(documentID string, pages []Page) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		parts, err := s.inner.SplitText(page.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to split text: %w", err)
		}
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			index := len(chunks)
			meta := make(map[string]interface{}, len(page.Metadata)+2)
			for k, v := range page.Metadata {
				meta[k] = v
			}
			meta["document_id"] = documentID
			meta["chunk_index"] = index

			chunks = append(chunks, models.Chunk{
				ID:         uuid.New().String(),
				DocumentID: documentID,
				Index:      index,
				Content:    part,
				Metadata:   meta,
			})
		}
	}
	return chunks, nil
}
