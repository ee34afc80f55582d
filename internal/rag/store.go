// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package rag

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tomtom215/bhashasutra/internal/metrics"
	"github.com/tomtom215/bhashasutra/internal/models"
)

// ScoredChunk is a search hit with its cosine similarity.
type ScoredChunk struct {
	Chunk models.Chunk
	Score float64
}

type storedChunk struct {
	chunk models.Chunk
	norm  float64
}

// VectorStore is an exact in-memory cosine index. Entries keep insertion
// order, which breaks score ties.
type VectorStore struct {
	mu      sync.RWMutex
	dim     int
	entries []storedChunk
}

// NewVectorStore creates an empty store for vectors of size dim.
func NewVectorStore(dim int) *VectorStore {
	return &VectorStore{dim: dim}
}

// Dimensions returns the accepted vector size.
func (s *VectorStore) Dimensions() int {
	return s.dim
}

// Add appends chunks with their vectors. Nothing is added when any vector
// has the wrong size.
func (s *VectorStore) Add(chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("vector store: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != s.dim {
			return fmt.Errorf("%w: chunk %d has %d dimensions, store has %d", ErrDimensionMismatch, i, len(v), s.dim)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		c.Embedding = vectors[i]
		s.entries = append(s.entries, storedChunk{chunk: c, norm: vectorNorm(vectors[i])})
	}
	metrics.RAGVectorStoreSize.Set(float64(len(s.entries)))
	return nil
}

// Search returns the k chunks most similar to query, best first.
func (s *VectorStore) Search(query []float32, k int) ([]ScoredChunk, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d", ErrDimensionMismatch, len(query), s.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	qNorm := vectorNorm(query)

	s.mu.RLock()
	hits := make([]ScoredChunk, len(s.entries))
	for i, e := range s.entries {
		hits[i] = ScoredChunk{Chunk: e.chunk, Score: cosine(query, e.chunk.Embedding, qNorm, e.norm)}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of stored chunks.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reset empties the store.
func (s *VectorStore) Reset() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
	metrics.RAGVectorStoreSize.Set(0)
}

// DeleteDocument removes every chunk of documentID and returns how many
// were removed.
func (s *VectorStore) DeleteDocument(documentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.chunk.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	for i := len(kept); i < len(s.entries); i++ {
		s.entries[i] = storedChunk{}
	}
	s.entries = kept
	metrics.RAGVectorStoreSize.Set(float64(len(s.entries)))
	return removed
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine is 0 when either vector is zero.
func cosine(a, b []float32, aNorm, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}
