// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package rag

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/bhashasutra/internal/database"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/metrics"
)

const embeddingKeyPrefix = "emb:"

// CachedEmbedder memoizes an Embedder in BadgerDB. Keys are
// sha256(model name || text), so switching backends or dimensions never
// returns stale vectors.
type CachedEmbedder struct {
	inner    Embedder
	db       *badger.DB
	inMemory bool
}

// NewCachedEmbedder opens the cache at dir, or in memory when dir is empty.
func NewCachedEmbedder(inner Embedder, dir string) (*CachedEmbedder, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create embedding cache directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	logging.Info().Str("dir", dir).Bool("in_memory", dir == "").Str("embedder", inner.Name()).Msg("Embedding cache opened")
	return &CachedEmbedder{inner: inner, db: db, inMemory: dir == ""}, nil
}

// Name returns the wrapped embedder's name.
func (c *CachedEmbedder) Name() string {
	return c.inner.Name()
}

// Dimensions returns the wrapped embedder's size.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Embed returns the cached vector or computes and stores it.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedQuery delegates to the wrapped embedder's query mode when it has
// one. Query vectors are cached by the service's LRU instead.
func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if _, ok := c.inner.(QueryEmbedder); ok {
		return embedQuery(ctx, c.inner, text)
	}
	return c.Embed(ctx, text)
}

// EmbedBatch serves hits from the cache and embeds the misses in one call.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([][]byte, len(texts))
	for i, t := range texts {
		keys[i] = c.key(t)
	}

	err := c.db.View(func(txn *badger.Txn) error {
		for i, k := range keys {
			item, err := txn.Get(k)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				vec, err := database.DecodeVector(val)
				if err != nil {
					return err
				}
				if len(vec) == c.inner.Dimensions() {
					out[i] = vec
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// a broken cache should not stop ingestion
		logging.Warn().Err(err).Msg("Embedding cache read failed")
	}

	var (
		missIdx   []int
		missTexts []string
	)
	for i, v := range out {
		hit := v != nil
		metrics.RecordCacheLookup("embedding", hit)
		if !hit {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}
	if len(missIdx) == 0 {
		return out, nil
	}

	fresh, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for j, i := range missIdx {
		out[i] = fresh[j]
		if err := wb.Set(keys[i], database.EncodeVector(fresh[j])); err != nil {
			logging.Warn().Err(err).Msg("Embedding cache write failed")
			return out, nil
		}
	}
	if err := wb.Flush(); err != nil {
		logging.Warn().Err(err).Msg("Embedding cache flush failed")
	}
	return out, nil
}

// Cleanup runs value log garbage collection until nothing is rewritten and
// returns the number of rewritten files. It is swept by the janitor.
func (c *CachedEmbedder) Cleanup() int {
	if c.inMemory {
		return 0
	}
	rewritten := 0
	for {
		if err := c.db.RunValueLogGC(0.5); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				logging.Debug().Err(err).Msg("Embedding cache GC stopped")
			}
			return rewritten
		}
		rewritten++
	}
}

// Close closes the cache database.
func (c *CachedEmbedder) Close() error {
	return c.db.Close()
}

func (c *CachedEmbedder) key(text string) []byte {
	h := sha256.New()
	h.Write([]byte(c.inner.Name()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum([]byte(embeddingKeyPrefix))
}
