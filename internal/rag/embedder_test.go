// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package rag

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/tomtom215/bhashasutra/internal/config"
)

// countingEmbedder wraps HashEmbedder and counts texts it embeds.
type countingEmbedder struct {
	*HashEmbedder
	mu    sync.Mutex
	texts int
	err   error
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{HashEmbedder: NewHashEmbedder(384)}
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.texts += len(texts)
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.HashEmbedder.EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *countingEmbedder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.texts
}

func norm(v []float32) float64 {
	return vectorNorm(v)
}

func TestHashEmbedder_Basics(t *testing.T) {
	e := NewHashEmbedder(0)
	if e.Dimensions() != 384 {
		t.Errorf("Dimensions = %d, want 384", e.Dimensions())
	}
	if e.Name() != "local-bow-384" {
		t.Errorf("Name = %q", e.Name())
	}

	ctx := context.Background()
	a, _ := e.Embed(ctx, "Named entity recognition finds people and places.")
	b, _ := e.Embed(ctx, "Named entity recognition finds people and places.")
	if len(a) != 384 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("embedding is not deterministic")
		}
	}
	if math.Abs(norm(a)-1) > 1e-5 {
		t.Errorf("norm = %v, want 1", norm(a))
	}
}

func TestHashEmbedder_Similarity(t *testing.T) {
	e := NewHashEmbedder(384)
	ctx := context.Background()

	query, _ := e.Embed(ctx, "how does stemming reduce words")
	related, _ := e.Embed(ctx, "Stemming reduces words to their root form.")
	unrelated, _ := e.Embed(ctx, "The recipe needs flour, sugar and butter.")

	rel := cosine(query, related, norm(query), norm(related))
	unrel := cosine(query, unrelated, norm(query), norm(unrelated))
	if rel <= unrel {
		t.Errorf("related score %v should exceed unrelated %v", rel, unrel)
	}
}

func TestHashEmbedder_StopwordsOnly(t *testing.T) {
	e := NewHashEmbedder(32)
	v, err := e.Embed(context.Background(), "the and of to")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if norm(v) != 0 {
		t.Errorf("stopword-only text should embed to zero, norm %v", norm(v))
	}
}

func TestHashEmbedder_BatchMatchesSingle(t *testing.T) {
	e := NewHashEmbedder(128)
	ctx := context.Background()
	texts := []string{"part of speech tagging", "sentiment polarity", ""}

	batch, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	for i, text := range texts {
		single, _ := e.Embed(ctx, text)
		for j := range single {
			if single[j] != batch[i][j] {
				t.Fatalf("text %d differs at %d", i, j)
			}
		}
	}
}

func TestHashEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashEmbedder(8).EmbedBatch(ctx, []string{"x"}); err == nil {
		t.Error("expected context error")
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("The QUICK, brown-fox; isn't 42!")
	want := []string{"quick", "brown", "fox", "isn", "t", "42"}
	if len(got) != len(want) {
		t.Fatalf("tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewEmbedder(t *testing.T) {
	llmCfg := &config.LLMConfig{RequestsPerSecond: 10, Burst: 1}

	tests := []struct {
		name     string
		cfg      config.EmbeddingConfig
		wantType string
		wantErr  bool
	}{
		{"local", config.EmbeddingConfig{Provider: "local", Dimensions: 16}, "*rag.HashEmbedder", false},
		{"default provider", config.EmbeddingConfig{Dimensions: 16}, "*rag.HashEmbedder", false},
		{"genai without key", config.EmbeddingConfig{Provider: "genai", Dimensions: 16}, "*rag.GenAIEmbedder", false},
		{"cached", config.EmbeddingConfig{Provider: "local", Dimensions: 16, CacheEnabled: true}, "*rag.CachedEmbedder", false},
		{"unknown", config.EmbeddingConfig{Provider: "word2vec"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEmbedder(context.Background(), &tt.cfg, llmCfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEmbedder failed: %v", err)
			}
			if got := typeName(e); got != tt.wantType {
				t.Errorf("type = %s, want %s", got, tt.wantType)
			}
			if c, ok := e.(*CachedEmbedder); ok {
				_ = c.Close()
			}
		})
	}
}

func typeName(e Embedder) string {
	switch e.(type) {
	case *HashEmbedder:
		return "*rag.HashEmbedder"
	case *GenAIEmbedder:
		return "*rag.GenAIEmbedder"
	case *CachedEmbedder:
		return "*rag.CachedEmbedder"
	default:
		return "unknown"
	}
}
