// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/metrics"
)

// Embedder turns text into fixed-size vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// QueryEmbedder is implemented by backends that embed queries differently
// from documents.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// embedQuery uses EmbedQuery when e supports it.
func embedQuery(ctx context.Context, e Embedder, text string) ([]float32, error) {
	if qe, ok := e.(QueryEmbedder); ok {
		return qe.EmbedQuery(ctx, text)
	}
	return e.Embed(ctx, text)
}

// NewEmbedder builds the configured backend, wrapped in the persistent
// cache when enabled.
func NewEmbedder(ctx context.Context, cfg *config.EmbeddingConfig, llmCfg *config.LLMConfig) (Embedder, error) {
	var (
		base Embedder
		err  error
	)
	switch cfg.Provider {
	case "", "local":
		base = NewHashEmbedder(cfg.Dimensions)
	case "genai":
		base, err = NewGenAIEmbedder(ctx, cfg, llmCfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if !cfg.CacheEnabled {
		return base, nil
	}
	return NewCachedEmbedder(base, cfg.CacheDir)
}

// HashEmbedder is a deterministic bag-of-words embedder using the feature
// hashing trick over lowercased unigrams and bigrams. Stopwords are dropped,
// term counts are damped with 1+log(tf) and vectors are L2 normalized.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hashing embedder; dim defaults to 384.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &HashEmbedder{dim: dim}
}

// Name identifies the embedding space for cache keys.
func (e *HashEmbedder) Name() string {
	return fmt.Sprintf("local-bow-%d", e.dim)
}

// Dimensions returns the vector size.
func (e *HashEmbedder) Dimensions() int {
	return e.dim
}

// Embed returns the vector for text. Text without indexable terms yields
// the zero vector.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

// EmbedBatch embeds every text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(t)
	}
	metrics.RecordEmbedding("local", len(texts), time.Since(start))
	return out, nil
}

func (e *HashEmbedder) vector(text string) []float32 {
	terms := tokenize(text)

	counts := make(map[string]int, len(terms)*2)
	for i, t := range terms {
		counts[t]++
		if i > 0 {
			counts[terms[i-1]+" "+t]++
		}
	}

	vec := make([]float32, e.dim)
	for feature, tf := range counts {
		weight := float32(1 + math.Log(float64(tf)))
		idx, sign := hashFeature(feature, e.dim)
		vec[idx] += sign * weight
	}
	normalize(vec)
	return vec
}

// tokenize lowercases text, splits on anything that is not a letter or
// digit and drops stopwords.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func hashFeature(feature string, dim int) (int, float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	sign := float32(1)
	if sum>>63 == 1 {
		sign = -1
	}
	return int(sum % uint64(dim)), sign
}

// normalize scales vec to unit length in place; the zero vector is left as is.
func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}

var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "against": {}, "all": {}, "am": {}, "an": {}, "and": {},
	"any": {}, "are": {}, "as": {}, "at": {}, "be": {}, "because": {}, "been": {}, "before": {}, "being": {}, "below": {},
	"between": {}, "both": {}, "but": {}, "by": {}, "can": {}, "did": {}, "do": {}, "does": {}, "doing": {}, "down": {},
	"during": {}, "each": {}, "few": {}, "for": {}, "from": {}, "further": {}, "had": {}, "has": {}, "have": {}, "having": {},
	"he": {}, "her": {}, "here": {}, "hers": {}, "herself": {}, "him": {}, "himself": {}, "his": {}, "how": {}, "i": {},
	"if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "its": {}, "itself": {}, "just": {}, "me": {}, "more": {},
	"most": {}, "my": {}, "myself": {}, "no": {}, "nor": {}, "not": {}, "now": {}, "of": {}, "off": {}, "on": {},
	"once": {}, "only": {}, "or": {}, "other": {}, "our": {}, "ours": {}, "ourselves": {}, "out": {}, "over": {}, "own": {},
	"same": {}, "she": {}, "should": {}, "so": {}, "some": {}, "such": {}, "than": {}, "that": {}, "the": {}, "their": {},
	"theirs": {}, "them": {}, "themselves": {}, "then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "those": {},
	"through": {}, "to": {}, "too": {}, "under": {}, "until": {}, "up": {}, "very": {}, "was": {}, "we": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {}, "who": {}, "whom": {}, "why": {}, "with": {}, "you": {},
	"your": {}, "yours": {}, "yourself": {}, "yourselves": {},
}
