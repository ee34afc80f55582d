// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package rag

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/llm"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/metrics"
)

// Gemini embedding task types.
const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// maxGenAIBatch is the per-request limit of the batch embedding endpoint.
const maxGenAIBatch = 100

// GenAIEmbedder embeds text with the Gemini embedding models.
type GenAIEmbedder struct {
	client    *genai.Client
	model     string
	dim       int
	batchSize int
	guard     *llm.Guard
}

// NewGenAIEmbedder creates the Gemini embedding backend. Without an API key
// every call fails with llm.ErrNotConfigured.
func NewGenAIEmbedder(ctx context.Context, cfg *config.EmbeddingConfig, llmCfg *config.LLMConfig) (*GenAIEmbedder, error) {
	e := &GenAIEmbedder{
		model:     cfg.Model,
		dim:       cfg.Dimensions,
		batchSize: cfg.BatchSize,
		guard: llm.NewGuard(llm.GuardConfig{
			Name:              "genai-embed",
			RequestsPerSecond: llmCfg.RequestsPerSecond,
			Burst:             llmCfg.Burst,
			FailureThreshold:  llmCfg.BreakerFailureThreshold,
			OpenTimeout:       llmCfg.BreakerTimeout,
		}),
	}
	if e.model == "" {
		e.model = "gemini-embedding-001"
	}
	if e.batchSize <= 0 || e.batchSize > maxGenAIBatch {
		e.batchSize = maxGenAIBatch
	}

	if llmCfg.APIKey == "" {
		logging.Warn().Msg("GEMINI_API_KEY not set; genai embeddings will fail until configured")
		return e, nil
	}

	client, err := llm.NewClient(ctx, llmCfg.APIKey, llmCfg.BaseURL)
	if err != nil {
		return nil, err
	}
	e.client = client
	logging.Info().Str("model", e.model).Int("dimensions", e.dim).Msg("GenAI embedder initialized")
	return e, nil
}

// Name identifies the embedding space for cache keys.
func (e *GenAIEmbedder) Name() string {
	return fmt.Sprintf("genai-%s-%d", e.model, e.dim)
}

// Dimensions returns the requested output dimensionality.
func (e *GenAIEmbedder) Dimensions() int {
	return e.dim
}

// Embed embeds one document text.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text}, taskRetrievalDocument)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedQuery embeds a search query.
func (e *GenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds document texts in requests of at most batchSize.
func (e *GenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.embed(ctx, texts[start:end], taskRetrievalDocument)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *GenAIEmbedder) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if e.client == nil {
		return nil, llm.ErrNotConfigured
	}
	start := time.Now()

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	embedCfg := &genai.EmbedContentConfig{TaskType: taskType}
	if e.dim > 0 {
		embedCfg.OutputDimensionality = genai.Ptr(int32(e.dim))
	}

	vecs, err := llm.Execute(ctx, e.guard, func(ctx context.Context) ([][]float32, error) {
		resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, embedCfg)
		if err != nil {
			return nil, fmt.Errorf("genai embed: %w", err)
		}
		if len(resp.Embeddings) != len(texts) {
			return nil, fmt.Errorf("genai embed: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
		}
		out := make([][]float32, len(resp.Embeddings))
		for i, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, fmt.Errorf("genai embed: empty embedding at index %d", i)
			}
			out[i] = emb.Values
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	// truncated Gemini embeddings are not unit length
	for _, v := range vecs {
		normalize(v)
	}
	metrics.RecordEmbedding("genai", len(texts), time.Since(start))
	return vecs, nil
}
