// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bhashasutra/internal/cache"
	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/llm"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/metrics"
	"github.com/tomtom215/bhashasutra/internal/models"
)

// Transport identifies where a query came from; it selects the empty-store
// wording and labels metrics.
type Transport string

const (
	TransportHTTP      Transport = "http"
	TransportWebSocket Transport = "websocket"
)

// DefaultSession is the memory key for HTTP queries without a session_id.
const DefaultSession = "default"

const (
	msgNoDocumentsHTTP      = "No documents have been uploaded yet. Please upload documents first using the /rag/upload endpoint."
	msgNoDocumentsWebSocket = "No documents have been uploaded yet. Please upload PDF, DOCX, or TXT files first using the /rag/upload endpoint."
	msgMemoryCleared        = "Conversation memory cleared successfully"
	msgDocumentsDeleted     = "All documents and embeddings deleted."
)

// DocumentStore persists documents and chunks. It is implemented by
// *database.DB.
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *models.Document, chunks []models.Chunk) error
	DeleteDocument(ctx context.Context, id string) error
	DeleteAllDocuments(ctx context.Context) (int64, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	LoadChunks(ctx context.Context) ([]models.Chunk, error)
}

// Notifier receives document lifecycle notifications. It is implemented by
// the events publisher.
type Notifier interface {
	DocumentIngested(ctx context.Context, doc *models.Document) error
	DocumentsCleared(ctx context.Context, deleted int64) error
}

// Deps are the collaborators of a Service. Documents and Notifier may be
// nil, in which case nothing is persisted or announced.
type Deps struct {
	Embedder  Embedder
	Generator llm.Generator
	Documents DocumentStore
	Notifier  Notifier
	Memory    *llm.Memory
}

// Service answers questions over uploaded documents. It is safe for
// concurrent use; ingestion, deletion and restore are serialized.
type Service struct {
	cfg      config.RAGConfig
	logger   zerolog.Logger
	embedder Embedder
	gen      llm.Generator
	docs     DocumentStore
	notifier Notifier
	memory   *llm.Memory
	store    *VectorStore
	splitter *Splitter
	queries  *cache.LRU[[]float32]
	allowed  map[string]struct{}

	mu sync.Mutex
}

// NewService wires the retrieval pipeline.
func NewService(cfg *config.RAGConfig, embCfg *config.EmbeddingConfig, deps Deps) (*Service, error) {
	if deps.Embedder == nil {
		return nil, errors.New("rag: embedder is required")
	}
	if deps.Generator == nil {
		return nil, errors.New("rag: generator is required")
	}
	if deps.Embedder.Dimensions() <= 0 {
		return nil, fmt.Errorf("rag: embedder %s reports %d dimensions", deps.Embedder.Name(), deps.Embedder.Dimensions())
	}

	memory := deps.Memory
	if memory == nil {
		memory = llm.NewMemory(0)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	s := &Service{
		cfg:      *cfg,
		logger:   logging.WithComponent("rag"),
		embedder: deps.Embedder,
		gen:      deps.Generator,
		docs:     deps.Documents,
		notifier: deps.Notifier,
		memory:   memory,
		store:    NewVectorStore(deps.Embedder.Dimensions()),
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		queries:  cache.NewLRU[[]float32](embCfg.QueryCacheSize, embCfg.QueryCacheTTL),
		allowed:  allowed,
	}
	if s.cfg.TopK <= 0 {
		s.cfg.TopK = 3
	}
	return s, nil
}

// Store exposes the vector store for health and tests.
func (s *Service) Store() *VectorStore {
	return s.store
}

// Memory exposes the conversation memory.
func (s *Service) Memory() *llm.Memory {
	return s.memory
}

// preparedDoc is a loaded, split and embedded upload not yet committed.
type preparedDoc struct {
	doc     models.Document
	chunks  []models.Chunk
	vectors [][]float32
	ext     string
}

// Ingest loads, splits, embeds and indexes files. Input mistakes return an
// *InputError. Processing failures are reported in the result with a nil
// error and leave the store unchanged.
func (s *Service) Ingest(ctx context.Context, files []UploadedFile) (models.UploadResult, error) {
	if len(files) == 0 {
		return models.UploadResult{}, &InputError{Err: ErrNoFiles, Detail: "No files provided"}
	}
	for _, f := range files {
		if _, ok := s.allowed[f.Ext()]; !ok {
			return models.UploadResult{}, &InputError{
				Err:    ErrUnsupportedFileType,
				Detail: fmt.Sprintf("Unsupported file type for %s. Please upload PDF, DOCX, or TXT files only.", f.Filename),
			}
		}
	}

	start := time.Now()
	defer func() { metrics.RAGIngestDuration.Observe(time.Since(start).Seconds()) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	prepared, err := s.prepare(ctx, files)
	if err == nil {
		err = s.commit(ctx, prepared)
	}
	if err != nil {
		s.logger.Error().Err(err).Int("files", len(files)).Msg("Error processing files")
		return models.UploadResult{
			Status:  models.StatusError,
			FileIDs: []string{},
			Message: fmt.Sprintf("Error processing files: %v", err),
		}, nil
	}

	ids := make([]string, len(prepared))
	total := 0
	for i, p := range prepared {
		ids[i] = p.doc.ID
		total += len(p.chunks)
		metrics.RecordIngest(strings.TrimPrefix(p.ext, "."), len(p.chunks), nil)
	}
	s.logger.Info().Int("files", len(files)).Int("chunks", total).Msg("Documents ingested")

	return models.UploadResult{
		Status:  models.StatusSuccess,
		FileIDs: ids,
		Message: fmt.Sprintf("Successfully processed %d files", len(files)),
	}, nil
}

// prepare runs the side-effect free part of ingestion.
func (s *Service) prepare(ctx context.Context, files []UploadedFile) ([]preparedDoc, error) {
	prepared := make([]preparedDoc, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pages, err := LoadFile(f)
		if err != nil {
			metrics.RecordIngest(strings.TrimPrefix(f.Ext(), "."), 0, err)
			return nil, err
		}

		id := uuid.New().String()
		chunks, err := s.splitter.Split(id, pages)
		if err != nil {
			return nil, err
		}

		var content strings.Builder
		for i, p := range pages {
			if i > 0 {
				content.WriteString("\n\n")
			}
			content.WriteString(p.Content)
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed %s: %w", f.Filename, err)
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
			chunks[i].Embedder = s.embedder.Name()
		}

		prepared = append(prepared, preparedDoc{
			doc: models.Document{
				ID:       id,
				Filename: f.Filename,
				Content:  content.String(),
			},
			chunks:  chunks,
			vectors: vectors,
			ext:     f.Ext(),
		})
	}
	return prepared, nil
}

// commit persists every document, then indexes them. Documents already
// written are removed again if a later one fails.
func (s *Service) commit(ctx context.Context, prepared []preparedDoc) error {
	for _, p := range prepared {
		if len(p.vectors) > 0 && len(p.vectors[0]) != s.store.Dimensions() {
			return fmt.Errorf("%w: embedder returned %d, store has %d", ErrDimensionMismatch, len(p.vectors[0]), s.store.Dimensions())
		}
	}

	if s.docs != nil {
		for i := range prepared {
			if err := s.docs.InsertDocument(ctx, &prepared[i].doc, prepared[i].chunks); err != nil {
				s.rollback(prepared[:i])
				return fmt.Errorf("failed to save %s: %w", prepared[i].doc.Filename, err)
			}
		}
	}

	var chunks []models.Chunk
	var vectors [][]float32
	for _, p := range prepared {
		chunks = append(chunks, p.chunks...)
		vectors = append(vectors, p.vectors...)
	}
	if err := s.store.Add(chunks, vectors); err != nil {
		s.rollback(prepared)
		return err
	}

	for i := range prepared {
		s.notify(ctx, func(n Notifier) error { return n.DocumentIngested(ctx, &prepared[i].doc) })
	}
	return nil
}

// rollback removes prepared documents from the vector store and the
// database.
func (s *Service) rollback(prepared []preparedDoc) {
	for _, p := range prepared {
		s.store.DeleteDocument(p.doc.ID)
	}
	if s.docs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, p := range prepared {
		if err := s.docs.DeleteDocument(ctx, p.doc.ID); err != nil {
			s.logger.Warn().Err(err).Str("document_id", p.doc.ID).Msg("Failed to roll back document")
		}
	}
}

func (s *Service) notify(ctx context.Context, fn func(Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := fn(s.notifier); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to publish document event")
	}
}

// Query answers query from the indexed documents, replaying the session's
// recent history. Failures are reported in the result.
func (s *Service) Query(ctx context.Context, sessionID, query string, transport Transport) models.QueryResult {
	start := time.Now()
	if sessionID == "" {
		sessionID = DefaultSession
	}
	ctx = logging.ContextWithSessionID(ctx, sessionID)

	answer, hits, err := s.answer(ctx, sessionID, query)
	if errors.Is(err, ErrNoDocuments) {
		metrics.RecordQuery(string(transport), "no_documents", time.Since(start))
		if transport == TransportWebSocket {
			return models.NewQueryError(msgNoDocumentsWebSocket)
		}
		return models.NewQueryError(msgNoDocumentsHTTP)
	}
	if err != nil {
		metrics.RecordQuery(string(transport), "error", time.Since(start))
		logging.Ctx(ctx).Error().Err(err).Msg("Error generating response")
		return models.NewQueryError(fmt.Sprintf("I encountered an error while processing your query: %v. Please try again.", err))
	}

	sources := make([]models.SourceDocument, len(hits))
	for i := range hits {
		sources[i] = hits[i].Chunk.Source()
	}
	metrics.RecordQuery(string(transport), "answered", time.Since(start))
	return models.QueryResult{
		Response:        answer,
		SourceDocuments: sources,
		Status:          models.StatusSuccess,
	}
}

func (s *Service) answer(ctx context.Context, sessionID, query string) (string, []ScoredChunk, error) {
	if s.store.Len() == 0 {
		return "", nil, ErrNoDocuments
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil, ErrEmptyQuery
	}

	vec, err := s.queryVector(ctx, query)
	if err != nil {
		return "", nil, err
	}
	hits, err := s.store.Search(vec, s.cfg.TopK)
	if err != nil {
		return "", nil, err
	}

	answer, err := s.gen.Generate(ctx, llm.GenerateRequest{
		History: s.memory.History(sessionID, s.cfg.MemoryWindow),
		Prompt:  BuildPrompt(s.cfg.SystemPrompt, BuildContext(hits), query),
	})
	if err != nil {
		return "", nil, err
	}

	s.memory.Append(sessionID, query, answer)
	return answer, hits, nil
}

// queryVector embeds query through the LRU. Entries are keyed by embedder
// name so a backend switch never reuses vectors.
func (s *Service) queryVector(ctx context.Context, query string) ([]float32, error) {
	key := s.embedder.Name() + "\x00" + query
	if vec, ok := s.queries.Get(key); ok {
		metrics.RecordCacheLookup("query", true)
		return vec, nil
	}
	metrics.RecordCacheLookup("query", false)

	vec, err := embedQuery(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	s.queries.Add(key, vec)
	return vec, nil
}

// ClearMemory forgets one session, or every session when sessionID is
// empty.
func (s *Service) ClearMemory(sessionID string) models.StatusResult {
	if sessionID == "" {
		s.memory.ClearAll()
	} else {
		s.memory.Clear(sessionID)
	}
	return models.StatusResult{Status: models.StatusSuccess, Message: msgMemoryCleared}
}

// DeleteDocuments empties the vector store and removes every persisted
// document and chunk.
func (s *Service) DeleteDocuments(ctx context.Context) models.StatusResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Reset()

	var deleted int64
	if s.docs != nil {
		n, err := s.docs.DeleteAllDocuments(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to delete documents")
			return models.StatusResult{Status: models.StatusError, Message: fmt.Sprintf("Failed to delete documents: %v", err)}
		}
		deleted = n
	}

	s.notify(ctx, func(n Notifier) error { return n.DocumentsCleared(ctx, deleted) })
	s.logger.Info().Int64("deleted", deleted).Msg("All documents and embeddings deleted")
	return models.StatusResult{Status: models.StatusSuccess, Message: msgDocumentsDeleted}
}

// EndSession is called when a websocket conversation closes: its memory
// is cleared and, when configured, every document is deleted.
func (s *Service) EndSession(ctx context.Context, sessionID string) {
	s.memory.Clear(sessionID)
	if s.cfg.ResetOnDisconnect {
		s.DeleteDocuments(ctx)
	}
}

// ListDocuments returns the persisted documents.
func (s *Service) ListDocuments(ctx context.Context) (models.DocumentList, error) {
	if s.docs == nil {
		return models.DocumentList{Documents: []models.Document{}}, nil
	}
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return models.DocumentList{}, fmt.Errorf("failed to list documents: %w", err)
	}
	return models.DocumentList{Documents: docs, Total: len(docs)}, nil
}

// Restore rebuilds the vector store from persisted chunks. Stored vectors
// are recomputed with the current embedder unless it produced them.
func (s *Service) Restore(ctx context.Context) (int, error) {
	if s.docs == nil {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, err := s.docs.LoadChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load chunks: %w", err)
	}

	vectors := make([][]float32, len(chunks))
	var staleIdx []int
	var staleTexts []string
	name := s.embedder.Name()
	for i, c := range chunks {
		if c.Embedder == name && len(c.Embedding) == s.store.Dimensions() {
			vectors[i] = c.Embedding
			continue
		}
		staleIdx = append(staleIdx, i)
		staleTexts = append(staleTexts, c.Content)
	}
	if len(staleTexts) > 0 {
		fresh, err := s.embedder.EmbedBatch(ctx, staleTexts)
		if err != nil {
			return 0, fmt.Errorf("failed to re-embed %d chunks: %w", len(staleTexts), err)
		}
		for j, i := range staleIdx {
			vectors[i] = fresh[j]
			chunks[i].Embedding = fresh[j]
			chunks[i].Embedder = name
		}
	}

	s.store.Reset()
	if err := s.store.Add(chunks, vectors); err != nil {
		return 0, err
	}
	s.logger.Info().Int("chunks", len(chunks)).Int("recomputed", len(staleTexts)).Msg("Vector store restored")
	return len(chunks), nil
}

// Close releases the embedder when it holds resources.
func (s *Service) Close() error {
	if c, ok := s.embedder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
