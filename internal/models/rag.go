// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package models

import "time"

// Result status values shared by the RAG and chat payloads.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Document is an uploaded file as persisted in the documents table.
type Document struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	Content         string    `json:"content,omitempty"`
	EmbeddingStatus bool      `json:"embedding_status"`
	ChunkCount      int       `json:"chunk_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Chunk is one split of a document. Embedding is nil until the chunk has
// been embedded and is never serialized to clients.
type Chunk struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	Index      int                    `json:"chunk_index"`
	Content    string                 `json:"content"`
	Metadata   map[string]interface{} `json:"metadata"`
	Embedding  []float32              `json:"-"`
	// Embedder names the backend that produced Embedding.
	Embedder string `json:"-"`
}

// Source returns the client-facing view of the chunk.
func (c *Chunk) Source() SourceDocument {
	return SourceDocument{Content: c.Content, Metadata: c.Metadata}
}

// SourceDocument is a retrieved chunk returned alongside an answer.
type SourceDocument struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

// QueryResult is the answer to a RAG query over HTTP or websocket.
type QueryResult struct {
	Response        string           `json:"response"`
	SourceDocuments []SourceDocument `json:"source_documents"`
	Status          string           `json:"status"`
}

// NewQueryError builds an error result. source_documents serializes as [].
func NewQueryError(message string) QueryResult {
	return QueryResult{
		Response:        message,
		SourceDocuments: []SourceDocument{},
		Status:          StatusError,
	}
}

// UploadResult reports the outcome of a batch upload.
type UploadResult struct {
	Status  string   `json:"status"`
	FileIDs []string `json:"file_ids"`
	Message string   `json:"message"`
}

// StatusResult is returned by the memory and document deletion endpoints.
type StatusResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// QueryRequest is the body of POST /rag/query.
type QueryRequest struct {
	Query     string `json:"query" validate:"required,notblank,max=8000"`
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
}

// DocumentList is returned by GET /rag/documents.
type DocumentList struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}
