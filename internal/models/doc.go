// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

/*
Package models defines the data structures shared by the storage, service
and transport layers.

Model Categories:

1. Database Models:
  - Document: an uploaded file with its extracted text and embedding status
  - Chunk: one split of a document with retrieval metadata

2. RAG Payloads:
  - QueryRequest / QueryResult / SourceDocument
  - UploadResult, StatusResult, DocumentList

3. Chat Frames:
  - ChatRequest / ChatReply for the BhashaGyan websocket

4. API Envelope:
  - APIResponse, APIError, Metadata for generic endpoints
  - DetailResponse for {"detail": "..."} errors
  - RootResponse, HealthResponse

All JSON field names are snake_case. Slices that clients iterate over
(source_documents, file_ids) are always serialized as arrays, never null.
*/
package models
