// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

// Package events carries document lifecycle events over an in-process
// Watermill Go channel.
//
// The rag service publishes rag.document.ingested after a document is
// persisted and indexed, and rag.documents.cleared after a bulk delete.
// Handlers run on a Watermill router (Recoverer and Retry middleware)
// that is supervised as a long-running service; the ingest handler flips
// the document's embedding_status in DuckDB.
package events
