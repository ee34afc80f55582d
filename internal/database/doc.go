// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

// Package database persists uploaded documents and their chunks in DuckDB.
//
// # Overview
//
// The documents table records every uploaded file with its extracted text,
// chunk count and an embedding_status flag that the event consumer flips
// once the document's chunks are searchable. The chunks table keeps each
// split with its retrieval metadata (JSON text) and its embedding as a
// little-endian float32 BLOB, so the in-memory vector store can be rebuilt
// at startup without re-embedding.
//
// # Files
//
//   - database.go: connection lifecycle (New, Ping, Checkpoint, Close)
//   - migrations.go: versioned, append-only schema migrations
//   - documents.go: document and chunk reads and writes
//   - vector_codec.go: embedding BLOB encoding
//   - errors.go: close helpers and sentinel errors
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	err = db.InsertDocument(ctx, &doc, chunks)
//
// # Thread Safety
//
// DB is safe for concurrent use. Multi-row writes run in a transaction.
//
// # Testing
//
// Tests use ":memory:" databases created through setupTestDB, which
// serializes DuckDB instances across the package's tests.
package database
