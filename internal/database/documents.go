// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bhashasutra/internal/metrics"
	"github.com/tomtom215/bhashasutra/internal/models"
)

// InsertDocument stores a document and its chunks in one transaction.
// CreatedAt/UpdatedAt are set to now when zero.
func (db *DB) InsertDocument(ctx context.Context, doc *models.Document, chunks []models.Chunk) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "documents", time.Since(start), err) }()

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	doc.ChunkCount = len(chunks)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, filename, content, embedding_status, chunk_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.Content, doc.EmbeddingStatus, doc.ChunkCount, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
	}

	if len(chunks) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, document_id, chunk_index, content, metadata, embedding, embedder)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare chunk insert: %w", err)
		}
		defer closeWithLog(stmt, "chunk insert statement")

		for i := range chunks {
			c := &chunks[i]
			meta, err := json.Marshal(c.Metadata)
			if err != nil {
				return fmt.Errorf("failed to encode metadata for chunk %d: %w", c.Index, err)
			}
			var embedding []byte
			if len(c.Embedding) > 0 {
				embedding = EncodeVector(c.Embedding)
			}
			if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Index, c.Content, string(meta), embedding, c.Embedder); err != nil {
				return fmt.Errorf("failed to insert chunk %d of %s: %w", c.Index, doc.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document %s: %w", doc.ID, err)
	}
	return nil
}

// SetEmbeddingStatus flips the embedding_status flag of a document.
func (db *DB) SetEmbeddingStatus(ctx context.Context, documentID string, embedded bool) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update", "documents", time.Since(start), err) }()

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE documents SET embedding_status = ?, updated_at = ? WHERE id = ?`,
		embedded, time.Now().UTC(), documentID)
	if err != nil {
		return fmt.Errorf("failed to update embedding status for %s: %w", documentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}
	return nil
}

// GetDocument returns a single document including its content.
func (db *DB) GetDocument(ctx context.Context, id string) (doc *models.Document, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			metrics.RecordDBQuery("select", "documents", time.Since(start), nil)
			return
		}
		metrics.RecordDBQuery("select", "documents", time.Since(start), err)
	}()

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var d models.Document
	err = db.conn.QueryRowContext(ctx, `
		SELECT id, filename, content, embedding_status, chunk_count, created_at, updated_at
		FROM documents WHERE id = ?`, id).
		Scan(&d.ID, &d.Filename, &d.Content, &d.EmbeddingStatus, &d.ChunkCount, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return &d, nil
}

// ListDocuments returns all documents, oldest first, without their content.
func (db *DB) ListDocuments(ctx context.Context) (docs []models.Document, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "documents", time.Since(start), err) }()

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, filename, embedding_status, chunk_count, created_at, updated_at
		FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs = make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.EmbeddingStatus, &d.ChunkCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the number of stored documents.
func (db *DB) CountDocuments(ctx context.Context) (int, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// LoadChunks returns every stored chunk in insertion order with its
// embedding decoded (nil when none was stored).
func (db *DB) LoadChunks(ctx context.Context) (chunks []models.Chunk, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "chunks", time.Since(start), err) }()

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, metadata, embedding, COALESCE(embedder, '')
		FROM chunks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c         models.Chunk
			meta      string
			embedding []byte
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Content, &meta, &embedding, &c.Embedder); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for chunk %s: %w", c.ID, err)
		}
		if len(embedding) > 0 {
			if c.Embedding, err = DecodeVector(embedding); err != nil {
				return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
			}
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}
	return chunks, nil
}

// DeleteDocument removes one document and its chunks.
func (db *DB) DeleteDocument(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete", "documents", time.Since(start), err) }()

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete chunks of %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// DeleteAllDocuments removes every document and chunk and returns the number
// of documents deleted.
func (db *DB) DeleteAllDocuments(ctx context.Context) (deleted int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete", "documents", time.Since(start), err) }()

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}
	deleted, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return deleted, nil
}
