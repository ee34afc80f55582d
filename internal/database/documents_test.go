// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package database

import (
	"context"
	"errors"
	"testing"
)

func TestInsertDocument_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	doc, chunks := testDocument("doc-a", "first chunk", "second chunk")
	if err := db.InsertDocument(ctx, doc, chunks); err != nil {
		t.Fatalf("InsertDocument failed: %v", err)
	}

	if doc.ChunkCount != 2 {
		t.Errorf("ChunkCount = %d, want 2", doc.ChunkCount)
	}
	if doc.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := db.GetDocument(ctx, "doc-a")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Filename != "doc-a.txt" || got.Content != "content of doc-a" {
		t.Errorf("unexpected document: %+v", got)
	}
	if got.EmbeddingStatus {
		t.Error("EmbeddingStatus should default to false")
	}
	if got.ChunkCount != 2 {
		t.Errorf("stored ChunkCount = %d, want 2", got.ChunkCount)
	}

	loaded, err := db.LoadChunks(ctx)
	if err != nil {
		t.Fatalf("LoadChunks failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d chunks, want 2", len(loaded))
	}
	if loaded[0].Content != "first chunk" || loaded[1].Content != "second chunk" {
		t.Errorf("chunks out of order: %q, %q", loaded[0].Content, loaded[1].Content)
	}
	if loaded[1].Metadata["source"] != "doc-a.txt" {
		t.Errorf("metadata source = %v", loaded[1].Metadata["source"])
	}
	// JSON numbers decode as float64
	if idx, ok := loaded[1].Metadata["chunk_index"].(float64); !ok || idx != 1 {
		t.Errorf("metadata chunk_index = %v", loaded[1].Metadata["chunk_index"])
	}
	if len(loaded[1].Embedding) != 3 || loaded[1].Embedding[0] != 1 {
		t.Errorf("embedding = %v", loaded[1].Embedding)
	}
	if loaded[1].Embedder != "local-bow-3" {
		t.Errorf("embedder = %q, want local-bow-3", loaded[1].Embedder)
	}
}

func TestLoadChunks_InsertionOrderAcrossDocuments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// "z" sorts after "a" but is inserted first
	docZ, chunksZ := testDocument("z", "z0", "z1")
	docA, chunksA := testDocument("a", "a0")
	if err := db.InsertDocument(ctx, docZ, chunksZ); err != nil {
		t.Fatalf("InsertDocument z failed: %v", err)
	}
	if err := db.InsertDocument(ctx, docA, chunksA); err != nil {
		t.Fatalf("InsertDocument a failed: %v", err)
	}

	loaded, err := db.LoadChunks(ctx)
	if err != nil {
		t.Fatalf("LoadChunks failed: %v", err)
	}
	want := []string{"z0", "z1", "a0"}
	if len(loaded) != len(want) {
		t.Fatalf("loaded %d chunks, want %d", len(loaded), len(want))
	}
	for i, w := range want {
		if loaded[i].Content != w {
			t.Errorf("loaded[%d] = %q, want %q", i, loaded[i].Content, w)
		}
	}
}

func TestInsertDocument_ChunkWithoutEmbedding(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	doc, chunks := testDocument("doc-b", "text")
	chunks[0].Embedding = nil
	if err := db.InsertDocument(ctx, doc, chunks); err != nil {
		t.Fatalf("InsertDocument failed: %v", err)
	}

	loaded, err := db.LoadChunks(ctx)
	if err != nil {
		t.Fatalf("LoadChunks failed: %v", err)
	}
	if loaded[0].Embedding != nil {
		t.Errorf("expected nil embedding, got %v", loaded[0].Embedding)
	}
}

func TestInsertDocument_DuplicateRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	doc, chunks := testDocument("dup", "one")
	if err := db.InsertDocument(ctx, doc, chunks); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	doc2, chunks2 := testDocument("dup", "two", "three")
	chunks2[0].ID = "fresh-chunk-id"
	chunks2[1].ID = "fresh-chunk-id-2"
	if err := db.InsertDocument(ctx, doc2, chunks2); err == nil {
		t.Fatal("expected duplicate document insert to fail")
	}

	loaded, err := db.LoadChunks(ctx)
	if err != nil {
		t.Fatalf("LoadChunks failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("failed insert leaked chunks: have %d, want 1", len(loaded))
	}
}

func TestSetEmbeddingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	doc, chunks := testDocument("doc-c", "x")
	if err := db.InsertDocument(ctx, doc, chunks); err != nil {
		t.Fatalf("InsertDocument failed: %v", err)
	}

	if err := db.SetEmbeddingStatus(ctx, "doc-c", true); err != nil {
		t.Fatalf("SetEmbeddingStatus failed: %v", err)
	}
	got, err := db.GetDocument(ctx, "doc-c")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if !got.EmbeddingStatus {
		t.Error("EmbeddingStatus not updated")
	}

	err = db.SetEmbeddingStatus(ctx, "missing", true)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetDocument(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndCountDocuments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	docs, err := db.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", docs)
	}

	for _, id := range []string{"one", "two", "three"} {
		doc, chunks := testDocument(id, "text")
		if err := db.InsertDocument(ctx, doc, chunks); err != nil {
			t.Fatalf("InsertDocument %s failed: %v", id, err)
		}
	}

	docs, err = db.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("listed %d documents, want 3", len(docs))
	}
	for _, d := range docs {
		if d.Content != "" {
			t.Errorf("ListDocuments should omit content, got %q", d.Content)
		}
	}

	n, err := db.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 3 {
		t.Errorf("CountDocuments = %d, want 3", n)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"keep", "drop"} {
		doc, chunks := testDocument(id, "a", "b")
		if err := db.InsertDocument(ctx, doc, chunks); err != nil {
			t.Fatalf("InsertDocument %s failed: %v", id, err)
		}
	}

	if err := db.DeleteDocument(ctx, "drop"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}

	loaded, err := db.LoadChunks(ctx)
	if err != nil {
		t.Fatalf("LoadChunks failed: %v", err)
	}
	for _, c := range loaded {
		if c.DocumentID == "drop" {
			t.Errorf("chunk %s of deleted document still present", c.ID)
		}
	}
	if len(loaded) != 2 {
		t.Errorf("have %d chunks, want 2", len(loaded))
	}

	if err := db.DeleteDocument(ctx, "drop"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteAllDocuments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		doc, chunks := testDocument(id, "x", "y")
		if err := db.InsertDocument(ctx, doc, chunks); err != nil {
			t.Fatalf("InsertDocument %s failed: %v", id, err)
		}
	}

	deleted, err := db.DeleteAllDocuments(ctx)
	if err != nil {
		t.Fatalf("DeleteAllDocuments failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	n, err := db.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 0 {
		t.Errorf("CountDocuments = %d after delete", n)
	}
	loaded, err := db.LoadChunks(ctx)
	if err != nil {
		t.Fatalf("LoadChunks failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("%d chunks remain after delete", len(loaded))
	}

	deleted, err = db.DeleteAllDocuments(ctx)
	if err != nil {
		t.Fatalf("DeleteAllDocuments on empty db failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d on empty db", deleted)
	}
}
