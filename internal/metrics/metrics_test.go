// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/rag/query", "200"))
	RecordAPIRequest("POST", "/rag/query", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/rag/query", "200"))
	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc: got %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec: got %v, want %v", got, before)
	}
}

func TestRecordIngest(t *testing.T) {
	tests := []struct {
		name       string
		fileType   string
		chunks     int
		err        error
		wantResult string
		wantChunks float64
	}{
		{"pdf success", ".pdf", 12, nil, "success", 12},
		{"txt success", ".txt", 1, nil, "success", 1},
		{"docx failure", ".docx", 0, errors.New("corrupt archive"), "failure", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := RAGDocumentsIngested.WithLabelValues(tt.fileType, tt.wantResult)
			before := testutil.ToFloat64(counter)
			chunksBefore := testutil.ToFloat64(RAGChunksIndexed)

			RecordIngest(tt.fileType, tt.chunks, tt.err)

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("ingest counter delta = %v, want 1", got)
			}
			if got := testutil.ToFloat64(RAGChunksIndexed) - chunksBefore; got != tt.wantChunks {
				t.Errorf("chunk counter delta = %v, want %v", got, tt.wantChunks)
			}
		})
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("embedding"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("embedding"))

	RecordCacheLookup("embedding", true)
	RecordCacheLookup("embedding", false)
	RecordCacheLookup("embedding", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("embedding")) - hits; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("embedding")) - misses; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}
}

func TestRecordEvent(t *testing.T) {
	pub := testutil.ToFloat64(EventsPublished.WithLabelValues("documents.ingested"))
	fail := testutil.ToFloat64(EventsHandled.WithLabelValues("documents.ingested", "failure"))

	RecordEvent("documents.ingested", true, nil)
	RecordEvent("documents.ingested", false, errors.New("db closed"))

	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("documents.ingested")) - pub; got != 1 {
		t.Errorf("published delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(EventsHandled.WithLabelValues("documents.ingested", "failure")) - fail; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
}

func TestRecordQueryAndLLM(t *testing.T) {
	before := testutil.ToFloat64(RAGQueriesTotal.WithLabelValues("websocket", "no_documents"))
	RecordQuery("websocket", "no_documents", time.Millisecond)
	if got := testutil.ToFloat64(RAGQueriesTotal.WithLabelValues("websocket", "no_documents")) - before; got != 1 {
		t.Errorf("query delta = %v, want 1", got)
	}

	llmBefore := testutil.ToFloat64(LLMRequests.WithLabelValues("gemini-2.0-flash", "rejected"))
	RecordLLMRequest("gemini-2.0-flash", "rejected", 0)
	if got := testutil.ToFloat64(LLMRequests.WithLabelValues("gemini-2.0-flash", "rejected")) - llmBefore; got != 1 {
		t.Errorf("llm delta = %v, want 1", got)
	}
}

func TestStatusLabel(t *testing.T) {
	if StatusLabel(429) != "429" {
		t.Errorf("StatusLabel(429) = %q", StatusLabel(429))
	}
}
