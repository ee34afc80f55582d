// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

// Package metrics declares the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry through promauto, so
// importing the package is enough to expose them. The Record* helpers keep
// label values consistent across call sites.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Request limiter rejections; limiter is "throttle", "rate_limit" or "ws_connect"
	LimiterRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_limiter_rejections_total",
			Help: "Total number of requests rejected by a request limiter",
		},
		[]string{"limiter"},
	)

	// RAG Metrics
	RAGDocumentsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_documents_ingested_total",
			Help: "Total number of uploaded documents by outcome",
		},
		[]string{"file_type", "result"}, // result: "success", "failure"
	)

	RAGChunksIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rag_chunks_indexed_total",
			Help: "Total number of chunks added to the vector store",
		},
	)

	RAGVectorStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rag_vector_store_chunks",
			Help: "Current number of chunks held in the vector store",
		},
	)

	RAGIngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rag_ingest_duration_seconds",
			Help:    "Time to load, split and embed one upload batch",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	RAGQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_queries_total",
			Help: "Total number of RAG queries by outcome",
		},
		[]string{"transport", "result"}, // transport: "http", "websocket"; result: "answered", "no_documents", "error"
	)

	RAGQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rag_query_duration_seconds",
			Help:    "End-to-end RAG query latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"transport"},
	)

	// Embedding Metrics
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of texts embedded by provider",
		},
		[]string{"provider"},
	)

	EmbeddingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embedding_duration_seconds",
			Help:    "Duration of embedding batches",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"provider"},
	)

	// Cache Metrics; cache_type is "embedding" or "query"
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// LLM Metrics
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM generation calls by outcome",
		},
		[]string{"model", "result"}, // result: "success", "error", "rejected"
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Duration of LLM generation calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// WebSocket Metrics; endpoint is "rag" or "bhashagyan"
	WSConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"endpoint"},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
		[]string{"endpoint"},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
		[]string{"endpoint"},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"endpoint", "error_type"},
	)

	// Event bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of document lifecycle events published",
		},
		[]string{"topic"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_handled_total",
			Help: "Total number of document lifecycle events handled",
		},
		[]string{"topic", "result"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordLimiterRejection counts one rejected request.
func RecordLimiterRejection(limiter string) {
	LimiterRejections.WithLabelValues(limiter).Inc()
}

// RecordIngest records the outcome of one uploaded file.
func RecordIngest(fileType string, chunks int, err error) {
	if err != nil {
		RAGDocumentsIngested.WithLabelValues(fileType, "failure").Inc()
		return
	}
	RAGDocumentsIngested.WithLabelValues(fileType, "success").Inc()
	RAGChunksIndexed.Add(float64(chunks))
}

// RecordQuery records one RAG query.
func RecordQuery(transport, result string, duration time.Duration) {
	RAGQueriesTotal.WithLabelValues(transport, result).Inc()
	RAGQueryDuration.WithLabelValues(transport).Observe(duration.Seconds())
}

// RecordEmbedding records one embedding batch of n texts.
func RecordEmbedding(provider string, n int, duration time.Duration) {
	EmbeddingRequests.WithLabelValues(provider).Add(float64(n))
	EmbeddingDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCacheLookup records a hit or miss for cacheType.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordLLMRequest records one generation call.
func RecordLLMRequest(model, result string, duration time.Duration) {
	LLMRequests.WithLabelValues(model, result).Inc()
	LLMRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordEvent records a published event or a handler outcome.
func RecordEvent(topic string, published bool, err error) {
	if published {
		EventsPublished.WithLabelValues(topic).Inc()
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	EventsHandled.WithLabelValues(topic, result).Inc()
}

// StatusLabel converts an HTTP status code into a metric label.
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}
