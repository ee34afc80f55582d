// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package models

import (
	"time"
)

// APIResponse is the envelope used by endpoints that do not carry a fixed
// legacy response shape (health details, document listings, errors raised
// by the router itself).
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "query is required",
//	    "details": {"field": "query"}
//	  },
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
//
//   - Timestamp: Server time when response was generated (RFC3339 format)
//   - QueryTimeMS: Time spent serving the request in milliseconds
//   - Cached: Whether response was served from cache (omitted if false)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - DATABASE_ERROR: Query execution failure
//   - AUTHENTICATION_ERROR: Invalid/missing credentials
//   - NOT_FOUND: Resource doesn't exist
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - SERVICE_UNAVAILABLE: Upstream LLM not configured or circuit open
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// DetailResponse is the bare {"detail": "..."} body returned for HTTP errors
// on the RAG routes and by the request limiters.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// RootResponse is returned by GET /.
type RootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health. DatabaseStatus is "OK" or
// "Error: <reason>".
type HealthResponse struct {
	APIStatus      string `json:"api_status"`
	DatabaseStatus string `json:"database_status"`
}
