// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

/*
Package api provides the HTTP surface of Bhashasutra using the chi router.

Routes:

	GET    /                 welcome message and version
	GET    /health           API and database status (always 200)
	GET    /metrics          Prometheus exposition
	POST   /rag/upload       multipart "files": PDF, DOCX or TXT
	POST   /rag/query        {"query": "...", "session_id": "..."}
	GET    /rag/documents    persisted documents
	DELETE /rag/documents    drop every document and embedding
	DELETE /rag/memory       clear conversation memory (?session_id=)
	GET    /rag/ws           websocket: each text frame is a query
	GET    /ws/bhashagyan    websocket: BhashaGyan tutor

Middleware Stack (in order):

  - chi RealIP, only for requests arriving from a configured trusted proxy
  - RequestID: X-Request-ID in and out, request_id on every log line
  - Recoverer: panics become 500s
  - PrometheusMetrics: request count, latency, in-flight gauge
  - CORS (go-chi/cors): answers preflights for every route
  - RateLimit: fixed window, 100 requests per hour per client by default
  - Throttle: sliding window, 10 requests per minute per client by default

The websocket routes additionally pass through a go-chi/httprate connect
limiter. When security.auth_mode is "jwt", the upload and both DELETE
routes require a Bearer token.

Response Shapes:

The RAG routes keep their flat JSON bodies (QueryResult, UploadResult,
StatusResult) and report client errors as {"detail": "..."}. Everything
else uses the models.APIResponse envelope.
*/
package api
