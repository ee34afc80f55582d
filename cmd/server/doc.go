// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

/*
Package main is the entry point for the Bhashasutra server.

Bhashasutra answers questions over uploaded documents (PDF, DOCX, TXT) with
retrieval-augmented generation on Gemini, and hosts BhashaGyan, a
conversational NLP tutor over websocket.

# Application Architecture

	bhashasutra
	├── data-layer
	│   ├── events-router      marks documents embedded, logs clears
	│   └── limiter-janitor    throttle, rate limit and embedding cache GC
	├── messaging-layer
	│   └── websocket-hub      /rag/ws and /ws/bhashagyan sessions
	└── api-layer
	    └── http-server        chi router

Startup order:

 1. Configuration: koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Database: DuckDB documents and chunks tables
 4. Gemini generator and the configured embedder (local or genai, with
    the optional Badger cache)
 5. Watermill event bus and handlers
 6. RAG service, optionally restored from persisted chunks
 7. JWT guard when AUTH_MODE=jwt
 8. Supervisor tree; HTTP starts only after the event router subscribed

# Configuration

	HTTP_PORT=8000
	GEMINI_API_KEY=<key>          # without it generation returns an error message
	EMBEDDING_PROVIDER=local      # local or genai
	DUCKDB_PATH=./data/bhashasutra.duckdb
	AUTH_MODE=none                # none or jwt
	JWT_SECRET=<32+ chars>        # required for jwt; see cmd/tokengen
	CORS_ORIGINS=*
	LOG_LEVEL=info
	LOG_FORMAT=json

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for up
to 10s, the hub closes every websocket with a normal closure, and the
embedding cache and database are closed last.
*/
package main
