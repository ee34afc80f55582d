// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

/*
Package config provides centralized configuration management for Bhashasutra.

Configuration is layered with Koanf v2:

 1. Struct defaults (defaultConfig)
 2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/bhashasutra/config.yaml)
 3. Environment variables, mapped explicitly by envTransformFunc

# Configuration Structure

  - ServerConfig: bind address, port, timeouts, environment
  - DatabaseConfig: DuckDB path and tuning
  - SecurityConfig: CORS, fixed-window rate limit, sliding-window throttle, optional JWT guard
  - LoggingConfig: zerolog level and format
  - LLMConfig: Gemini model, outbound rate limit, circuit breaker
  - EmbeddingConfig: local or Gemini embeddings, Badger cache
  - RAGConfig: chunking, retrieval depth, memory window, upload limits
  - ChatConfig: BhashaGyan greeting, persona and memory window
  - EventsConfig: in-process document event bus

# Common Environment Variables

  - HTTP_PORT (default 8000)
  - GEMINI_API_KEY (required for LLM answers and genai embeddings)
  - EMBEDDING_PROVIDER (local | genai)
  - RAG_CHUNK_SIZE / RAG_CHUNK_OVERLAP / RAG_TOP_K
  - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW
  - THROTTLE_REQUESTS / THROTTLE_WINDOW
  - CORS_ORIGINS (comma separated)
  - LOG_LEVEL / LOG_FORMAT
  - AUTH_MODE / JWT_SECRET

Validate is called by Load and returns the first failing rule.
*/
package config
