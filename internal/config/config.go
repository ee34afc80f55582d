// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package config

import (
	"time"
)

// Config holds all application configuration.
//
// Values are layered: struct defaults, then an optional YAML file, then
// environment variables (see LoadWithKoanf).
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	LLM       LLMConfig       `koanf:"llm"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	RAG       RAGConfig       `koanf:"rag"`
	Chat      ChatConfig      `koanf:"chat"`
	Events    EventsConfig    `koanf:"events"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
	Version     string        `koanf:"version"`
}

// DatabaseConfig holds DuckDB configuration
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SecurityConfig holds CORS, request limiting and the optional JWT guard.
type SecurityConfig struct {
	AuthMode       string        `koanf:"auth_mode"` // none, jwt
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	CORSOrigins    []string `koanf:"cors_origins"`
	TrustedProxies []string `koanf:"trusted_proxies"`

	// Fixed-window limiter (100 requests per hour by default)
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// Sliding-window throttle (10 requests per minute by default)
	ThrottleReqs     int           `koanf:"throttle_reqs"`
	ThrottleWindow   time.Duration `koanf:"throttle_window"`
	ThrottleDisabled bool          `koanf:"throttle_disabled"`

	// WebSocket upgrade attempts per client per minute
	WebSocketConnectLimit int `koanf:"websocket_connect_limit"`

	// Paths never counted by either limiter
	LimitExcludedPaths []string `koanf:"limit_excluded_paths"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}

// LLMConfig configures the Gemini generation client.
type LLMConfig struct {
	Provider    string        `koanf:"provider"` // gemini
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"` // empty = Google default endpoint
	Model       string        `koanf:"model"`
	Temperature float32       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`

	// Outbound token bucket
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	// Circuit breaker
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// EmbeddingConfig selects and tunes the embedding backend.
type EmbeddingConfig struct {
	Provider   string `koanf:"provider"` // local, genai
	Model      string `koanf:"model"`
	Dimensions int    `koanf:"dimensions"`
	BatchSize  int    `koanf:"batch_size"`

	// Badger embedding cache. Empty dir keeps the cache in memory.
	CacheEnabled bool   `koanf:"cache_enabled"`
	CacheDir     string `koanf:"cache_dir"`

	// Query embedding LRU
	QueryCacheSize int           `koanf:"query_cache_size"`
	QueryCacheTTL  time.Duration `koanf:"query_cache_ttl"`
}

// RAGConfig holds retrieval pipeline parameters.
type RAGConfig struct {
	ChunkSize         int      `koanf:"chunk_size"`
	ChunkOverlap      int      `koanf:"chunk_overlap"`
	TopK              int      `koanf:"top_k"`
	MemoryWindow      int      `koanf:"memory_window"` // messages replayed to the LLM
	MaxUploadBytes    int64    `koanf:"max_upload_bytes"`
	AllowedExtensions []string `koanf:"allowed_extensions"`
	ResetOnDisconnect bool     `koanf:"reset_on_disconnect"`
	RestoreOnStartup  bool     `koanf:"restore_on_startup"`
	SystemPrompt      string   `koanf:"system_prompt"`
}

// ChatConfig configures the BhashaGyan assistant.
type ChatConfig struct {
	Greeting     string `koanf:"greeting"`
	MemoryWindow int    `koanf:"memory_window"`
	Persona      string `koanf:"persona"`
}

// EventsConfig configures the in-process document event bus.
type EventsConfig struct {
	BufferSize   int64         `koanf:"buffer_size"`
	CloseTimeout time.Duration `koanf:"close_timeout"`
	MaxRetries   int           `koanf:"max_retries"`
}

// Load reads configuration from all sources with the following precedence
// (highest to lowest):
//  1. Environment variables
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Built-in defaults
func Load() (*Config, error) {
	return LoadWithKoanf()
}
