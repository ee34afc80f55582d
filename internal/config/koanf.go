// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/bhashasutra/config.yaml",
	"/etc/bhashasutra/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultRAGSystemPrompt instructs the model to stay grounded in retrieved context.
const DefaultRAGSystemPrompt = `You are a helpful AI assistant specializing in information retrieval.
Answer the user's question based on the provided context. If the information isn't in the context,
say you don't know rather than making up an answer. Provide clear and concise responses.`

// DefaultGreeting is the first frame sent on a BhashaGyan connection.
const DefaultGreeting = "I'm BhashaGyan, your AI assistant for Natural Language Processing and Machine Learning questions. How can I help you today?"

// DefaultPersona is the BhashaGyan system instruction.
const DefaultPersona = `You are BhashaGyan, an AI assistant specialized in Natural Language Processing (NLP),
Machine Learning (ML), and Deep Learning (DL). Answer questions related to these fields
with technical accuracy but in an approachable way. For general greetings, respond in a
friendly manner. If asked about something outside your area of expertise, politely guide
the conversation back to NLP, ML, or DL topics.

You have a bit of a sarcastic streak and can be witty in your responses. If a user
misbehaves or is rude, you can call them out, but remain professional.
If you sense the user is not understanding your technical explanations, you can mix in some
Hinglish (Hindi-English mix) to make concepts more relatable for Indian users.

BhashaSutra is a web app offering a suite of NLP tools: basic text statistics and cleanup,
tokenization, stopword removal, stemming, lemmatization, POS tagging, TF-IDF, language
detection, summarization, sentiment analysis, translation, visualizations, and a document
question-answering bot that answers from files the user uploads.`

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			Host:        "0.0.0.0",
			Timeout:     120 * time.Second, // uploads and LLM round trips
			Environment: "development",
			Version:     "1.0.0",
		},
		Database: DatabaseConfig{
			Path:      "./data/bhashasutra.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		Security: SecurityConfig{
			AuthMode:              "none",
			JWTSecret:             "",
			SessionTimeout:        30 * time.Minute,
			CORSOrigins:           []string{"*"},
			TrustedProxies:        []string{},
			RateLimitReqs:         100,
			RateLimitWindow:       time.Hour,
			RateLimitDisabled:     false,
			ThrottleReqs:          10,
			ThrottleWindow:        time.Minute,
			ThrottleDisabled:      false,
			WebSocketConnectLimit: 30,
			LimitExcludedPaths:    []string{"/docs", "/redoc", "/openapi.json", "/"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		LLM: LLMConfig{
			Provider:                "gemini",
			APIKey:                  "",
			Model:                   "gemini-2.0-flash",
			Temperature:             0.7,
			Timeout:                 60 * time.Second,
			RequestsPerSecond:       5,
			Burst:                   5,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:       "local",
			Model:          "gemini-embedding-001",
			Dimensions:     384,
			BatchSize:      64,
			CacheEnabled:   true,
			CacheDir:       "./data/embeddings",
			QueryCacheSize: 1024,
			QueryCacheTTL:  30 * time.Minute,
		},
		RAG: RAGConfig{
			ChunkSize:         1000,
			ChunkOverlap:      200,
			TopK:              3,
			MemoryWindow:      20,
			MaxUploadBytes:    32 << 20,
			AllowedExtensions: []string{".pdf", ".docx", ".doc", ".txt"},
			ResetOnDisconnect: true,
			RestoreOnStartup:  true,
			SystemPrompt:      DefaultRAGSystemPrompt,
		},
		Chat: ChatConfig{
			Greeting:     DefaultGreeting,
			MemoryWindow: 40,
			Persona:      DefaultPersona,
		},
		Events: EventsConfig{
			BufferSize:   256,
			CloseTimeout: 10 * time.Second,
			MaxRetries:   3,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults (from struct)
//  2. Config file (optional)
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
	"security.limit_excluded_paths",
	"rag.allowed_extensions",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",
	"api_version":  "server.version",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Security
	"auth_mode":               "security.auth_mode",
	"jwt_secret":              "security.jwt_secret",
	"session_timeout":         "security.session_timeout",
	"cors_origins":            "security.cors_origins",
	"trusted_proxies":         "security.trusted_proxies",
	"rate_limit_requests":     "security.rate_limit_reqs",
	"rate_limit_window":       "security.rate_limit_window",
	"disable_rate_limit":      "security.rate_limit_disabled",
	"throttle_requests":       "security.throttle_reqs",
	"throttle_window":         "security.throttle_window",
	"disable_throttle":        "security.throttle_disabled",
	"websocket_connect_limit": "security.websocket_connect_limit",
	"limit_excluded_paths":    "security.limit_excluded_paths",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// LLM
	"gemini_api_key":       "llm.api_key",
	"llm_model":            "llm.model",
	"llm_base_url":         "llm.base_url",
	"llm_temperature":      "llm.temperature",
	"llm_timeout":          "llm.timeout",
	"llm_requests_per_sec": "llm.requests_per_second",
	"llm_burst":            "llm.burst",

	// Embedding
	"embedding_provider":   "embedding.provider",
	"embedding_model":      "embedding.model",
	"embedding_dimensions": "embedding.dimensions",
	"embedding_cache":      "embedding.cache_enabled",
	"embedding_cache_dir":  "embedding.cache_dir",

	// RAG
	"rag_chunk_size":          "rag.chunk_size",
	"rag_chunk_overlap":       "rag.chunk_overlap",
	"rag_top_k":               "rag.top_k",
	"rag_memory_window":       "rag.memory_window",
	"rag_max_upload_bytes":    "rag.max_upload_bytes",
	"rag_allowed_extensions":  "rag.allowed_extensions",
	"rag_reset_on_disconnect": "rag.reset_on_disconnect",
	"rag_restore_on_startup":  "rag.restore_on_startup",

	// Chat
	"chat_memory_window": "chat.memory_window",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - GEMINI_API_KEY -> llm.api_key
//   - HTTP_PORT -> server.port
//   - RAG_CHUNK_SIZE -> rag.chunk_size
//
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
