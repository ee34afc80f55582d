// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "unknown auth mode",
			mutate:  func(c *Config) { c.Security.AuthMode = "basic" },
			wantErr: "AUTH_MODE",
		},
		{
			name:    "jwt without secret",
			mutate:  func(c *Config) { c.Security.AuthMode = "jwt" },
			wantErr: "JWT_SECRET is required",
		},
		{
			name: "jwt with short secret",
			mutate: func(c *Config) {
				c.Security.AuthMode = "jwt"
				c.Security.JWTSecret = "short"
			},
			wantErr: "at least 32 characters",
		},
		{
			name: "jwt with placeholder secret",
			mutate: func(c *Config) {
				c.Security.AuthMode = "jwt"
				c.Security.JWTSecret = "REPLACE_WITH_A_LONG_RANDOM_SECRET_VALUE_123"
			},
			wantErr: "placeholder",
		},
		{
			name: "jwt wildcard cors in production",
			mutate: func(c *Config) {
				c.Security.AuthMode = "jwt"
				c.Security.JWTSecret = "a-very-long-secret-value-that-is-random-1234567"
				c.Server.Environment = "production"
			},
			wantErr: "wildcard",
		},
		{
			name:    "rate limit window too large",
			mutate:  func(c *Config) { c.Security.RateLimitWindow = 48 * time.Hour },
			wantErr: "RATE_LIMIT_WINDOW",
		},
		{
			name: "rate limit disabled skips bounds",
			mutate: func(c *Config) {
				c.Security.RateLimitDisabled = true
				c.Security.RateLimitReqs = 0
			},
		},
		{
			name:    "throttle zero requests",
			mutate:  func(c *Config) { c.Security.ThrottleReqs = 0 },
			wantErr: "THROTTLE_REQUESTS",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "bad embedding provider",
			mutate:  func(c *Config) { c.Embedding.Provider = "openai" },
			wantErr: "EMBEDDING_PROVIDER",
		},
		{
			name:    "overlap not smaller than chunk",
			mutate:  func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize },
			wantErr: "RAG_CHUNK_OVERLAP",
		},
		{
			name:    "extension without dot",
			mutate:  func(c *Config) { c.RAG.AllowedExtensions = []string{"pdf"} },
			wantErr: "must start with a dot",
		},
		{
			name:    "temperature too high",
			mutate:  func(c *Config) { c.LLM.Temperature = 3 },
			wantErr: "LLM_TEMPERATURE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := defaultConfig()
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Error("default environment should be development")
	}
	cfg.Server.Environment = "PROD"
	if !cfg.IsProduction() {
		t.Error("PROD should be treated as production")
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	cfg := defaultConfig()
	if cfg.ShouldWarnAboutCORS() {
		t.Error("no warning expected without auth")
	}
	cfg.Security.AuthMode = "jwt"
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("warning expected for wildcard CORS with jwt")
	}
}
