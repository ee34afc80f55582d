// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	if err := c.validateLLM(); err != nil {
		return err
	}

	if err := c.validateEmbedding(); err != nil {
		return err
	}

	return c.validateRAG()
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	if err := c.validateAuthMode(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	return c.validateThrottle()
}

// validAuthModes defines the allowed authentication modes
var validAuthModes = map[string]bool{
	"none": true,
	"jwt":  true,
}

// validateAuthMode checks if auth mode is valid
func (c *Config) validateAuthMode() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}
	if c.Security.AuthMode == "jwt" {
		return c.validateJWTSecret()
	}
	return nil
}

// validateJWTSecret validates the JWT secret configuration
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

// validateCORS rejects wildcard CORS when the JWT guard is on in production.
func (c *Config) validateCORS() error {
	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled. " +
			"Set specific origins: CORS_ORIGINS=https://yourdomain.com")
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = 24 * time.Hour
)

// validateRateLimits validates the fixed-window limiter bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validateThrottle validates the sliding-window throttle bounds.
func (c *Config) validateThrottle() error {
	if c.Security.ThrottleDisabled {
		return nil
	}
	if c.Security.ThrottleReqs < minRateLimitRequests || c.Security.ThrottleReqs > maxRateLimitRequests {
		return fmt.Errorf("THROTTLE_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.ThrottleWindow < minRateLimitWindow || c.Security.ThrottleWindow > maxRateLimitWindow {
		return fmt.Errorf("THROTTLE_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateLLM validates generation client settings. A missing API key is
// allowed; calls fail at request time instead.
func (c *Config) validateLLM() error {
	if c.LLM.Provider != "gemini" {
		return fmt.Errorf("LLM provider must be gemini")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}
	if c.LLM.RequestsPerSecond <= 0 {
		return fmt.Errorf("LLM_REQUESTS_PER_SEC must be positive")
	}
	if c.LLM.Burst < 1 {
		return fmt.Errorf("LLM_BURST must be at least 1")
	}
	return nil
}

// validEmbeddingProviders defines the allowed embedding backends
var validEmbeddingProviders = map[string]bool{
	"local": true,
	"genai": true,
}

// validateEmbedding validates embedding backend settings
func (c *Config) validateEmbedding() error {
	if !validEmbeddingProviders[c.Embedding.Provider] {
		return fmt.Errorf("EMBEDDING_PROVIDER must be one of: local, genai")
	}
	if c.Embedding.Provider == "genai" && c.LLM.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when EMBEDDING_PROVIDER is genai")
	}
	if c.Embedding.Dimensions < 8 || c.Embedding.Dimensions > 4096 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be between 8 and 4096")
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("embedding batch size must be at least 1")
	}
	return nil
}

// validateRAG validates retrieval pipeline parameters
func (c *Config) validateRAG() error {
	if c.RAG.ChunkSize < 1 {
		return fmt.Errorf("RAG_CHUNK_SIZE must be positive")
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("RAG_CHUNK_OVERLAP must be between 0 and RAG_CHUNK_SIZE-1")
	}
	if c.RAG.TopK < 1 {
		return fmt.Errorf("RAG_TOP_K must be at least 1")
	}
	if c.RAG.MemoryWindow < 0 {
		return fmt.Errorf("RAG_MEMORY_WINDOW must not be negative")
	}
	if c.RAG.MaxUploadBytes < 1 {
		return fmt.Errorf("RAG_MAX_UPLOAD_BYTES must be positive")
	}
	if len(c.RAG.AllowedExtensions) == 0 {
		return fmt.Errorf("RAG_ALLOWED_EXTENSIONS must list at least one extension")
	}
	for _, ext := range c.RAG.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("RAG_ALLOWED_EXTENSIONS entry %q must start with a dot", ext)
		}
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
