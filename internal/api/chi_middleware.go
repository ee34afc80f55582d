// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/metrics"
	"github.com/tomtom215/bhashasutra/internal/middleware"
)

// ChiMiddleware builds the router's middleware from the security config.
type ChiMiddleware struct {
	cors      func(http.Handler) http.Handler
	throttle  *middleware.Throttle
	rateLimit *middleware.RateLimit
	wsLimit   func(http.Handler) http.Handler
}

// NewChiMiddleware creates CORS, the two request limiters and the
// websocket connect limiter.
func NewChiMiddleware(cfg *config.SecurityConfig) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return &ChiMiddleware{
		cors: corsHandler,
		throttle: middleware.NewThrottle(middleware.LimitConfig{
			Requests:      cfg.ThrottleReqs,
			Window:        cfg.ThrottleWindow,
			Disabled:      cfg.ThrottleDisabled,
			ExcludedPaths: cfg.LimitExcludedPaths,
		}),
		rateLimit: middleware.NewRateLimit(middleware.LimitConfig{
			Requests:      cfg.RateLimitReqs,
			Window:        cfg.RateLimitWindow,
			Disabled:      cfg.RateLimitDisabled,
			ExcludedPaths: cfg.LimitExcludedPaths,
		}),
		wsLimit: websocketConnectLimit(cfg.WebSocketConnectLimit),
	}
}

// CORS returns the go-chi/cors middleware.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// Throttle returns the sliding-window throttle.
func (m *ChiMiddleware) Throttle() func(http.Handler) http.Handler {
	return m.throttle.Handler
}

// RateLimit returns the fixed-window rate limiter.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.rateLimit.Handler
}

// WebSocketConnect limits upgrade attempts per client.
func (m *ChiMiddleware) WebSocketConnect() func(http.Handler) http.Handler {
	return m.wsLimit
}

// Cleaners returns the limiter stores for the janitor.
func (m *ChiMiddleware) Cleaners() []middleware.Cleaner {
	return []middleware.Cleaner{m.throttle, m.rateLimit}
}

func websocketConnectLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordLimiterRejection("websocket_connect")
			respondDetail(w, http.StatusTooManyRequests, "Too many websocket connection attempts. Try again later.")
		}),
	)
}
