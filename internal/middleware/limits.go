// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"github.com/tomtom215/bhashasutra/internal/cache"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/metrics"
)

// maxTrackedClients bounds per-client limiter state.
const maxTrackedClients = 100000

// LimitConfig configures one limiter.
type LimitConfig struct {
	Requests      int
	Window        time.Duration
	Disabled      bool
	ExcludedPaths []string
	// KeyFunc identifies the client; httprate.KeyByIP when nil.
	KeyFunc httprate.KeyFunc
}

// limitDetail is the 429 body shape: {"detail": "..."}.
type limitDetail struct {
	Detail string `json:"detail"`
}

// Throttle enforces a sliding window of Requests per Window per client.
// Only admitted requests occupy the window.
type Throttle struct {
	cfg      LimitConfig
	store    *cache.SlidingLogStore
	excluded map[string]struct{}
}

// NewThrottle creates the sliding-window throttle.
func NewThrottle(cfg LimitConfig) *Throttle {
	return &Throttle{
		cfg:      cfg,
		store:    cache.NewSlidingLogStore(cfg.Requests, cfg.Window, maxTrackedClients),
		excluded: pathSet(cfg.ExcludedPaths),
	}
}

// Handler returns the chi-compatible middleware.
func (t *Throttle) Handler(next http.Handler) http.Handler {
	if t.cfg.Disabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, skip := t.excluded[r.URL.Path]; skip {
			next.ServeHTTP(w, r)
			return
		}

		key := clientKey(r, t.cfg.KeyFunc)
		ok, wait := t.store.Allow(key)
		if !ok {
			seconds := int(wait / time.Second)
			metrics.RecordLimiterRejection("throttle")
			logging.Ctx(r.Context()).Debug().Str("client", key).Int("retry_after", seconds).Msg("Request throttled")

			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeLimitDetail(w, fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", seconds))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup drops idle client state; run periodically by the janitor.
func (t *Throttle) Cleanup() int {
	return t.store.CleanupInactive()
}

// RateLimit enforces a fixed window of Requests per Window per client and
// reports the budget in X-RateLimit-* headers on every limited response.
type RateLimit struct {
	cfg      LimitConfig
	store    *cache.FixedWindowStore
	excluded map[string]struct{}
}

// NewRateLimit creates the fixed-window rate limiter.
func NewRateLimit(cfg LimitConfig) *RateLimit {
	return &RateLimit{
		cfg:      cfg,
		store:    cache.NewFixedWindowStore(cfg.Requests, cfg.Window),
		excluded: pathSet(cfg.ExcludedPaths),
	}
}

// Handler returns the chi-compatible middleware.
func (l *RateLimit) Handler(next http.Handler) http.Handler {
	if l.cfg.Disabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, skip := l.excluded[r.URL.Path]; skip {
			next.ServeHTTP(w, r)
			return
		}

		key := clientKey(r, l.cfg.KeyFunc)
		state := l.store.Hit(key)

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(state.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(state.Remaining()))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(state.ResetAt.Unix(), 10))

		if !state.Allowed {
			seconds := int(time.Until(state.ResetAt) / time.Second)
			if seconds < 0 {
				seconds = 0
			}
			metrics.RecordLimiterRejection("rate_limit")
			logging.Ctx(r.Context()).Debug().Str("client", key).Int("retry_after", seconds).Msg("Rate limit exceeded")

			h.Set("Retry-After", strconv.Itoa(seconds))
			writeLimitDetail(w, "Rate limit exceeded. Try again in "+formatWait(seconds)+".")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup drops expired windows; run periodically by the janitor.
func (l *RateLimit) Cleanup() int {
	return l.store.CleanupExpired()
}

// formatWait renders "M minutes and S seconds", or "S seconds" under a minute.
func formatWait(seconds int) string {
	minutes, rest := seconds/60, seconds%60
	if minutes > 0 {
		return fmt.Sprintf("%d minutes and %d seconds", minutes, rest)
	}
	return fmt.Sprintf("%d seconds", rest)
}

func writeLimitDetail(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	if err := json.NewEncoder(w).Encode(limitDetail{Detail: detail}); err != nil {
		logging.Error().Err(err).Msg("Failed to encode limiter response")
	}
}

func clientKey(r *http.Request, keyFunc httprate.KeyFunc) string {
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	key, err := keyFunc(r)
	if err != nil || key == "" {
		return r.RemoteAddr
	}
	return key
}

func pathSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}

// Cleaner is a limiter whose idle state can be reclaimed.
type Cleaner interface {
	Cleanup() int
}

// Janitor periodically reclaims limiter state. It implements suture.Service.
type Janitor struct {
	interval time.Duration
	cleaners []Cleaner
}

// NewJanitor creates a janitor sweeping cleaners every interval.
func NewJanitor(interval time.Duration, cleaners ...Cleaner) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{interval: interval, cleaners: cleaners}
}

// Serve runs until ctx is cancelled.
func (j *Janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed := j.Sweep()
			if removed > 0 {
				logging.Debug().Int("removed", removed).Msg("Limiter state reclaimed")
			}
		}
	}
}

// Sweep runs every cleaner once and returns the total removed.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.cleaners {
		total += c.Cleanup()
	}
	return total
}

// String implements fmt.Stringer for supervisor logs.
func (j *Janitor) String() string {
	return "limiter-janitor"
}
