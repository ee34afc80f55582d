// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package cache

import (
	"sync"
	"time"
)

// WindowState describes a key's fixed window after a Hit.
type WindowState struct {
	Count   int
	Limit   int
	ResetAt time.Time
	Allowed bool
}

// Remaining returns how many requests are left in the window, never negative.
func (w WindowState) Remaining() int {
	if w.Count >= w.Limit {
		return 0
	}
	return w.Limit - w.Count
}

type fixedWindow struct {
	count   int
	resetAt time.Time
}

// FixedWindowStore counts requests per key in windows that start at a key's
// first request and reset wholesale once they expire. Every hit is counted,
// including rejected ones.
type FixedWindowStore struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewFixedWindowStore creates a store allowing limit hits per window per key.
func NewFixedWindowStore(limit int, window time.Duration) *FixedWindowStore {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Hour
	}
	return &FixedWindowStore{
		windows: make(map[string]*fixedWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Hit counts one request for key.
func (f *FixedWindowStore) Hit(key string) WindowState {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	w, ok := f.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(f.window)}
		f.windows[key] = w
	}
	w.count++

	return WindowState{
		Count:   w.count,
		Limit:   f.limit,
		ResetAt: w.resetAt,
		Allowed: w.count <= f.limit,
	}
}

// CleanupExpired drops windows that have reset and returns how many were removed.
func (f *FixedWindowStore) CleanupExpired() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	removed := 0
	for key, w := range f.windows {
		if now.After(w.resetAt) {
			delete(f.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (f *FixedWindowStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}
