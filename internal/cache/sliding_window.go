// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package cache

import (
	"sync"
	"time"
)

// SlidingLogStore keeps, per key, the timestamps of accepted events inside a
// trailing window. It backs the per-client request throttle: an event is
// admitted only while fewer than limit events fall inside the window, and a
// rejection reports how long until the oldest one leaves it.
type SlidingLogStore struct {
	mu      sync.Mutex
	logs    map[string][]time.Time
	limit   int
	window  time.Duration
	maxKeys int
	now     func() time.Time
}

// NewSlidingLogStore creates a store admitting limit events per window per key.
// maxKeys bounds memory; 0 means unlimited.
func NewSlidingLogStore(limit int, window time.Duration, maxKeys int) *SlidingLogStore {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingLogStore{
		logs:    make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

// Allow records an event for key if the key is under its limit. When the
// limit is reached it returns false and the time until a slot frees up.
func (s *SlidingLogStore) Allow(key string) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	log := s.prune(key, now)

	if len(log) >= s.limit {
		return false, log[0].Add(s.window).Sub(now)
	}

	if _, exists := s.logs[key]; !exists && s.maxKeys > 0 && len(s.logs) >= s.maxKeys {
		s.evictIdle(now)
	}
	s.logs[key] = append(log, now)
	return true, 0
}

// Count returns the number of events for key inside the window.
func (s *SlidingLogStore) Count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prune(key, s.now()))
}

// Len returns the number of tracked keys.
func (s *SlidingLogStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

// CleanupInactive drops keys with no events in the window and returns how
// many were removed.
func (s *SlidingLogStore) CleanupInactive() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key := range s.logs {
		if len(s.prune(key, now)) == 0 {
			delete(s.logs, key)
			removed++
		}
	}
	return removed
}

// prune drops timestamps older than the window. Caller holds mu.
func (s *SlidingLogStore) prune(key string, now time.Time) []time.Time {
	log := s.logs[key]
	i := 0
	for i < len(log) && now.Sub(log[i]) >= s.window {
		i++
	}
	if i == 0 {
		return log
	}
	log = append(log[:0], log[i:]...)
	if len(log) == 0 {
		delete(s.logs, key)
		return nil
	}
	s.logs[key] = log
	return log
}

// evictIdle frees room for a new key, preferring keys with no live events.
// Caller holds mu.
func (s *SlidingLogStore) evictIdle(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for key, log := range s.logs {
		if len(log) == 0 || now.Sub(log[len(log)-1]) >= s.window {
			delete(s.logs, key)
			return
		}
		if oldestKey == "" || log[len(log)-1].Before(oldest) {
			oldestKey, oldest = key, log[len(log)-1]
		}
	}
	delete(s.logs, oldestKey)
}
