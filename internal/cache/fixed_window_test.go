// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package cache

import (
	"testing"
	"time"
)

func TestFixedWindowStore_Hit(t *testing.T) {
	clock := newFakeClock()
	f := NewFixedWindowStore(3, time.Hour)
	f.now = clock.Now
	start := clock.Now()

	tests := []struct {
		wantCount     int
		wantAllowed   bool
		wantRemaining int
	}{
		{1, true, 2},
		{2, true, 1},
		{3, true, 0},
		{4, false, 0},
		{5, false, 0},
	}

	for i, tt := range tests {
		st := f.Hit("203.0.113.7")
		if st.Count != tt.wantCount || st.Allowed != tt.wantAllowed || st.Remaining() != tt.wantRemaining {
			t.Errorf("hit %d: got count=%d allowed=%v remaining=%d, want %d/%v/%d",
				i+1, st.Count, st.Allowed, st.Remaining(), tt.wantCount, tt.wantAllowed, tt.wantRemaining)
		}
		if !st.ResetAt.Equal(start.Add(time.Hour)) {
			t.Errorf("hit %d: ResetAt moved to %v", i+1, st.ResetAt)
		}
		clock.Advance(time.Minute)
	}
}

func TestFixedWindowStore_Reset(t *testing.T) {
	clock := newFakeClock()
	f := NewFixedWindowStore(1, time.Minute)
	f.now = clock.Now

	f.Hit("k")
	if st := f.Hit("k"); st.Allowed {
		t.Fatal("second hit should be rejected")
	}

	// Window resets only strictly after resetAt
	clock.Advance(time.Minute)
	if st := f.Hit("k"); st.Allowed {
		t.Error("window should still be active at the reset instant")
	}
	clock.Advance(time.Second)
	st := f.Hit("k")
	if !st.Allowed || st.Count != 1 {
		t.Errorf("after reset: allowed=%v count=%d, want true/1", st.Allowed, st.Count)
	}
}

func TestFixedWindowStore_CleanupExpired(t *testing.T) {
	clock := newFakeClock()
	f := NewFixedWindowStore(10, time.Minute)
	f.now = clock.Now

	f.Hit("a")
	clock.Advance(30 * time.Second)
	f.Hit("b")
	clock.Advance(45 * time.Second)

	if removed := f.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired removed %d, want 1", removed)
	}
	if f.Len() != 1 {
		t.Errorf("Len = %d, want 1", f.Len())
	}
}
