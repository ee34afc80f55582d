// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source for window tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[[]float32](3, time.Minute)

	c.Add("a", []float32{1})
	c.Add("b", []float32{2})
	c.Add("c", []float32{3})

	v, ok := c.Get("b")
	if !ok || v[0] != 2 {
		t.Errorf("Get(b) = %v, %v; want [2], true", v, ok)
	}
	if c.Len() != 3 {
		t.Errorf("Expected len 3, got %d", c.Len())
	}
	if !c.Remove("a") || c.Remove("a") {
		t.Error("Remove should report presence exactly once")
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[int](3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	// Touch a so b becomes least recently used
	c.Get("a")
	c.Add("d", 4)

	if _, found := c.Get("b"); found {
		t.Error("Expected 'b' to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, found := c.Get(k); !found {
			t.Errorf("Expected %q to be present", k)
		}
	}
}

func TestLRU_TTLExpiration(t *testing.T) {
	clock := newFakeClock()
	c := NewLRU[string](10, time.Minute)
	c.now = clock.Now

	c.Add("q", "embedding")
	if _, found := c.Get("q"); !found {
		t.Fatal("Expected to find key immediately")
	}

	clock.Advance(61 * time.Second)
	if _, found := c.Get("q"); found {
		t.Error("Expected key to expire")
	}
	if c.Len() != 0 {
		t.Errorf("Expired entry should be dropped, len = %d", c.Len())
	}
}

func TestLRU_UpdateRefreshes(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("a", 10) // refresh makes b the eviction candidate
	c.Add("c", 3)

	if v, ok := c.Get("a"); !ok || v != 10 {
		t.Errorf("Get(a) = %d, %v; want 10, true", v, ok)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("Expected 'b' to be evicted")
	}
}

func TestLRU_PurgeAndStats(t *testing.T) {
	c := NewLRU[int](4, time.Minute)
	c.Add("a", 1)
	c.Get("a")
	c.Get("missing")
	c.Purge()

	stats := c.Stats()
	if stats.Size != 0 || stats.Capacity != 4 {
		t.Errorf("unexpected stats after purge: %+v", stats)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int](64, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := strconv.Itoa((g * 200) + i)
				c.Add(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Errorf("capacity exceeded: %d", c.Len())
	}
}
