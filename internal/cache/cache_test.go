package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestCacheGetAdd(t *testing.T) {
	c := New[string, int](10, nil)

	c.Add("key1", 42)

	val, ok := c.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}

	if _, ok = c.Get("nonexistent"); ok {
		t.Error("expected nonexistent key to not exist")
	}
}

func TestCacheReplace(t *testing.T) {
	c := New[string, int](2, nil)
	c.Add("a", 1)
	c.Add("a", 2)

	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("expected 2, got %d", v)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })

	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a")
	c.Add("c", 3)

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("expected b evicted, got %v", evicted)
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive, it was used last")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should be gone")
	}
}

func TestCacheRemove(t *testing.T) {
	called := false
	c := New[string, int](0, func(string, int) { called = true })
	c.Add("a", 1)

	if !c.Remove("a") {
		t.Error("expected Remove to report the entry")
	}
	if c.Remove("a") {
		t.Error("second Remove should report false")
	}
	if called {
		t.Error("Remove must not call the eviction callback")
	}
}

func TestCachePurge(t *testing.T) {
	count := 0
	c := New[int, int](0, func(int, int) { count++ })
	for i := range 5 {
		c.Add(i, i)
	}
	c.Purge()

	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
	if count != 5 {
		t.Errorf("expected 5 evictions, got %d", count)
	}
}

func TestCacheStats(t *testing.T) {
	c := New[string, int](1, nil)
	c.Add("a", 1)
	c.Get("a")
	c.Get("b")
	c.Add("b", 2)

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", s.Hits, s.Misses)
	}
	if s.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", s.Evictions)
	}
	if s.HitRate != 0.5 {
		t.Errorf("hit rate = %v, want 0.5", s.HitRate)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := New[string, int](64, nil)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := strconv.Itoa(g*100 + i)
				c.Add(key, i)
				c.Get(key)
			}
		}()
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("cache grew past its capacity: %d", c.Len())
	}
}
