package cache

import "sync"

// Cache is a generic LRU cache holding at most capacity entries. When an
// insertion exceeds the capacity, the least recently used entry is
// evicted and passed to the eviction callback.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*entry[K, V]
	order    ring[K, V]
	capacity int
	onEvict  func(K, V)

	hits, misses, evictions uint64
}

// New creates a cache bounded to capacity entries. A capacity of 0 means
// unlimited. onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *Cache[K, V] {
	c := &Cache[K, V]{
		entries:  make(map[K]*entry[K, V]),
		capacity: capacity,
		onEvict:  onEvict,
	}
	c.order.init()
	return c
}

// Get retrieves a value and marks it as recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.touch(e)
	return e.value, true
}

// Add stores a value, replacing any previous value for key.
func (c *Cache[K, V]) Add(key K, value V) {
	type pair struct {
		key   K
		value V
	}
	var evicted []pair
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.order.touch(e)
	} else {
		e := &entry[K, V]{key: key, value: value}
		c.entries[key] = e
		c.order.insertFront(e)
		for c.capacity > 0 && c.order.len() > c.capacity {
			old := c.order.oldest()
			c.order.unlink(old)
			delete(c.entries, old.key)
			evicted = append(evicted, pair{old.key, old.value})
			c.evictions++
		}
	}
	fn := c.onEvict
	c.mu.Unlock()

	// The callback runs unlocked so it may use the cache.
	if fn != nil {
		for _, e := range evicted {
			fn(e.key, e.value)
		}
	}
}

// Remove deletes an entry without calling the eviction callback.
// It returns true if the entry was present.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.unlink(e)
	delete(c.entries, key)
	return true
}

// Purge evicts every entry, calling the eviction callback for each.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[K]*entry[K, V])
	c.order.init()
	fn := c.onEvict
	c.mu.Unlock()

	if fn != nil {
		for k, e := range entries {
			fn(k, e.value)
		}
	}
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the maximum number of entries, 0 for unlimited.
	Capacity int
	// Hits is the number of successful lookups.
	Hits uint64
	// Misses is the number of failed lookups.
	Misses uint64
	// HitRate is Hits over all lookups, 0.0 to 1.0.
	HitRate float64
	// Evictions is the number of entries dropped to respect Capacity.
	Evictions uint64
}
