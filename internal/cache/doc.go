// Package cache provides the bounded LRU cache used to keep library files
// in memory between lookups.
//
//	c := cache.New[string, int](100, nil)
//	c.Add("key", 42)
//	value, ok := c.Get("key")
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
