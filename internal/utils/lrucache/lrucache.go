// Package lrucache wraps hashicorp's LRU cache with a typed API.
package lrucache

import lru "github.com/hashicorp/golang-lru"

// Cache is a size-bounded, least-recently-used cache. It is safe for
// concurrent use.
type Cache[K comparable, V any] struct {
	cache *lru.Cache
}

// NewCache creates a cache holding at most size entries. Non-positive sizes
// are raised to one.
func NewCache[K comparable, V any](size int) *Cache[K, V] {
	if size < 1 {
		size = 1
	}
	c, _ := lru.New(size)
	return &Cache[K, V]{
		cache: c,
	}
}

// Get looks up a key's value, marking it as recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		var out V
		return out, false
	}
	return v.(V), true
}

// Set stores the value, evicting the least recently used entry if full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.cache.Add(key, value)
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	return c.cache.Len()
}
