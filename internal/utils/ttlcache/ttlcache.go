// Package ttlcache provides a cache bounded both by the number of entries
// and by their age.
package ttlcache

import (
	"time"

	"github.com/google/btree"
)

type entry[K comparable, V any] struct {
	key        K
	value      V
	seq        uint64
	expiration time.Time
}

// Cache maps keys to values. When full, inserting a new key evicts the
// least recently inserted entry; GC drops entries older than the ttl.
// Reads do not refresh entries.
//
// Cache is not safe for concurrent use.
type Cache[K comparable, V any] struct {
	capacity int
	ttl      time.Duration

	items map[K]*entry[K, V]
	order *btree.BTreeG[*entry[K, V]] // by insertion
	seq   uint64
}

// New creates a cache holding at most capacity entries for at most ttl.
func New[K comparable, V any](capacity int, ttl time.Duration) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[K]*entry[K, V]),
		order: btree.NewG(16, func(a, b *entry[K, V]) bool {
			return a.seq < b.seq
		}),
	}
}

// Insert stores the value under key as of now. Re-inserting a key refreshes
// its position and age.
func (c *Cache[K, V]) Insert(key K, value V, now time.Time) {
	if e, ok := c.items[key]; ok {
		c.order.Delete(e)
	} else if len(c.items) >= c.capacity {
		if oldest, ok := c.order.DeleteMin(); ok {
			delete(c.items, oldest.key)
		}
	}
	c.seq++
	e := &entry[K, V]{key: key, value: value, seq: c.seq, expiration: now.Add(c.ttl)}
	c.items[key] = e
	c.order.ReplaceOrInsert(e)
}

// Get retrieves the value stored under key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Remove deletes the key, returning the value it held.
func (c *Cache[K, V]) Remove(key K) (V, bool) {
	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.items, key)
	c.order.Delete(e)
	return e.value, true
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	return len(c.items)
}

// GC drops every entry that expired at or before now, returning how many
// were dropped.
func (c *Cache[K, V]) GC(now time.Time) int {
	var expired []*entry[K, V]
	c.order.Ascend(func(e *entry[K, V]) bool {
		if e.expiration.After(now) {
			return false
		}
		expired = append(expired, e)
		return true
	})
	for _, e := range expired {
		delete(c.items, e.key)
		c.order.Delete(e)
	}
	return len(expired)
}
