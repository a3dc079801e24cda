// Package cache provides the small per-process TTL caches the aggregation
// service owns. Entries expire lazily on read; there is no background
// eviction and no cross-instance coordination, so separate instances may
// briefly disagree on cached values within the TTL window.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// TTLCache is a keyed cache whose entries go stale after a fixed TTL.
// Concurrent recomputation of the same key is tolerated: values are
// deterministic for the same inputs, so the last writer stores an
// equivalent value.
type TTLCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[V]
	now     func() time.Time
}

// New creates a TTLCache with the given entry lifetime.
func New[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get returns the cached value for key if one exists and is younger than
// the TTL. Stale entries are dropped on read.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.createdAt) > c.ttl {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores a value under key, resetting its age.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, createdAt: c.now()}
}

// Len returns the number of entries currently held, including any that
// have gone stale but not yet been read.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
