// Package cache provides a small in-process TTL cache used by the market and
// weather services to avoid hammering upstream data sources.
package cache

import (
	"sync"
	"time"
)

// entry is one cached value with its expiry deadline.
type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL is a concurrency-safe map whose entries expire after a fixed duration.
// Expired entries are dropped lazily on access and on Set.
type TTL[V any] struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]entry[V]

	// now is swappable for tests.
	now func() time.Time
}

// NewTTL creates a TTL cache whose entries live for d.
func NewTTL[V any](d time.Duration) *TTL[V] {
	return &TTL[V]{
		ttl: d,
		m:   make(map[string]entry[V]),
		now: time.Now,
	}
}

// Get returns the cached value for key and whether it was present and fresh.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expires) {
		delete(c.m, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with a fresh TTL, sweeping any entries that have
// already expired.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.m {
		if now.After(e.expires) {
			delete(c.m, k)
		}
	}
	c.m[key] = entry[V]{value: value, expires: now.Add(c.ttl)}
}
