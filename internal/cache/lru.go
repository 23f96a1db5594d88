// Package cache provides the bounded, fingerprint-keyed memoization used by
// every computation stage. Each stage owns its own LRU instance; nothing is
// global, and Reset clears both entries and instrumentation.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats is a point-in-time snapshot of an LRU's instrumentation counters.
type Stats struct {
	Hits   int64
	Misses int64
	Len    int
}

// LRU is a bounded least-recently-used cache with hit/miss counters. It is
// safe for concurrent use. Stored values must be treated as immutable.
type LRU[K comparable, V any] struct {
	inner  *lru.Cache[K, V]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewLRU creates a cache holding at most size entries. A non-positive size
// is raised to 1.
func NewLRU[K comparable, V any](size int) *LRU[K, V] {
	if size < 1 {
		size = 1
	}
	inner, err := lru.New[K, V](size)
	if err != nil {
		// lru.New only fails for non-positive sizes, excluded above.
		panic(err)
	}
	return &LRU[K, V]{inner: inner}
}

// Get returns the cached value for key and records a hit or miss.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	v, ok := c.inner.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Add stores value under key, evicting the least recently used entry when full.
func (c *LRU[K, V]) Add(key K, value V) {
	c.inner.Add(key, value)
}

// GetOrCompute returns the cached value for key, or computes, stores and
// returns it. Concurrent misses on the same key may compute twice; both
// results are identical for pure computations.
func (c *LRU[K, V]) GetOrCompute(key K, compute func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute()
	c.inner.Add(key, v)
	return v
}

// Stats returns the current counters and entry count.
func (c *LRU[K, V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.inner.Len(),
	}
}

// Reset purges every entry and zeroes the counters.
func (c *LRU[K, V]) Reset() {
	c.inner.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}
