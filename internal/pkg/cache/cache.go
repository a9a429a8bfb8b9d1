package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"balance_valuer/internal/pkg/metrics"
)

// Cache is a bounded, TTL-aware cache shared across concurrent requests.
// Entries are evicted least-recently-used once capacity is reached. A ttl of
// zero disables expiry, leaving the cache capacity-bounded only.
type Cache[K comparable, V any] struct {
	name string
	lru  *expirable.LRU[K, V]
}

// New creates a cache with the given entry capacity and ttl. The name labels
// hit/miss metrics.
func New[K comparable, V any](name string, capacity int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		name: name,
		lru:  expirable.NewLRU[K, V](capacity, nil, ttl),
	}
}

// Get returns the cached value for key if present and not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		metrics.CacheHits.WithLabelValues(c.name).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
	}
	return v, ok
}

// Add stores value under key, overwriting any previous entry.
func (c *Cache[K, V]) Add(key K, value V) {
	c.lru.Add(key, value)
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache[K, V]) Purge() {
	c.lru.Purge()
}
