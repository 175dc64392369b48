// Package cache provides DetailCache, a bounded TTL cache with a get-or-compute entry point.
//
// Entries expire after a fixed TTL and the least recently used entry is evicted when the cache is
// full. Concurrent misses on one key share a single call to the compute function. Nothing is
// invalidated on local writes; readers may see data up to one TTL old.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// DetailCache memoizes remote lookups keyed by K.
type DetailCache[K comparable, V any] struct {
	lru   *expirable.LRU[K, V]
	group singleflight.Group
	name  string
}

// New creates a cache holding at most size entries for ttl each.
func New[K comparable, V any](name string, size int, ttl time.Duration) *DetailCache[K, V] {
	return &DetailCache[K, V]{
		lru:  expirable.NewLRU[K, V](size, nil, ttl),
		name: name,
	}
}

// Get returns the cached value for key, if present and not expired.
func (c *DetailCache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

// Add stores value under key.
func (c *DetailCache[K, V]) Add(key K, value V) {
	c.lru.Add(key, value)
}

// Len returns the number of live entries.
func (c *DetailCache[K, V]) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *DetailCache[K, V]) Purge() {
	c.lru.Purge()
}

// GetOrCompute returns the cached value for key or calls compute and caches its result.
//
// Errors are returned to every waiting caller and are not cached. The second return value
// reports whether the value came from the cache.
//
// compute runs detached from any single caller's cancellation so other callers sharing the flight
// still get its result. A caller whose ctx ends stops waiting and gets ctx.Err().
func (c *DetailCache[K, V]) GetOrCompute(ctx context.Context, key K, compute func(context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, true, nil
	}

	flightKey := fmt.Sprintf("%s:%v", c.name, key)
	flight := c.group.DoChan(flightKey, func() (any, error) {
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
		v, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return v, err
		}
		c.lru.Add(key, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return zero, false, res.Err
		}
		return res.Val.(V), false, nil
	}
}
