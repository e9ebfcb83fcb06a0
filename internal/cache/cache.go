// Package cache provides short-lived memoization for idempotent upstream
// reads. Entries expire by TTL and the cache never grows beyond its
// configured maximum: on overflow the entry with the oldest creation time is
// evicted, deterministically, regardless of access patterns.
package cache

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// Stats is the externally visible view of one cache, served by the metrics
// endpoints and the admin surface.
type Stats struct {
	Name               string    `json:"name"`
	Size               int       `json:"size"`
	MaxSize            int       `json:"maxSize"`
	Hits               uint64    `json:"hits"`
	Misses             uint64    `json:"misses"`
	HitRatePercent     float64   `json:"hitRatePercent"`
	OldestCreationTime time.Time `json:"oldestCreationTime,omitzero"`
	NewestCreationTime time.Time `json:"newestCreationTime,omitzero"`
}

// Cache is a TTL cache from string keys to values of type V. All methods are
// safe for concurrent use.
type Cache[V any] struct {
	name    string
	maxSize int
	ttl     time.Duration

	inner  *ttlcache.Cache[string, V]
	group  singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64

	// mu serializes Set paths so the size bound and the oldest-entry
	// eviction stay exact under contention.
	mu sync.Mutex
}

// New creates a cache and starts its background expiry loop. Call Stop when
// the cache is no longer needed.
func New[V any](name string, maxSize int, ttl time.Duration) *Cache[V] {
	inner := ttlcache.New[string, V](
		ttlcache.WithTTL[string, V](ttl),
		ttlcache.WithDisableTouchOnHit[string, V](),
	)
	c := &Cache[V]{
		name:    name,
		maxSize: maxSize,
		ttl:     ttl,
		inner:   inner,
	}
	go inner.Start()
	return c
}

// Stop terminates the background expiry loop.
func (c *Cache[V]) Stop() {
	c.inner.Stop()
}

// Get returns the live value for key, if any.
func (c *Cache[V]) Get(key string) (V, bool) {
	item := c.inner.Get(key)
	if item == nil {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return item.Value(), true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, ttlcache.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL. If the cache is
// full and key is new, the entry with the oldest creation time is evicted
// first, so the size bound holds at all times.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxSize > 0 && !c.inner.Has(key) && c.inner.Len() >= c.maxSize {
		c.evictOldestLocked()
	}
	c.inner.Set(key, value, ttl)
}

// evictOldestLocked removes the entry with the oldest creation time. Touch
// on hit is disabled, so ExpiresAt minus TTL is the insertion time.
func (c *Cache[V]) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, item := range c.inner.Items() {
		createdAt := item.ExpiresAt().Add(-item.TTL())
		if oldestAt.IsZero() || createdAt.Before(oldestAt) {
			oldestAt = createdAt
			oldestKey = key
		}
	}
	if oldestKey != "" {
		c.inner.Delete(oldestKey)
	}
}

// GetOrFetch returns the cached value for key, or runs producer to fill it.
// Concurrent misses for the same key share a single producer call. A ttl of
// zero uses the cache default.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	if ttl <= 0 {
		ttl = ttlcache.DefaultTTL
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if item := c.inner.Get(key); item != nil {
			return item.Value(), nil
		}
		out, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		c.SetWithTTL(key, out, ttl)
		return out, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	if !c.inner.Has(key) {
		return false
	}
	c.inner.Delete(key)
	return true
}

// Clear removes every entry and returns how many were dropped.
func (c *Cache[V]) Clear() int {
	n := c.inner.Len()
	c.inner.DeleteAll()
	return n
}

// InvalidatePattern removes every entry whose key matches the regular
// expression and returns the number removed.
func (c *Cache[V]) InvalidatePattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, key := range c.inner.Keys() {
		if re.MatchString(key) {
			c.inner.Delete(key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.inner.Len()
}

// Stats returns a point-in-time view of the cache.
func (c *Cache[V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	s := Stats{
		Name:    c.name,
		Size:    c.inner.Len(),
		MaxSize: c.maxSize,
		Hits:    hits,
		Misses:  misses,
	}
	if total := hits + misses; total > 0 {
		s.HitRatePercent = float64(hits) / float64(total) * 100
	}
	for _, item := range c.inner.Items() {
		createdAt := item.ExpiresAt().Add(-item.TTL())
		if s.OldestCreationTime.IsZero() || createdAt.Before(s.OldestCreationTime) {
			s.OldestCreationTime = createdAt
		}
		if createdAt.After(s.NewestCreationTime) {
			s.NewestCreationTime = createdAt
		}
	}
	return s
}
