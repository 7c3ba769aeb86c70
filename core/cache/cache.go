package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Observer receives cache events, typically to feed metrics.
type Observer interface {
	CacheHit()
	CacheMiss()
	CacheEviction()
}

// Option configures an AdaptiveCache.
type Option[T any] func(*AdaptiveCache[T])

// WithClock replaces the time source. Used by tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *AdaptiveCache[T]) {
		c.now = now
	}
}

// WithTTLScorer replaces DefaultTTLScorer.
func WithTTLScorer[T any](scorer TTLScorer) Option[T] {
	return func(c *AdaptiveCache[T]) {
		c.scorer = scorer
	}
}

// WithObserver registers an observer for hits, misses and evictions.
func WithObserver[T any](o Observer) Option[T] {
	return func(c *AdaptiveCache[T]) {
		c.observer = o
	}
}

// AdaptiveCache is a bounded in-memory cache with policy-driven eviction
// and heuristic TTLs. It is safe for concurrent use.
type AdaptiveCache[T any] struct {
	mu       sync.Mutex
	entries  map[string]*Entry[T]
	policy   EvictionPolicy
	maxSize  int
	baseTTL  time.Duration
	scorer   TTLScorer
	now      func() time.Time
	observer Observer

	hits      int64
	misses    int64
	evictions int64

	sf singleflight.Group
}

// New creates an AdaptiveCache from configuration.
// Zero values fall back to 1000 entries, a 5 minute base TTL and LRU eviction.
func New[T any](cfg Config, opts ...Option[T]) (*AdaptiveCache[T], error) {
	policy, err := NewPolicy(Strategy(cfg.Strategy))
	if err != nil {
		return nil, err
	}

	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 1000
	}
	base := time.Duration(cfg.BaseTTLSeconds) * time.Second
	if base <= 0 {
		base = 5 * time.Minute
	}

	c := &AdaptiveCache[T]{
		entries: make(map[string]*Entry[T]),
		policy:  policy,
		maxSize: maxSize,
		baseTTL: base,
		scorer:  DefaultTTLScorer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the value for key. An expired entry is deleted and counted as a miss.
func (c *AdaptiveCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	entry, ok := c.entries[key]
	if !ok {
		c.recordMiss()
		return zero, false
	}

	now := c.now()
	if entry.expired(now) {
		c.removeLocked(key)
		c.recordMiss()
		return zero, false
	}

	entry.AccessCount++
	entry.LastAccessedAt = now
	c.policy.Accessed(key)
	c.recordHit()
	return entry.Data, true
}

// Set stores value with a TTL computed by the scorer.
func (c *AdaptiveCache[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value with an explicit TTL. A non-positive ttl uses the scorer.
func (c *AdaptiveCache[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.scorer(c.baseTTL, shapeOf(value))
	}
	size := estimateSize(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	// Replacing a key must not push out an unrelated entry.
	if _, exists := c.entries[key]; exists {
		c.removeLocked(key)
	}

	for len(c.entries) >= c.maxSize {
		if !c.evictLocked(now) {
			break
		}
	}

	c.entries[key] = &Entry[T]{
		Data:           value,
		InsertedAt:     now,
		TTL:            ttl,
		LastAccessedAt: now,
		EstimatedSize:  size,
	}
	c.policy.Added(key)
}

// Delete removes key. It reports whether the key was present.
func (c *AdaptiveCache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	c.removeLocked(key)
	return true
}

// GetOrLoad returns the cached value for key or calls load once per key across
// concurrent callers. The loaded value is stored only when load reports it as cacheable.
// The second return value reports whether the value came from the cache.
//
// The shared load runs detached from the caller's cancellation, so one caller giving
// up does not fail the others. Each caller still returns ctx.Err() as soon as its own
// ctx is done.
func (c *AdaptiveCache[T]) GetOrLoad(
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (T, bool, error),
) (T, bool, error) {
	var zero T
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (interface{}, error) {
		value, cacheable, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if cacheable {
			c.SetWithTTL(key, value, ttl)
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		value, _ := res.Val.(T)
		return value, false, nil
	}
}

// ClearExpired removes every expired entry and returns how many were removed.
func (c *AdaptiveCache[T]) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries. Hit and miss counters are kept.
func (c *AdaptiveCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry[T])
	c.policy.Reset()
}

// Size returns the number of physically present entries, expired or not.
func (c *AdaptiveCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the keys currently held.
func (c *AdaptiveCache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// StartJanitor sweeps expired entries every interval until ctx is done.
func (c *AdaptiveCache[T]) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.ClearExpired()
			}
		}
	}()
}

// evictLocked removes the policy's victim. Must be called with the lock held.
func (c *AdaptiveCache[T]) evictLocked(now time.Time) bool {
	victim, ok := c.policy.Victim(func(key string) time.Duration {
		if entry, exists := c.entries[key]; exists {
			return entry.remaining(now)
		}
		return 0
	})
	if !ok {
		return false
	}
	c.removeLocked(victim)
	c.evictions++
	if c.observer != nil {
		c.observer.CacheEviction()
	}
	return true
}

func (c *AdaptiveCache[T]) removeLocked(key string) {
	delete(c.entries, key)
	c.policy.Removed(key)
}

func (c *AdaptiveCache[T]) recordHit() {
	c.hits++
	if c.observer != nil {
		c.observer.CacheHit()
	}
}

func (c *AdaptiveCache[T]) recordMiss() {
	c.misses++
	if c.observer != nil {
		c.observer.CacheMiss()
	}
}

// estimateSize approximates the memory footprint of v by its JSON length.
func estimateSize(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return len(fmt.Sprintf("%v", v))
	}
	return len(data)
}
