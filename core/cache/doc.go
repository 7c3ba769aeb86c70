// Package cache provides the process-wide adaptive cache used by the query engine.
//
// AdaptiveCache is a generic, thread-safe key/value store with three properties
// that matter for batched entity lookups:
//
//   - A hard size bound. Eviction always runs before an insert, so the number of
//     entries never exceeds MaxSize after a Set.
//   - A pluggable eviction policy. LRU and FIFO share an access-order sequence;
//     TTL evicts the entry closest to expiry.
//   - Heuristic per-entry TTLs. A TTLScorer turns a small structural Shape of the
//     cached value into a lifetime, clamped to one hour.
//
// Expiration is lazy: an expired entry stays in memory until a Get, ClearExpired or
// the optional janitor sees it.
//
// # Usage
//
//	c, err := cache.New[any](cfg.Cache)
//	c.Set("status|features|...", summary)
//	v, ok := c.Get("status|features|...")
//
//	// Stampede-protected load
//	v, cached, err := c.GetOrLoad(ctx, key, 3*time.Minute, loader)
package cache
