package cache

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Entries             int        `json:"entries"`
	MaxSize             int        `json:"maxSize"`
	Strategy            Strategy   `json:"strategy"`
	Hits                int64      `json:"hits"`
	Misses              int64      `json:"misses"`
	Evictions           int64      `json:"evictions"`
	HitRate             float64    `json:"hitRate"`
	MemoryEstimateBytes uint64     `json:"memoryEstimateBytes"`
	MemoryEstimate      string     `json:"memoryEstimate"`
	OldestEntry         *time.Time `json:"oldestEntry,omitempty"`
	NewestEntry         *time.Time `json:"newestEntry,omitempty"`
	AvgAccessCount      float64    `json:"avgAccessCount"`
}

// Stats summarises the cache. HitRate is hits/(hits+misses), or 0 before any lookup.
func (c *AdaptiveCache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Entries:   len(c.entries),
		MaxSize:   c.maxSize,
		Strategy:  c.policy.Strategy(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}

	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}

	var (
		bytes    uint64
		accesses int64
		oldest   time.Time
		newest   time.Time
	)
	for _, entry := range c.entries {
		bytes += uint64(entry.EstimatedSize)
		accesses += entry.AccessCount
		if oldest.IsZero() || entry.InsertedAt.Before(oldest) {
			oldest = entry.InsertedAt
		}
		if newest.IsZero() || entry.InsertedAt.After(newest) {
			newest = entry.InsertedAt
		}
	}

	stats.MemoryEstimateBytes = bytes
	stats.MemoryEstimate = humanize.Bytes(bytes)
	if len(c.entries) > 0 {
		stats.OldestEntry = &oldest
		stats.NewestEntry = &newest
		stats.AvgAccessCount = float64(accesses) / float64(len(c.entries))
	}
	return stats
}

// ResetStats zeroes the hit, miss and eviction counters.
func (c *AdaptiveCache[T]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits, c.misses, c.evictions = 0, 0, 0
}
