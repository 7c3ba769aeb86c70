package cache_test

import (
	"testing"
	"time"

	"batch-engine/core/cache"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTTLScorer(t *testing.T) {
	base := time.Minute

	tests := []struct {
		name  string
		shape cache.Shape
		want  time.Duration
	}{
		{"Plain", cache.Shape{}, time.Minute},
		{"SmallList", cache.Shape{IsList: true, Length: 100}, time.Minute},
		{"MediumList", cache.Shape{IsList: true, Length: 101}, 2 * time.Minute},
		{"LargeList", cache.Shape{IsList: true, Length: 1001}, 3 * time.Minute},
		{"Released", cache.Shape{Status: "released"}, 5 * time.Minute},
		{"ArchivedUpper", cache.Shape{Status: "ARCHIVED"}, 5 * time.Minute},
		{"Draft", cache.Shape{Status: "draft"}, time.Minute},
		{"NeverUpdated", cache.Shape{HasCreatedAt: true}, 3 * time.Minute},
		{"Updated", cache.Shape{HasCreatedAt: true, HasUpdatedAt: true}, time.Minute},
		{"ReleasedNeverUpdated", cache.Shape{Status: "released", HasCreatedAt: true}, 15 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cache.DefaultTTLScorer(base, tt.shape))
		})
	}

	t.Run("Clamped", func(t *testing.T) {
		got := cache.DefaultTTLScorer(10*time.Minute, cache.Shape{Status: "released", HasCreatedAt: true})
		assert.Equal(t, cache.MaxTTL, got)
	})
}

type shapedValue struct{ status string }

func (s shapedValue) CacheShape() cache.Shape { return cache.Shape{Status: s.status} }

func TestAdaptiveCache_ShaperTTL(t *testing.T) {
	clock := newFakeClock()
	c, err := cache.New[shapedValue](cache.Config{BaseTTLSeconds: 60},
		cache.WithClock[shapedValue](clock.Now))
	assert.NoError(t, err)

	c.Set("released", shapedValue{status: "released"})
	c.Set("draft", shapedValue{status: "draft"})

	clock.Advance(2 * time.Minute)
	_, ok := c.Get("released")
	assert.True(t, ok)
	_, ok = c.Get("draft")
	assert.False(t, ok)
}

func TestAdaptiveCache_CustomScorer(t *testing.T) {
	clock := newFakeClock()
	c, err := cache.New[int](cache.Config{},
		cache.WithClock[int](clock.Now),
		cache.WithTTLScorer[int](func(time.Duration, cache.Shape) time.Duration { return time.Second }))
	assert.NoError(t, err)

	c.Set("k", 1)
	clock.Advance(time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
}
