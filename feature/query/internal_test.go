package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "0 tasks", statusLine(0, "tasks", map[string]int{}))
	assert.Equal(t, "3 tasks: 1 a, 1 b, 1 c", statusLine(3, "tasks", map[string]int{"c": 1, "a": 1, "b": 1}))
	assert.Equal(t, "5 tasks: 3 open, 2 done", statusLine(5, "tasks", map[string]int{"done": 2, "open": 3}))
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, StatusHealthy, overallStatus(HealthChecks{API: true, Cache: true, Memory: true}))
	assert.Equal(t, StatusDegraded, overallStatus(HealthChecks{API: false, Cache: true, Memory: true}))
	assert.Equal(t, StatusDegraded, overallStatus(HealthChecks{API: true, Cache: true, Memory: false}))
	assert.Equal(t, StatusUnhealthy, overallStatus(HealthChecks{API: false, Cache: false, Memory: true}))
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("op", "features", []string{"b", "a"}, nil)
	b := cacheKey("op", "features", []string{"a", "b"}, nil)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, cacheKey("op", "tasks", []string{"a", "b"}, nil))
	assert.NotEqual(t, a, cacheKey("op", "features", []string{"a", "b"}, ProgressOptions{Marker: "x"}))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "0.0%", percentage(0, 0))
	assert.Equal(t, "66.7%", percentage(2, 3))
	assert.Equal(t, "100.0%", percentage(4, 4))
}
