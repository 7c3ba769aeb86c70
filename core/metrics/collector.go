package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// OperationStats summarises every call of one operation since the last reset.
type OperationStats struct {
	Operation string        `json:"operation"`
	Calls     int64         `json:"calls"`
	Errors    int64         `json:"errors"`
	Total     time.Duration `json:"totalNs"`
	Min       time.Duration `json:"minNs"`
	Max       time.Duration `json:"maxNs"`
	Average   time.Duration `json:"averageNs"`
	LastError string        `json:"lastError,omitempty"`
}

// Snapshot is a copy of the collector state.
type Snapshot struct {
	Since          time.Time        `json:"since"`
	Operations     []OperationStats `json:"operations"`
	CacheHits      int64            `json:"cacheHits"`
	CacheMisses    int64            `json:"cacheMisses"`
	CacheEvictions int64            `json:"cacheEvictions"`
}

// Collector records operation timings and cache events.
type Collector struct {
	mu          sync.Mutex
	since       time.Time
	ops         map[string]*OperationStats
	cacheHits   int64
	cacheMisses int64
	cacheEvicts int64

	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
	cache    *prometheus.CounterVec
}

// NewCollector creates a Collector with its own Prometheus registry.
// The registry also carries the Go runtime collector.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "batch_engine"
	}

	c := &Collector{
		since:    time.Now(),
		ops:      make(map[string]*OperationStats),
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of engine operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total engine operations by outcome",
		}, []string{"operation", "status"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache hits, misses and evictions",
		}, []string{"event"}),
	}

	c.registry.MustRegister(c.duration, c.calls, c.cache, collectors.NewGoCollector())
	return c
}

// Registry returns the Prometheus registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Track starts timing op. Call the returned function with the operation's error.
func (c *Collector) Track(op string) func(error) {
	start := time.Now()
	return func(err error) {
		c.Observe(op, time.Since(start), err)
	}
}

// Observe records one completed call of op.
func (c *Collector) Observe(op string, d time.Duration, err error) {
	if c == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	c.duration.WithLabelValues(op).Observe(d.Seconds())
	c.calls.WithLabelValues(op, status).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.ops[op]
	if !ok {
		s = &OperationStats{Operation: op, Min: d}
		c.ops[op] = s
	}
	s.Calls++
	s.Total += d
	if d < s.Min {
		s.Min = d
	}
	if d > s.Max {
		s.Max = d
	}
	s.Average = s.Total / time.Duration(s.Calls)
	if err != nil {
		s.Errors++
		s.LastError = err.Error()
	}
}

// CacheHit implements cache.Observer.
func (c *Collector) CacheHit() { c.cacheEvent("hit") }

// CacheMiss implements cache.Observer.
func (c *Collector) CacheMiss() { c.cacheEvent("miss") }

// CacheEviction implements cache.Observer.
func (c *Collector) CacheEviction() { c.cacheEvent("eviction") }

func (c *Collector) cacheEvent(event string) {
	if c == nil {
		return
	}
	c.cache.WithLabelValues(event).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	switch event {
	case "hit":
		c.cacheHits++
	case "miss":
		c.cacheMisses++
	case "eviction":
		c.cacheEvicts++
	}
}

// Snapshot returns a copy of the collected statistics, sorted by operation name.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ops := make([]OperationStats, 0, len(c.ops))
	for _, s := range c.ops {
		ops = append(ops, *s)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Operation < ops[j].Operation })

	return Snapshot{
		Since:          c.since,
		Operations:     ops,
		CacheHits:      c.cacheHits,
		CacheMisses:    c.cacheMisses,
		CacheEvictions: c.cacheEvicts,
	}
}

// Reset clears the in-process snapshot and the Prometheus series.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.duration.Reset()
	c.calls.Reset()
	c.cache.Reset()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.since = time.Now()
	c.ops = make(map[string]*OperationStats)
	c.cacheHits, c.cacheMisses, c.cacheEvicts = 0, 0, 0
}
