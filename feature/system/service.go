package system

import (
	"context"

	"batch-engine/core/cache"
	"batch-engine/core/metrics"
	"batch-engine/feature/query"

	"go.uber.org/zap"
)

// Stats is the JSON view of the process instrumentation.
type Stats struct {
	Performance metrics.Snapshot    `json:"performance"`
	Cache       cache.Stats         `json:"cache"`
	Memory      metrics.MemoryStats `json:"memory"`
}

// CacheClearResult reports what ClearCache removed.
type CacheClearResult struct {
	Removed int `json:"removed"`
}

// Service runs the maintenance operations shared by the HTTP and MCP surfaces.
type Service struct {
	query     *query.Engine
	collector *metrics.Collector
	memory    *metrics.MemoryMonitor
	logger    *zap.Logger
}

// NewService creates a Service. A nil memory monitor uses the default threshold.
func NewService(q *query.Engine, collector *metrics.Collector, memory *metrics.MemoryMonitor, logger *zap.Logger) *Service {
	if memory == nil {
		memory = metrics.NewMemoryMonitor(0)
	}
	return &Service{query: q, collector: collector, memory: memory, logger: logger}
}

// Health runs the query engine health check.
func (s *Service) Health(ctx context.Context) *query.HealthReport {
	return s.query.HealthCheck(ctx)
}

// Stats returns the current instrumentation.
func (s *Service) Stats() Stats {
	return Stats{
		Performance: s.collector.Snapshot(),
		Cache:       s.query.Cache().Stats(),
		Memory:      s.memory.Stats(),
	}
}

// ClearCache drops every cached query result.
func (s *Service) ClearCache() CacheClearResult {
	c := s.query.Cache()
	n := c.Size()
	c.Clear()
	s.logger.Info("Cache cleared", zap.Int("removed", n))
	return CacheClearResult{Removed: n}
}

// ClearMetrics resets the collector and the cache counters.
func (s *Service) ClearMetrics() {
	s.collector.Reset()
	s.query.Cache().ResetStats()
	s.logger.Info("Metrics cleared")
}

// ForceGC runs a garbage collection and reports the freed heap.
func (s *Service) ForceGC() metrics.GCReport {
	report := s.memory.ForceGC()
	s.logger.Info("Garbage collection forced",
		zap.String("heap_before", report.Before.HeapAlloc),
		zap.String("heap_after", report.After.HeapAlloc),
		zap.String("freed", report.Freed))
	return report
}

// Collector returns the metrics collector.
func (s *Service) Collector() *metrics.Collector { return s.collector }
