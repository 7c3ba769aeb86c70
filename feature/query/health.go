package query

import (
	"context"
	"time"

	"batch-engine/core/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HealthCheck probes the collaborator, the cache and memory concurrently.
// It never fails; problems are reported in the result. The cache round-trip runs
// on a private one-entry cache, so a check never evicts or counts against cached results.
func (e *Engine) HealthCheck(ctx context.Context) *HealthReport {
	start := time.Now()
	done := e.metrics.Track("health_check")

	var (
		report   = &HealthReport{Timestamp: start.UTC()}
		apiErr   error
		cacheErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		apiErr = e.probeAPI(ctx)
		report.Checks.API = apiErr == nil
		return nil
	})
	g.Go(func() error {
		cacheErr = e.probeCache()
		report.Checks.Cache = cacheErr == nil
		return nil
	})
	g.Go(func() error {
		report.Checks.Memory, report.Memory = e.memory.Check()
		return nil
	})
	_ = g.Wait()

	report.Cache = e.cache.Stats()
	report.Status = overallStatus(report.Checks)
	report.ResponseTimeMs = time.Since(start).Milliseconds()

	errs := make(map[string]string)
	if apiErr != nil {
		errs["api"] = apiErr.Error()
	}
	if cacheErr != nil {
		errs["cache"] = cacheErr.Error()
	}
	if !report.Checks.Memory {
		errs["memory"] = "heap usage " + report.Memory.HeapAlloc + " exceeds " + report.Memory.Threshold
	}
	if len(errs) > 0 {
		report.Errors = errs
	}

	if report.Status != StatusHealthy {
		e.logger.Warn("Health check not healthy",
			zap.String("status", report.Status),
			zap.Any("errors", errs))
	}
	done(nil)
	return report
}

// probeAPI prefers a dedicated Ping and falls back to a minimal list call.
func (e *Engine) probeAPI(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.healthTimeout)
	defer cancel()

	if p, ok := e.handler.(entity.Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := e.handler.Handle(ctx, entity.GetOp(e.healthType), map[string]any{"limit": 1})
	return err
}

// probeCache writes, reads and deletes a throwaway key on the probe cache.
// The shared cache is only read through Stats.
func (e *Engine) probeCache() error {
	key := "health:" + uuid.NewString()
	want := time.Now().UnixNano()

	e.probe.SetWithTTL(key, want, 10*time.Second)
	defer e.probe.Delete(key)

	got, ok := e.probe.Get(key)
	if !ok {
		return errCacheProbe("value not readable after write")
	}
	if got != want {
		return errCacheProbe("value changed after write")
	}
	return nil
}

type errCacheProbe string

func (e errCacheProbe) Error() string { return "cache round-trip failed: " + string(e) }

func overallStatus(c HealthChecks) string {
	switch {
	case c.API && c.Cache && c.Memory:
		return StatusHealthy
	case !c.API && !c.Cache:
		return StatusUnhealthy
	default:
		return StatusDegraded
	}
}
