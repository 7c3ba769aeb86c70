// Package metrics provides the passive instrumentation shared by the engines.
//
// Collector records per-operation call counts, error counts and durations. It keeps a
// small in-process snapshot for health reports and mirrors every observation into a
// private Prometheus registry that the system feature exposes over HTTP. Collector also
// implements cache.Observer so hits, misses and evictions show up next to operation
// timings.
//
// MemoryMonitor reads runtime memory statistics, compares heap usage against a threshold
// and can force a garbage collection.
//
// All Collector methods are safe on a nil receiver, so engines can run without
// instrumentation in tests.
//
// # Usage
//
//	m := metrics.NewCollector("batch_engine")
//	done := m.Track("check_multiple_status")
//	summary, err := engine.CheckMultipleStatus(ctx, "features", ids)
//	done(err)
package metrics
