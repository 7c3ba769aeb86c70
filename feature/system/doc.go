// Package system exposes health, metrics and maintenance endpoints: the
// health report, Prometheus metrics, a JSON stats view, and the cache,
// metrics and GC maintenance operations.
package system
