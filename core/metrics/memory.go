package metrics

import (
	"runtime"
	"runtime/debug"

	"github.com/dustin/go-humanize"
)

// DefaultHeapThreshold is the heap size above which memory is considered unhealthy.
const DefaultHeapThreshold uint64 = 1536 * 1024 * 1024

// MemoryStats is a readable view of runtime memory.
type MemoryStats struct {
	HeapAllocBytes uint64 `json:"heapAllocBytes"`
	HeapAlloc      string `json:"heapAlloc"`
	HeapSysBytes   uint64 `json:"heapSysBytes"`
	HeapSys        string `json:"heapSys"`
	SysBytes       uint64 `json:"sysBytes"`
	Sys            string `json:"sys"`
	NumGC          uint32 `json:"numGC"`
	Goroutines     int    `json:"goroutines"`
	Threshold      string `json:"threshold"`
}

// GCReport describes the effect of a forced collection.
type GCReport struct {
	Before     MemoryStats `json:"before"`
	After      MemoryStats `json:"after"`
	FreedBytes uint64      `json:"freedBytes"`
	Freed      string      `json:"freed"`
}

// MemoryMonitor reads runtime memory statistics.
type MemoryMonitor struct {
	threshold uint64
	read      func(*runtime.MemStats)
}

// MemoryOption configures a MemoryMonitor.
type MemoryOption func(*MemoryMonitor)

// WithMemStatsReader replaces runtime.ReadMemStats. Used by tests.
func WithMemStatsReader(read func(*runtime.MemStats)) MemoryOption {
	return func(m *MemoryMonitor) {
		m.read = read
	}
}

// NewMemoryMonitor creates a monitor. A zero threshold uses DefaultHeapThreshold.
func NewMemoryMonitor(threshold uint64, opts ...MemoryOption) *MemoryMonitor {
	if threshold == 0 {
		threshold = DefaultHeapThreshold
	}
	m := &MemoryMonitor{threshold: threshold, read: runtime.ReadMemStats}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Stats returns the current memory statistics.
func (m *MemoryMonitor) Stats() MemoryStats {
	var ms runtime.MemStats
	m.read(&ms)
	return MemoryStats{
		HeapAllocBytes: ms.HeapAlloc,
		HeapAlloc:      humanize.Bytes(ms.HeapAlloc),
		HeapSysBytes:   ms.HeapSys,
		HeapSys:        humanize.Bytes(ms.HeapSys),
		SysBytes:       ms.Sys,
		Sys:            humanize.Bytes(ms.Sys),
		NumGC:          ms.NumGC,
		Goroutines:     runtime.NumGoroutine(),
		Threshold:      humanize.Bytes(m.threshold),
	}
}

// Check reports whether heap usage is below the threshold.
func (m *MemoryMonitor) Check() (bool, MemoryStats) {
	stats := m.Stats()
	return stats.HeapAllocBytes < m.threshold, stats
}

// ForceGC runs a collection, returns freed memory to the OS and reports the difference.
func (m *MemoryMonitor) ForceGC() GCReport {
	before := m.Stats()
	runtime.GC()
	debug.FreeOSMemory()
	after := m.Stats()

	var freed uint64
	if before.HeapAllocBytes > after.HeapAllocBytes {
		freed = before.HeapAllocBytes - after.HeapAllocBytes
	}
	return GCReport{
		Before:     before,
		After:      after,
		FreedBytes: freed,
		Freed:      humanize.Bytes(freed),
	}
}
