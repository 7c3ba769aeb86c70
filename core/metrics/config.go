package metrics

// Config holds configuration for instrumentation.
type Config struct {
	// Namespace prefixes every exported Prometheus metric.
	Namespace string `mapstructure:"namespace" default:"batch_engine"`
	// HeapThresholdMB is the heap size above which memory is reported as unhealthy.
	HeapThresholdMB int `mapstructure:"heap_threshold_mb" default:"1536"`
}
