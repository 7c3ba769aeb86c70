package batch

import (
	"golang.org/x/time/rate"
)

// Config holds batching settings for one engine.
type Config struct {
	// BatchSize is the number of items per chunk.
	BatchSize int `mapstructure:"batch_size" default:"0"`
	// Concurrency is the number of chunks processed at the same time.
	Concurrency int `mapstructure:"concurrency" default:"0"`
	// RequestsPerSecond limits chunk starts. Zero disables the limit.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" default:"0"`
}

// Normalize fills zero values with defaults and clamps BatchSize to maxSize.
func (c Config) Normalize(defSize, maxSize, defConcurrency int) Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defSize
	}
	if c.BatchSize > maxSize {
		c.BatchSize = maxSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defConcurrency
	}
	return c
}

// Limiter returns a limiter for RequestsPerSecond, or nil when unlimited.
func (c Config) Limiter() *rate.Limiter {
	if c.RequestsPerSecond <= 0 {
		return nil
	}
	burst := c.Concurrency
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.RequestsPerSecond), burst)
}
