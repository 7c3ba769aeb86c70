package cache

// Config holds configuration for the adaptive cache.
type Config struct {
	// MaxSize is the maximum number of entries kept in memory.
	MaxSize int `mapstructure:"max_size" default:"1000"`
	// BaseTTLSeconds is the starting lifetime fed to the TTL heuristic.
	BaseTTLSeconds int `mapstructure:"base_ttl_seconds" default:"300"`
	// Strategy is the eviction policy (lru, fifo, ttl).
	Strategy string `mapstructure:"strategy" default:"lru"`
	// CleanupIntervalSeconds is how often the janitor sweeps expired entries.
	// Zero disables the janitor.
	CleanupIntervalSeconds int `mapstructure:"cleanup_interval_seconds" default:"60"`
}
