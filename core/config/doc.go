// Package config provides configuration management for the batch engine.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file (loaded with godotenv). Defaults come from the `default` struct
// tags of each section and are registered by reflection, so every key is also
// reachable through AutomaticEnv.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP port, API key, timeouts
//   - Log: Logging level and format
//   - Database: entity store driver and connection
//   - Storage: S3/MinIO settings for the bulk report archive
//   - Cache: adaptive cache size, base TTL and eviction strategy
//   - Query / Bulk: batch size, concurrency and rate limit per engine
//   - Health / Metrics: probe timeout, heap threshold, metric namespace
//   - Features: HTTP feature toggles
//
// Nested keys map to upper-case environment variables joined by underscores, for
// example QUERY_BATCH_SIZE sets query.batch_size.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
