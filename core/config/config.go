package config

import (
	"reflect"
	"strings"

	"batch-engine/core/batch"
	"batch-engine/core/cache"
	"batch-engine/core/database"
	"batch-engine/core/logger"
	"batch-engine/core/metrics"
	"batch-engine/core/server"
	"batch-engine/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the entity store.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the bulk report archive.
	Storage storage.Config `mapstructure:"storage"`
	// Cache holds configuration for the shared adaptive cache.
	Cache cache.Config `mapstructure:"cache"`
	// Query holds batching settings for the query engine.
	Query batch.Config `mapstructure:"query"`
	// Bulk holds batching settings for the bulk engine.
	Bulk batch.Config `mapstructure:"bulk"`
	// Health holds configuration for health probes.
	Health HealthConfig `mapstructure:"health"`
	// Metrics holds configuration for instrumentation.
	Metrics metrics.Config `mapstructure:"metrics"`
	// Features toggles the HTTP features.
	Features FeaturesConfig `mapstructure:"features"`
}

// HealthConfig holds configuration for the health check.
type HealthConfig struct {
	// TimeoutSeconds bounds the API reachability probe.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"5"`
}

// FeaturesConfig switches HTTP features on and off.
type FeaturesConfig struct {
	Query  bool `mapstructure:"query" default:"true"`
	Bulk   bool `mapstructure:"bulk" default:"true"`
	System bool `mapstructure:"system" default:"true"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. QUERY_BATCH_SIZE -> query.batch_size)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
