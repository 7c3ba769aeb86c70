package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables auth.
	ApiKey string `mapstructure:"api_key" default:""`
	// ReadTimeoutSeconds bounds reading a request.
	ReadTimeoutSeconds int `mapstructure:"read_timeout_seconds" default:"30"`
	// WriteTimeoutSeconds bounds writing a response. Bulk updates can take a while.
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" default:"120"`
	// BodyLimitMB caps request bodies.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"8"`
}

// FiberConfig translates the settings into a fiber.Config.
func (c Config) FiberConfig() fiber.Config {
	cfg := fiber.Config{
		AppName:               "batch-engine",
		DisableStartupMessage: true,
	}
	if c.ReadTimeoutSeconds > 0 {
		cfg.ReadTimeout = time.Duration(c.ReadTimeoutSeconds) * time.Second
	}
	if c.WriteTimeoutSeconds > 0 {
		cfg.WriteTimeout = time.Duration(c.WriteTimeoutSeconds) * time.Second
	}
	if c.BodyLimitMB > 0 {
		cfg.BodyLimit = c.BodyLimitMB * 1024 * 1024
	}
	return cfg
}

// Address returns the listen address for Port.
func (c Config) Address() string {
	return ":" + c.Port
}
