package query

import (
	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	engine  *Engine
	handler *Handler
	enabled bool
}

// NewFeature creates the query feature around an existing engine.
func NewFeature(engine *Engine, enabled bool) *Feature {
	return &Feature{engine: engine, handler: NewHandler(engine), enabled: enabled}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "query"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
