// Package loader provides the plugin-like feature loading system.
//
// Each HTTP-facing feature (query, bulk, system) implements the Feature interface and
// registers its own route group. The start command builds the features from the shared
// engines and hands them to a Manager.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// # Manager
//
// The Manager struct holds the registry of available features. It handles:
//   - Registration of features via Register()
//   - Loading of enabled features via LoadAll(), in registration order
//
// Features can be switched off through configuration without touching the others.
package loader
