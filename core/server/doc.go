// Package server holds the HTTP server configuration.
//
// The start command owns the listener; this package only translates configuration into
// a fiber.Config (timeouts, body limit) and a listen address. The API key is read by
// the auth middleware.
package server
