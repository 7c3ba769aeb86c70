// Package middleware contains HTTP middleware for the Fiber application.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - auth: API key validation (X-API-Key header or bearer token), with public
//     path prefixes for probes such as the health endpoint.
//   - rayid: assigns every request a RayID, stores it in the context for
//     logger.WithRayID and echoes it in the X-Ray-ID response header.
//
// RayID must be registered first so every later log line carries the id.
package middleware
