// Package query implements the batched lookup engine.
//
// Engine answers four questions about a list of entity ids in one call:
//
//   - CheckMultipleStatus: how many entities are in each status.
//   - ValidateExistence: which ids exist and which do not.
//   - TrackBatchProgress: how many entities satisfy a completion marker.
//   - GetEntityCount: how many entities match a filter, from a single limit=1 request.
//
// Every id-based query shares one skeleton. Ids are validated and deduplicated, a
// deterministic cache key is derived from the operation, the entity type, the sorted
// ids and any extra parameters, and on a cache miss the ids are split into batches that
// run on a bounded worker pool. A failing batch is logged and contributes nothing; the
// result is then marked Partial with FailedBatches set, and partial results are never
// cached.
//
// HealthCheck runs three probes concurrently (collaborator reachability, a cache
// round-trip and heap usage) and folds them into healthy, degraded or unhealthy.
//
// # Marker resolution
//
// TrackBatchProgress decides completion per entity by trying, in order:
//
//	customFields[marker] is truthy
//	marker "status:<value>"  -> entity status equals value
//	marker "<field>:<value>" -> entity field equals value
//	entity[marker] is truthy
package query
