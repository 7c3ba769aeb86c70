// Package entities is a GORM-backed entity collaborator.
//
// Store answers the same "get_<type>" and "update_<type>" operations as the remote
// product-management backend and returns the same text envelope, so the query and bulk
// engines can run against a local database. Entities of every type share one table
// keyed by (type, id).
//
// # Reads
//
// get_<type> accepts:
//   - id: a single entity, returned under "data". Unknown ids fail with KindNotFound.
//   - ids: restrict a list to these ids.
//   - status: exact status filter.
//   - fields: projection (slice or comma-separated string); "id" is always kept.
//   - limit / offset: paging. totalRecords counts matches before paging.
//
// # Writes
//
// update_<type> takes the entity id, an optional expectedVersion and the changes as
// the remaining keys. name, status and archived are columns; customFields is merged
// key by key (null deletes); every other key lands in the free-form attribute set.
// A stale expectedVersion fails with KindValidation and changes nothing.
package entities
