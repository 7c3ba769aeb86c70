// Package bulk applies batches of entity updates and reports what changed.
//
// PerformBulkUpdate splits updates into batches that run on a bounded pool.
// Inside a batch items are processed one after the other: an optional before
// snapshot, the update itself, and a structural diff of the two snapshots.
// An item whose before snapshot is not found is skipped rather than failed.
//
// CompareEntities is the read-only counterpart. It merges proposed changes into
// the current state locally and diffs the result without writing anything.
//
// Results that contain changes can be archived to object storage with Archive.
package bulk
