package bulk

import (
	"time"

	"batch-engine/core/entity"
)

// Update is one requested change.
type Update struct {
	ID      string         `json:"id"`
	Changes map[string]any `json:"changes"`
	// ExpectedVersion is forwarded to the collaborator for optimistic locking.
	ExpectedVersion *int `json:"expectedVersion,omitempty"`
}

// UpdateOptions controls PerformBulkUpdate. Zero values use the engine defaults.
type UpdateOptions struct {
	BatchSize   int `json:"batchSize,omitempty"`
	Concurrency int `json:"concurrency,omitempty"`
	// TrackChanges fetches before snapshots and records diffs.
	TrackChanges bool `json:"trackChanges"`
	// ValidateBeforeUpdate rejects the whole request if any item is malformed.
	ValidateBeforeUpdate bool `json:"validateBeforeUpdate"`
	// ContinueOnError defaults to true. When false the first failed item
	// aborts the call.
	ContinueOnError *bool `json:"continueOnError,omitempty"`
}

func (o UpdateOptions) continueOnError() bool {
	return o.ContinueOnError == nil || *o.ContinueOnError
}

// UpdateRequest is the input of PerformBulkUpdate.
type UpdateRequest struct {
	EntityType string        `json:"entityType"`
	Updates    []Update      `json:"updates"`
	Options    UpdateOptions `json:"options"`
}

// FailedUpdate describes an item that could not be applied.
type FailedUpdate struct {
	ID           string           `json:"id"`
	Error        string           `json:"error"`
	Kind         entity.ErrorKind `json:"kind"`
	OriginalData map[string]any   `json:"originalData,omitempty"`
}

// ChangeRecord holds the snapshots around one applied update.
//
// Before and After come from two separate collaborator calls. A concurrent
// writer between them shows up in Diff as if this update had made the change.
type ChangeRecord struct {
	ID     string         `json:"id"`
	Before map[string]any `json:"before"`
	After  map[string]any `json:"after"`
	Diff   EntityDiff     `json:"diff"`
}

// Summary aggregates an UpdateResult.
type Summary struct {
	Total           int           `json:"total"`
	SuccessfulCount int           `json:"successfulCount"`
	FailedCount     int           `json:"failedCount"`
	SkippedCount    int           `json:"skippedCount"`
	ChangedCount    int           `json:"changedCount"`
	Batches         int           `json:"batches"`
	FailedBatches   int           `json:"failedBatches"`
	Duration        time.Duration `json:"-"`
	DurationMs      int64         `json:"durationMs"`
	AvgItemMs       float64       `json:"avgItemMs"`
}

// UpdateResult is the itemized outcome of PerformBulkUpdate.
// Successful, Failed and Skipped together account for every update unless
// the call returned an error.
type UpdateResult struct {
	EntityType string         `json:"entityType"`
	Successful []string       `json:"successful"`
	Failed     []FailedUpdate `json:"failed"`
	Skipped    []string       `json:"skipped"`
	Changes    []ChangeRecord `json:"changes"`
	Summary    Summary        `json:"summary"`
	// ReportID is set when the result was archived.
	ReportID string `json:"reportId,omitempty"`
}

// Comparison is one proposed change for CompareEntities.
type Comparison struct {
	ID      string         `json:"id"`
	Changes map[string]any `json:"changes"`
}

// CompareSummary aggregates a CompareResult.
type CompareSummary struct {
	Compared           int `json:"compared"`
	WithChanges        int `json:"withChanges"`
	TotalChanges       int `json:"totalChanges"`
	SignificantChanges int `json:"significantChanges"`
	NotFound           int `json:"notFound"`
	Failed             int `json:"failed"`
}

// CompareResult is the outcome of CompareEntities.
type CompareResult struct {
	EntityType string         `json:"entityType"`
	Diffs      []EntityDiff   `json:"diffs"`
	NotFound   []string       `json:"notFound"`
	Failed     []FailedUpdate `json:"failed"`
	Summary    CompareSummary `json:"summary"`
}
