package query

import (
	"time"

	"batch-engine/core/cache"
	"batch-engine/core/metrics"
	"batch-engine/core/utils"
)

// LightweightEntity is a projection of an entity holding only the requested fields.
type LightweightEntity map[string]any

// ID returns the entity id as a string.
func (e LightweightEntity) ID() string { return utils.ToString(e["id"]) }

// Status returns the entity status, or "" when absent.
func (e LightweightEntity) Status() string { return utils.ToString(e["status"]) }

// UpdatedAt parses the updatedAt field. The second result is false when it is
// absent or not an RFC 3339 timestamp.
func (e LightweightEntity) UpdatedAt() (time.Time, bool) {
	s, ok := e["updatedAt"].(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Coverage reports how much of a result was actually observed.
type Coverage struct {
	// Partial is set when at least one batch failed. Missing entities may exist.
	Partial bool `json:"partial"`
	// FailedBatches is the number of batches that returned an error.
	FailedBatches int `json:"failedBatches"`
}

// StatusSummary is the result of CheckMultipleStatus.
type StatusSummary struct {
	EntityType string `json:"entityType"`
	// Requested counts distinct ids; duplicates in the input are collapsed.
	Requested   int            `json:"requested"`
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"byStatus"`
	LastUpdated *time.Time     `json:"lastUpdated,omitempty"`
	Summary     string         `json:"summary"`
	Coverage
}

// ExistenceResult is the result of ValidateExistence.
// ExistingCount + MissingCount == Total, where Total counts distinct trimmed ids
// rather than the length of the input.
type ExistenceResult struct {
	Existing      []string `json:"existing"`
	Missing       []string `json:"missing"`
	Total         int      `json:"total"`
	ExistingCount int      `json:"existingCount"`
	MissingCount  int      `json:"missingCount"`
	Coverage
}

// Grouping values for ProgressOptions.GroupBy.
const (
	GroupByStatus     = "status"
	GroupByCompletion = "completion"
)

// ProgressOptions controls TrackBatchProgress.
type ProgressOptions struct {
	// Marker decides whether an entity counts as completed. Required.
	Marker string `json:"marker"`
	// IncludeDetails adds one ProgressDetail per observed entity.
	IncludeDetails bool `json:"includeDetails"`
	// GroupBy groups observed ids by "status" or "completion".
	GroupBy string `json:"groupBy,omitempty"`
}

// ProgressDetail is the per-entity outcome of TrackBatchProgress.
type ProgressDetail struct {
	ID        string `json:"id"`
	Status    string `json:"status,omitempty"`
	Completed bool   `json:"completed"`
}

// ProgressResult is the result of TrackBatchProgress.
// Completed + Pending == Total.
type ProgressResult struct {
	Marker string `json:"marker"`
	// Requested counts distinct ids; duplicates in the input are collapsed.
	Requested  int                 `json:"requested"`
	Completed  int                 `json:"completed"`
	Pending    int                 `json:"pending"`
	Total      int                 `json:"total"`
	Percentage string              `json:"percentage"`
	Details    []ProgressDetail    `json:"details,omitempty"`
	Groups     map[string][]string `json:"groups,omitempty"`
	Coverage
}

// CountResult is the result of GetEntityCount.
type CountResult struct {
	EntityType string         `json:"entityType"`
	Count      int            `json:"count"`
	Filters    map[string]any `json:"filters,omitempty"`
	// Estimated is set when the backend returned no total and Count is the page size.
	Estimated bool `json:"estimated"`
}

// Health states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthChecks holds the outcome of each probe.
type HealthChecks struct {
	API    bool `json:"api"`
	Cache  bool `json:"cache"`
	Memory bool `json:"memory"`
}

// HealthReport is the result of HealthCheck.
type HealthReport struct {
	Status         string              `json:"status"`
	Timestamp      time.Time           `json:"timestamp"`
	ResponseTimeMs int64               `json:"responseTimeMs"`
	Checks         HealthChecks        `json:"checks"`
	Memory         metrics.MemoryStats `json:"memory"`
	Cache          cache.Stats         `json:"cache"`
	Errors         map[string]string   `json:"errors,omitempty"`
}
