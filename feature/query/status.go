package query

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const unknownStatus = "unknown"

var statusFields = []string{"id", "status", "updatedAt"}

// CheckMultipleStatus returns a status histogram for ids. Ids are trimmed and
// deduplicated before counting.
func (e *Engine) CheckMultipleStatus(ctx context.Context, entityType string, ids []string) (_ *StatusSummary, err error) {
	const op = "check_multiple_status"
	done := e.metrics.Track(op)
	defer func() { done(err) }()

	if err := validateType(op, entityType); err != nil {
		return nil, err
	}
	ids, err = normalizeIDs(op, ids, 1, MaxStatusIDs)
	if err != nil {
		return nil, err
	}

	key := cacheKey(op, entityType, ids, nil)
	return cached(ctx, e, key, statusTTL, func(ctx context.Context) (*StatusSummary, bool, error) {
		fetched := e.fetch(ctx, op, entityType, ids, statusFields)
		summary := summarizeStatus(entityType, len(ids), fetched.entities)
		summary.Coverage = fetched.coverage()

		e.logger.Info("Status check completed",
			zap.String("entity_type", entityType),
			zap.Int("requested", len(ids)),
			zap.Int("observed", summary.Total),
			zap.Bool("partial", summary.Partial))

		return summary, !summary.Partial, nil
	})
}

func summarizeStatus(entityType string, requested int, entities []LightweightEntity) *StatusSummary {
	s := &StatusSummary{
		EntityType: entityType,
		Requested:  requested,
		Total:      len(entities),
		ByStatus:   make(map[string]int),
	}

	var latest time.Time
	for _, ent := range entities {
		status := ent.Status()
		if status == "" {
			status = unknownStatus
		}
		s.ByStatus[status]++

		if t, ok := ent.UpdatedAt(); ok && t.After(latest) {
			latest = t
		}
	}
	if !latest.IsZero() {
		s.LastUpdated = &latest
	}
	s.Summary = statusLine(s.Total, entityType, s.ByStatus)
	return s
}

// statusLine renders "3 features: 2 done, 1 todo". Larger groups come first.
func statusLine(total int, entityType string, byStatus map[string]int) string {
	statuses := make([]string, 0, len(byStatus))
	for status := range byStatus {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		a, b := statuses[i], statuses[j]
		if byStatus[a] != byStatus[b] {
			return byStatus[a] > byStatus[b]
		}
		return a < b
	})

	parts := make([]string, len(statuses))
	for i, status := range statuses {
		parts[i] = strconv.Itoa(byStatus[status]) + " " + status
	}

	line := fmt.Sprintf("%d %s", total, entityType)
	if len(parts) > 0 {
		line += ": " + strings.Join(parts, ", ")
	}
	return line
}
