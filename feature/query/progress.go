package query

import (
	"context"
	"fmt"
	"strings"

	"batch-engine/core/entity"
	"batch-engine/core/utils"

	"go.uber.org/zap"
)

const (
	groupCompleted = "completed"
	groupPending   = "pending"
)

// TrackBatchProgress counts how many of ids satisfy opts.Marker.
func (e *Engine) TrackBatchProgress(ctx context.Context, entityType string, ids []string, opts ProgressOptions) (_ *ProgressResult, err error) {
	const op = "track_batch_progress"
	done := e.metrics.Track(op)
	defer func() { done(err) }()

	if err := validateType(op, entityType); err != nil {
		return nil, err
	}
	opts.Marker = strings.TrimSpace(opts.Marker)
	if opts.Marker == "" {
		return nil, entity.NewValidation(op, "", "completion marker is required")
	}
	switch opts.GroupBy {
	case "", GroupByStatus, GroupByCompletion:
	default:
		return nil, entity.NewValidation(op, "", fmt.Sprintf("unsupported groupBy %q", opts.GroupBy))
	}
	ids, err = normalizeIDs(op, ids, 1, MaxStatusIDs)
	if err != nil {
		return nil, err
	}

	key := cacheKey(op, entityType, ids, opts)
	return cached(ctx, e, key, progressTTL, func(ctx context.Context) (*ProgressResult, bool, error) {
		fetched := e.fetch(ctx, op, entityType, ids, progressFields(opts.Marker))
		res := summarizeProgress(opts, len(ids), fetched.entities)
		res.Coverage = fetched.coverage()

		e.logger.Info("Progress check completed",
			zap.String("entity_type", entityType),
			zap.String("marker", opts.Marker),
			zap.Int("completed", res.Completed),
			zap.Int("pending", res.Pending),
			zap.Bool("partial", res.Partial))

		return res, !res.Partial, nil
	})
}

// progressFields is the projection needed to resolve marker.
func progressFields(marker string) []string {
	fields := []string{"id", "status", "updatedAt", "customFields"}
	if field, _, ok := strings.Cut(marker, ":"); ok {
		if field != "status" && field != "" {
			fields = append(fields, field)
		}
	} else {
		fields = append(fields, marker)
	}
	return fields
}

func summarizeProgress(opts ProgressOptions, requested int, entities []LightweightEntity) *ProgressResult {
	res := &ProgressResult{
		Marker:    opts.Marker,
		Requested: requested,
		Total:     len(entities),
	}
	if opts.GroupBy != "" {
		res.Groups = make(map[string][]string)
	}

	for _, ent := range entities {
		completed := IsCompleted(ent, opts.Marker)
		if completed {
			res.Completed++
		} else {
			res.Pending++
		}

		if opts.IncludeDetails {
			res.Details = append(res.Details, ProgressDetail{
				ID:        ent.ID(),
				Status:    ent.Status(),
				Completed: completed,
			})
		}

		switch opts.GroupBy {
		case GroupByStatus:
			status := ent.Status()
			if status == "" {
				status = unknownStatus
			}
			res.Groups[status] = append(res.Groups[status], ent.ID())
		case GroupByCompletion:
			group := groupPending
			if completed {
				group = groupCompleted
			}
			res.Groups[group] = append(res.Groups[group], ent.ID())
		}
	}

	res.Percentage = percentage(res.Completed, res.Total)
	return res
}

// IsCompleted resolves a completion marker against one entity.
func IsCompleted(ent LightweightEntity, marker string) bool {
	if custom, ok := ent["customFields"].(map[string]any); ok {
		if utils.Truthy(custom[marker]) {
			return true
		}
	}

	if want, ok := strings.CutPrefix(marker, "status:"); ok {
		return ent.Status() == want
	}

	if field, want, ok := strings.Cut(marker, ":"); ok {
		v, present := ent[field]
		return present && v != nil && utils.ToString(v) == want
	}

	return utils.Truthy(ent[marker])
}

func percentage(completed, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(completed)*100/float64(total))
}
