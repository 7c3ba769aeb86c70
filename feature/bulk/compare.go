package bulk

import (
	"context"
	"maps"
	"strings"

	"batch-engine/core/batch"
	"batch-engine/core/entity"

	"go.uber.org/zap"
)

type compareOutcome struct {
	id       string
	diff     *EntityDiff
	notFound bool
	failed   *FailedUpdate
}

// CompareEntities previews comparisons without writing. The current state of
// each entity is fetched, the proposed changes are merged on a copy and the
// two are diffed.
func (e *Engine) CompareEntities(ctx context.Context, entityType string, comparisons []Comparison) (_ *CompareResult, err error) {
	const op = "compare_entities"
	done := e.metrics.Track(op)
	defer func() { done(err) }()

	if strings.TrimSpace(entityType) == "" {
		return nil, entity.NewValidation(op, "", "entity type is required")
	}
	if len(comparisons) == 0 {
		return nil, entity.NewValidation(op, "", "at least one comparison is required")
	}
	if len(comparisons) > MaxComparisons {
		return nil, entity.Validationf("%s: too many comparisons: %d (max %d)", op, len(comparisons), MaxComparisons)
	}
	for i, c := range comparisons {
		if strings.TrimSpace(c.ID) == "" {
			return nil, entity.Validationf("%s: comparison %d: id is required", op, i)
		}
	}

	chunks := batch.Chunk(comparisons, e.batch.BatchSize)
	outcomes, _ := batch.Run(ctx, chunks, batch.RunOptions{
		Concurrency: e.batch.Concurrency,
		Limiter:     e.limiter,
	}, func(ctx context.Context, _ int, chunk []Comparison) ([]compareOutcome, error) {
		out := make([]compareOutcome, 0, len(chunk))
		for _, c := range chunk {
			out = append(out, e.compareOne(ctx, entityType, c))
		}
		return out, nil
	})

	res := &CompareResult{
		EntityType: entityType,
		Diffs:      []EntityDiff{},
		NotFound:   []string{},
		Failed:     []FailedUpdate{},
	}
	for _, o := range outcomes {
		if o.Err != nil {
			for _, c := range chunks[o.Index] {
				res.Failed = append(res.Failed, failure(Update{ID: c.ID, Changes: c.Changes}, o.Err))
			}
			continue
		}
		for _, c := range o.Result {
			switch {
			case c.notFound:
				res.NotFound = append(res.NotFound, c.id)
			case c.failed != nil:
				res.Failed = append(res.Failed, *c.failed)
			default:
				res.Diffs = append(res.Diffs, *c.diff)
			}
		}
	}

	res.Summary.Compared = len(res.Diffs)
	res.Summary.NotFound = len(res.NotFound)
	res.Summary.Failed = len(res.Failed)
	for _, d := range res.Diffs {
		if d.HasChanges {
			res.Summary.WithChanges++
		}
		res.Summary.TotalChanges += d.ChangeCount
		res.Summary.SignificantChanges += len(d.SignificantChanges)
	}

	e.logger.Info("Comparison completed",
		zap.String("entity_type", entityType),
		zap.Int("compared", res.Summary.Compared),
		zap.Int("with_changes", res.Summary.WithChanges),
		zap.Int("not_found", res.Summary.NotFound))
	return res, nil
}

func (e *Engine) compareOne(ctx context.Context, entityType string, c Comparison) compareOutcome {
	resp, err := e.handler.Handle(ctx, entity.GetOp(entityType), map[string]any{"id": c.ID, "detail": "basic"})
	if entity.IsNotFound(err) {
		return compareOutcome{id: c.ID, notFound: true}
	}
	if err != nil {
		f := failure(Update{ID: c.ID, Changes: c.Changes}, err)
		return compareOutcome{id: c.ID, failed: &f}
	}

	current := snapshot(resp, entityType)
	proposed := maps.Clone(current)
	maps.Copy(proposed, c.Changes)

	d := CreateEntityDiff(c.ID, current, proposed)
	return compareOutcome{id: c.ID, diff: &d}
}
