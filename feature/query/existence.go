package query

import (
	"context"

	"go.uber.org/zap"
)

var existenceFields = []string{"id"}

// ValidateExistence partitions ids into existing and missing. An empty id list
// returns an empty result without contacting the collaborator. Duplicate ids are
// reported once, so Total can be smaller than len(ids).
//
// Ids in a failed batch are reported as missing; check Partial before acting on
// the missing list.
func (e *Engine) ValidateExistence(ctx context.Context, entityType string, ids []string) (_ *ExistenceResult, err error) {
	const op = "validate_existence"
	done := e.metrics.Track(op)
	defer func() { done(err) }()

	if err := validateType(op, entityType); err != nil {
		return nil, err
	}
	ids, err = normalizeIDs(op, ids, 0, MaxExistenceIDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &ExistenceResult{Existing: []string{}, Missing: []string{}}, nil
	}

	key := cacheKey(op, entityType, ids, nil)
	return cached(ctx, e, key, existenceTTL, func(ctx context.Context) (*ExistenceResult, bool, error) {
		fetched := e.fetch(ctx, op, entityType, ids, existenceFields)

		observed := make(map[string]bool, len(fetched.entities))
		for _, ent := range fetched.entities {
			observed[ent.ID()] = true
		}

		res := &ExistenceResult{
			Existing: make([]string, 0, len(observed)),
			Missing:  make([]string, 0, len(ids)-len(observed)),
			Total:    len(ids),
			Coverage: fetched.coverage(),
		}
		for _, id := range ids {
			if observed[id] {
				res.Existing = append(res.Existing, id)
			} else {
				res.Missing = append(res.Missing, id)
			}
		}
		res.ExistingCount = len(res.Existing)
		res.MissingCount = len(res.Missing)

		e.logger.Info("Existence check completed",
			zap.String("entity_type", entityType),
			zap.Int("existing", res.ExistingCount),
			zap.Int("missing", res.MissingCount),
			zap.Bool("partial", res.Partial))

		return res, !res.Partial, nil
	})
}
