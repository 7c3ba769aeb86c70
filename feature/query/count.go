package query

import (
	"context"
	"maps"

	"batch-engine/core/entity"

	"go.uber.org/zap"
)

// GetEntityCount returns the number of entities matching filters from a single
// limit=1 request. It never pages.
func (e *Engine) GetEntityCount(ctx context.Context, entityType string, filters map[string]any) (_ *CountResult, err error) {
	const op = "get_entity_count"
	done := e.metrics.Track(op)
	defer func() { done(err) }()

	if err := validateType(op, entityType); err != nil {
		return nil, err
	}

	params := maps.Clone(filters)
	if params == nil {
		params = make(map[string]any, 2)
	}
	delete(params, "offset")
	params["limit"] = 1
	params["fields"] = []string{"id"}

	key := cacheKey(op, entityType, nil, filters)
	return cached(ctx, e, key, countTTL, func(ctx context.Context) (*CountResult, bool, error) {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, false, err
			}
		}

		resp, err := e.handler.Handle(ctx, entity.GetOp(entityType), params)
		if err != nil {
			return nil, false, entity.Wrap(entity.KindOf(err), op, "", err)
		}

		res := &CountResult{EntityType: entityType, Filters: filters}
		if total, ok := entity.TotalRecords(resp); ok {
			res.Count = total
		} else {
			res.Count = len(entity.DecodeList(resp))
			res.Estimated = true
			e.logger.Warn("Count response carried no total",
				zap.String("entity_type", entityType))
		}
		return res, !res.Estimated, nil
	})
}
