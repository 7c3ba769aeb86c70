package bulk

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"batch-engine/core/batch"
	"batch-engine/core/entity"
	"batch-engine/core/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBatchSize is the number of updates per batch.
	DefaultBatchSize = 25
	// MaxBatchSize caps the batch size.
	MaxBatchSize = 50
	// DefaultConcurrency is the number of batches in flight.
	DefaultConcurrency = 3
	// MaxUpdates caps a single PerformBulkUpdate call.
	MaxUpdates = 500
	// MaxComparisons caps a single CompareEntities call.
	MaxComparisons = 500
)

// Engine applies and compares entity changes through a collaborator.
type Engine struct {
	handler entity.Handler
	metrics *metrics.Collector
	logger  *zap.Logger

	batch   batch.Config
	limiter *rate.Limiter
	archive *Archive
}

// Option configures an Engine.
type Option func(*Engine)

// WithArchive stores every result that contains changes in a.
func WithArchive(a *Archive) Option {
	return func(e *Engine) {
		e.archive = a
	}
}

// NewEngine creates an Engine. Zero values in cfg use the package defaults.
func NewEngine(handler entity.Handler, collector *metrics.Collector, logger *zap.Logger, cfg batch.Config, opts ...Option) *Engine {
	cfg = cfg.Normalize(DefaultBatchSize, MaxBatchSize, DefaultConcurrency)
	e := &Engine{
		handler: handler,
		metrics: collector,
		logger:  logger,
		batch:   cfg,
		limiter: cfg.Limiter(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Archive returns the report archive, or nil when archiving is off.
func (e *Engine) Archive() *Archive { return e.archive }

// batchResult is what one batch contributes to an UpdateResult.
type batchResult struct {
	successful []string
	failed     []FailedUpdate
	skipped    []string
	changes    []ChangeRecord
}

// PerformBulkUpdate applies req.Updates in batches.
//
// Per-item failures are recorded in the result. With ContinueOnError=false the
// first failure stops the call; the partial result is returned with the error.
func (e *Engine) PerformBulkUpdate(ctx context.Context, req UpdateRequest) (_ *UpdateResult, err error) {
	const op = "perform_bulk_update"
	done := e.metrics.Track(op)
	defer func() { done(err) }()

	start := time.Now()
	if err := validateRequest(op, req); err != nil {
		return nil, err
	}

	cfg := batch.Config{
		BatchSize:   req.Options.BatchSize,
		Concurrency: req.Options.Concurrency,
	}.Normalize(e.batch.BatchSize, MaxBatchSize, e.batch.Concurrency)
	continueOnError := req.Options.continueOnError()

	chunks := batch.Chunk(req.Updates, cfg.BatchSize)
	e.logger.Info("Bulk update started",
		zap.String("entity_type", req.EntityType),
		zap.Int("updates", len(req.Updates)),
		zap.Int("batches", len(chunks)),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Bool("track_changes", req.Options.TrackChanges))

	outcomes, runErr := batch.Run(ctx, chunks, batch.RunOptions{
		Concurrency: cfg.Concurrency,
		Limiter:     e.limiter,
		FailFast:    !continueOnError,
	}, func(ctx context.Context, _ int, chunk []Update) (batchResult, error) {
		return e.processBatch(ctx, req.EntityType, chunk, req.Options.TrackChanges, continueOnError)
	})

	res := &UpdateResult{
		EntityType: req.EntityType,
		Successful: []string{},
		Failed:     []FailedUpdate{},
		Skipped:    []string{},
		Changes:    []ChangeRecord{},
	}
	for _, o := range outcomes {
		r := o.Result
		res.Successful = append(res.Successful, r.successful...)
		res.Failed = append(res.Failed, r.failed...)
		res.Skipped = append(res.Skipped, r.skipped...)
		res.Changes = append(res.Changes, r.changes...)

		if o.Err == nil {
			continue
		}
		res.Summary.FailedBatches++
		// Items run in order, so everything past the processed prefix was never
		// attempted: the batch did not start or stopped at its first failure.
		processed := len(r.successful) + len(r.failed) + len(r.skipped)
		cause := o.Err
		if processed > 0 {
			cause = errNotAttempted
		}
		for _, u := range chunks[o.Index][processed:] {
			res.Failed = append(res.Failed, failure(u, cause))
		}
		e.logger.Warn("Bulk update batch failed",
			zap.String("entity_type", req.EntityType),
			zap.Int("batch", o.Index),
			zap.Error(o.Err))
	}

	res.Summary.Total = len(req.Updates)
	res.Summary.SuccessfulCount = len(res.Successful)
	res.Summary.FailedCount = len(res.Failed)
	res.Summary.SkippedCount = len(res.Skipped)
	res.Summary.ChangedCount = len(res.Changes)
	res.Summary.Batches = len(chunks)
	res.Summary.Duration = time.Since(start)
	res.Summary.DurationMs = res.Summary.Duration.Milliseconds()
	res.Summary.AvgItemMs = float64(res.Summary.Duration.Microseconds()) / 1000 / float64(len(req.Updates))

	e.logger.Info("Bulk update completed",
		zap.String("entity_type", req.EntityType),
		zap.Int("successful", res.Summary.SuccessfulCount),
		zap.Int("failed", res.Summary.FailedCount),
		zap.Int("skipped", res.Summary.SkippedCount),
		zap.Duration("duration", res.Summary.Duration))

	if e.archive != nil && len(res.Changes) > 0 {
		if info, err := e.archive.Save(ctx, res); err != nil {
			e.logger.Warn("Failed to archive bulk report", zap.Error(err))
		} else {
			res.ReportID = info.ID
		}
	}

	if runErr != nil {
		return res, fmt.Errorf("bulk update aborted: %w", runErr)
	}
	return res, nil
}

func validateRequest(op string, req UpdateRequest) error {
	if strings.TrimSpace(req.EntityType) == "" {
		return entity.NewValidation(op, "", "entity type is required")
	}
	if len(req.Updates) == 0 {
		return entity.NewValidation(op, "", "at least one update is required")
	}
	if len(req.Updates) > MaxUpdates {
		return entity.Validationf("%s: too many updates: %d (max %d)", op, len(req.Updates), MaxUpdates)
	}
	if !req.Options.ValidateBeforeUpdate {
		return nil
	}

	var problems []string
	for i, u := range req.Updates {
		switch {
		case strings.TrimSpace(u.ID) == "":
			problems = append(problems, fmt.Sprintf("update %d: id is required", i))
		case len(u.Changes) == 0:
			problems = append(problems, fmt.Sprintf("update %d (%s): changes are required", i, u.ID))
		}
	}
	if len(problems) > 0 {
		return entity.NewValidation(op, "", strings.Join(problems, "; "))
	}
	return nil
}

// processBatch handles the items of one batch in order.
func (e *Engine) processBatch(ctx context.Context, entityType string, chunk []Update, track, continueOnError bool) (batchResult, error) {
	var r batchResult
	for _, u := range chunk {
		if err := ctx.Err(); err != nil {
			r.failed = append(r.failed, failure(u, err))
			if !continueOnError {
				return r, err
			}
			continue
		}

		change, err := e.processItem(ctx, entityType, u, track)
		switch {
		case errors.Is(err, errSkipped):
			r.skipped = append(r.skipped, u.ID)
		case err != nil:
			e.logger.Warn("Update failed",
				zap.String("entity_type", entityType),
				zap.String("id", u.ID),
				zap.String("kind", entity.KindOf(err).String()),
				zap.Error(err))
			r.failed = append(r.failed, failure(u, err))
			if !continueOnError {
				return r, err
			}
		default:
			r.successful = append(r.successful, u.ID)
			if change != nil && change.Diff.HasChanges {
				r.changes = append(r.changes, *change)
			}
		}
	}
	return r, nil
}

var (
	errSkipped      = errors.New("skipped")
	errNotAttempted = errors.New("not attempted: bulk update aborted")
)

// processItem applies one update. It returns errSkipped when the before
// snapshot reports the entity as missing.
func (e *Engine) processItem(ctx context.Context, entityType string, u Update, track bool) (*ChangeRecord, error) {
	var before map[string]any
	if track {
		resp, err := e.handler.Handle(ctx, entity.GetOp(entityType), map[string]any{"id": u.ID, "detail": "basic"})
		if entity.IsNotFound(err) {
			e.logger.Info("Update skipped, entity not found",
				zap.String("entity_type", entityType),
				zap.String("id", u.ID))
			return nil, errSkipped
		}
		if err != nil {
			return nil, fmt.Errorf("before snapshot: %w", err)
		}
		before = snapshot(resp, entityType)
	}

	params := make(map[string]any, len(u.Changes)+2)
	maps.Copy(params, u.Changes)
	params["id"] = u.ID
	if u.ExpectedVersion != nil {
		params["expectedVersion"] = *u.ExpectedVersion
	}

	resp, err := e.handler.Handle(ctx, entity.UpdateOp(entityType), params)
	if err != nil {
		return nil, err
	}
	if !track {
		return nil, nil
	}

	after := snapshot(resp, entityType)
	return &ChangeRecord{
		ID:     u.ID,
		Before: before,
		After:  after,
		Diff:   CreateEntityDiff(u.ID, before, after),
	}, nil
}

// snapshot decodes an entity and treats an undecodable response as empty.
func snapshot(resp *entity.Response, entityType string) map[string]any {
	if m := entity.DecodeEntity(resp, entityType); m != nil {
		return m
	}
	return map[string]any{}
}

func failure(u Update, err error) FailedUpdate {
	return FailedUpdate{
		ID:           u.ID,
		Error:        err.Error(),
		Kind:         entity.KindOf(err),
		OriginalData: u.Changes,
	}
}
