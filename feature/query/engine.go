package query

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"batch-engine/core/batch"
	"batch-engine/core/cache"
	"batch-engine/core/entity"
	"batch-engine/core/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBatchSize is the number of ids per collaborator request.
	DefaultBatchSize = 50
	// MaxBatchSize caps the configured batch size.
	MaxBatchSize = 100
	// DefaultConcurrency is the number of batches in flight.
	DefaultConcurrency = 5

	// MaxStatusIDs caps CheckMultipleStatus and TrackBatchProgress.
	MaxStatusIDs = 500
	// MaxExistenceIDs caps ValidateExistence.
	MaxExistenceIDs = 1000

	statusTTL    = 3 * time.Minute
	existenceTTL = 5 * time.Minute
	progressTTL  = 2 * time.Minute
	countTTL     = 5 * time.Minute
)

// Options configures an Engine.
type Options struct {
	// Batch holds batch size, concurrency and rate limit. Zero values use the defaults.
	Batch batch.Config
	// HealthTimeout bounds the collaborator probe. Zero means 5 seconds.
	HealthTimeout time.Duration
	// HealthEntityType is listed when the collaborator has no Pinger.
	HealthEntityType string
}

// Engine runs batched queries against an entity collaborator.
type Engine struct {
	handler entity.Handler
	cache   *cache.AdaptiveCache[any]
	probe   *cache.AdaptiveCache[any]
	metrics *metrics.Collector
	memory  *metrics.MemoryMonitor
	logger  *zap.Logger

	batch         batch.Config
	limiter       *rate.Limiter
	healthTimeout time.Duration
	healthType    string
}

// NewEngine creates an Engine. collector may be nil.
func NewEngine(
	handler entity.Handler,
	c *cache.AdaptiveCache[any],
	collector *metrics.Collector,
	memory *metrics.MemoryMonitor,
	logger *zap.Logger,
	opts Options,
) *Engine {
	cfg := opts.Batch.Normalize(DefaultBatchSize, MaxBatchSize, DefaultConcurrency)

	timeout := opts.HealthTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	healthType := opts.HealthEntityType
	if healthType == "" {
		healthType = "features"
	}
	if memory == nil {
		memory = metrics.NewMemoryMonitor(0)
	}
	// A one-entry cache for the health round-trip keeps probes from evicting live results.
	probe, _ := cache.New[any](cache.Config{MaxSize: 1})

	return &Engine{
		handler:       handler,
		cache:         c,
		probe:         probe,
		metrics:       collector,
		memory:        memory,
		logger:        logger,
		batch:         cfg,
		limiter:       cfg.Limiter(),
		healthTimeout: timeout,
		healthType:    healthType,
	}
}

// Cache returns the shared cache.
func (e *Engine) Cache() *cache.AdaptiveCache[any] { return e.cache }

// fetchResult is the merged outcome of a batched fetch.
type fetchResult struct {
	entities      []LightweightEntity
	failedBatches int
}

func (f fetchResult) coverage() Coverage {
	return Coverage{Partial: f.failedBatches > 0, FailedBatches: f.failedBatches}
}

// fetch retrieves the projection of ids in batches. Failed batches are logged and
// counted; entities outside the requested batch are ignored.
func (e *Engine) fetch(ctx context.Context, op, entityType string, ids []string, fields []string) fetchResult {
	chunks := batch.Chunk(ids, e.batch.BatchSize)
	opts := batch.RunOptions{Concurrency: e.batch.Concurrency, Limiter: e.limiter}

	outcomes, _ := batch.Run(ctx, chunks, opts, func(ctx context.Context, _ int, chunk []string) ([]LightweightEntity, error) {
		params := map[string]any{
			"ids":    chunk,
			"fields": fields,
			"limit":  len(chunk),
		}
		resp, err := e.handler.Handle(ctx, entity.GetOp(entityType), params)
		if err != nil {
			return nil, err
		}

		wanted := make(map[string]bool, len(chunk))
		for _, id := range chunk {
			wanted[id] = true
		}

		var out []LightweightEntity
		for _, raw := range entity.DecodeList(resp) {
			le := LightweightEntity(raw)
			if id := le.ID(); wanted[id] {
				// A backend may repeat an entity across pages.
				delete(wanted, id)
				out = append(out, le)
			}
		}
		return out, nil
	})

	var res fetchResult
	for _, o := range outcomes {
		if o.Err != nil {
			res.failedBatches++
			e.logger.Warn("Batch fetch failed",
				zap.String("operation", op),
				zap.String("entity_type", entityType),
				zap.Int("batch", o.Index),
				zap.Int("batch_size", len(chunks[o.Index])),
				zap.String("kind", entity.KindOf(o.Err).String()),
				zap.Error(o.Err))
			continue
		}
		res.entities = append(res.entities, o.Result...)
	}
	return res
}

// normalizeIDs trims and deduplicates ids, keeping first-seen order.
func normalizeIDs(op string, ids []string, minLen, maxLen int) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, entity.NewValidation(op, "", "ids must be non-empty strings")
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if len(out) < minLen {
		return nil, entity.NewValidation(op, "", "at least one id is required")
	}
	if len(out) > maxLen {
		return nil, entity.Validationf("%s: too many ids: %d (max %d)", op, len(out), maxLen)
	}
	return out, nil
}

func validateType(op, entityType string) error {
	if strings.TrimSpace(entityType) == "" {
		return entity.NewValidation(op, "", "entity type is required")
	}
	return nil
}

// cacheKey derives a deterministic key. The id order does not matter.
func cacheKey(op, entityType string, ids []string, extra any) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	payload, _ := json.Marshal(struct {
		IDs   []string `json:"ids"`
		Extra any      `json:"extra,omitempty"`
	}{sorted, extra})

	sum := sha256.Sum256(payload)
	return op + ":" + entityType + ":" + hex.EncodeToString(sum[:16])
}

// cached runs load through the cache. Results that report partial coverage are not stored.
func cached[T any](ctx context.Context, e *Engine, key string, ttl time.Duration, load func(ctx context.Context) (*T, bool, error)) (*T, error) {
	v, fromCache, err := e.cache.GetOrLoad(ctx, key, ttl, func(ctx context.Context) (any, bool, error) {
		res, complete, err := load(ctx)
		if err != nil {
			return nil, false, err
		}
		return res, complete, nil
	})
	if err != nil {
		return nil, err
	}
	if fromCache {
		e.logger.Debug("Cache hit", zap.String("key", key))
	}
	res, _ := v.(*T)
	return res, nil
}
