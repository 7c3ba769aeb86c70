package cmd

import (
	"context"
	"fmt"
	"time"

	"batch-engine/core/cache"
	"batch-engine/core/config"
	"batch-engine/core/database"
	"batch-engine/core/logger"
	"batch-engine/core/metrics"
	"batch-engine/core/storage"
	"batch-engine/feature/bulk"
	"batch-engine/feature/entities"
	"batch-engine/feature/query"
	"batch-engine/feature/system"

	"go.uber.org/zap"
)

// App holds the wired services shared by every command.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   *entities.Store
	Metrics *metrics.Collector
	Memory  *metrics.MemoryMonitor
	Cache   *cache.AdaptiveCache[any]
	Query   *query.Engine
	Bulk    *bulk.Engine
	System  *system.Service

	stop context.CancelFunc
}

// Close stops background work and flushes the logger.
func (a *App) Close() {
	if a.stop != nil {
		a.stop()
	}
	_ = a.Logger.Sync()
}

// bootstrap loads the configuration and builds the service graph.
func bootstrap(ctx context.Context) (*App, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to entity database: %w", err)
	}
	store := entities.NewStore(db, logg)
	if cfg.Database.AutoMigrate {
		err = store.Migrate(ctx)
	} else {
		err = store.VerifySchema(ctx)
	}
	if err != nil {
		return nil, err
	}
	logg.Info("Connected to entity database", zap.String("driver", cfg.Database.Driver))

	collector := metrics.NewCollector(cfg.Metrics.Namespace)
	memory := metrics.NewMemoryMonitor(uint64(cfg.Metrics.HeapThresholdMB) * 1024 * 1024)

	shared, err := cache.New[any](cfg.Cache, cache.WithObserver[any](collector))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	runCtx, stop := context.WithCancel(context.Background())
	if cfg.Cache.CleanupIntervalSeconds > 0 {
		shared.StartJanitor(runCtx, time.Duration(cfg.Cache.CleanupIntervalSeconds)*time.Second)
	}

	queryEngine := query.NewEngine(store, shared, collector, memory, logg, query.Options{
		Batch:         cfg.Query,
		HealthTimeout: time.Duration(cfg.Health.TimeoutSeconds) * time.Second,
	})

	var bulkOpts []bulk.Option
	if cfg.Storage.Enabled {
		archive, err := newArchive(ctx, cfg.Storage, logg)
		if err != nil {
			stop()
			return nil, err
		}
		bulkOpts = append(bulkOpts, bulk.WithArchive(archive))
	}
	bulkEngine := bulk.NewEngine(store, collector, logg, cfg.Bulk, bulkOpts...)

	return &App{
		Config:  cfg,
		Logger:  logg,
		Store:   store,
		Metrics: collector,
		Memory:  memory,
		Cache:   shared,
		Query:   queryEngine,
		Bulk:    bulkEngine,
		System:  system.NewService(queryEngine, collector, memory, logg),
		stop:    stop,
	}, nil
}

func newArchive(ctx context.Context, cfg storage.Config, logg *zap.Logger) (*bulk.Archive, error) {
	client, err := storage.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if err := storage.EnsureBucket(ctx, client, cfg.Bucket, cfg.Region); err != nil {
		return nil, fmt.Errorf("failed to prepare report bucket: %w", err)
	}
	logg.Info("Bulk report archive enabled",
		zap.String("bucket", cfg.Bucket),
		zap.Int("retention", cfg.Retention))
	return bulk.NewArchive(client, cfg.Bucket, cfg.Retention, logg), nil
}
