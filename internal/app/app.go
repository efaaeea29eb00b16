// Package app assembles the service components and owns their lifecycle:
// configuration, storage, the extraction pool, the recommendation engine,
// the cache sweeper and the HTTP server.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soundrooms/resonance/configs"
	"github.com/soundrooms/resonance/internal/logging"
	"github.com/soundrooms/resonance/internal/server"
	"github.com/soundrooms/resonance/internal/store"
	"github.com/soundrooms/resonance/pkg/audio/features"
	"github.com/soundrooms/resonance/pkg/recommend"
)

// App handles the service application lifecycle
type App struct {
	cfg       *configs.Config
	logger    logging.Logger
	store     *store.Store
	extractor *features.Extractor
	engine    *recommend.Engine
	cache     *recommend.Cache
	server    *server.Server
}

// NewApp builds the full component graph from configuration
func NewApp(ctx context.Context, cfg *configs.Config) (*App, error) {
	if err := configs.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.WithFields(logging.Fields{"component": "app"})

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	extractor := features.NewExtractor(features.Config{
		Workers:          cfg.Extractor.Workers,
		QueueSize:        cfg.Extractor.QueueSize,
		WindowSize:       cfg.Extractor.WindowSize,
		HopSize:          cfg.Extractor.HopSize,
		MFCCCoefficients: cfg.Extractor.MFCCCoefficients,
		ContrastBands:    cfg.Extractor.ContrastBands,
	})

	aggregator := recommend.NewAggregator(cfg.Recommend.ActiveStartHour, cfg.Recommend.ActiveEndHour)
	engine := recommend.NewEngine(aggregator)
	cache := recommend.NewCache()

	app := &App{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		extractor: extractor,
		engine:    engine,
		cache:     cache,
		server:    server.New(cfg, st, extractor, engine, cache),
	}

	logger.Debug("application initialized", logging.Fields{
		"addr":              cfg.Server.Addr,
		"db_path":           cfg.Database.Path,
		"extractor_workers": cfg.Extractor.Workers,
		"cache_ttl":         cfg.Cache.TTL.String(),
	})
	return app, nil
}

// Run serves HTTP and sweeps the recommendation cache until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	defer a.shutdown()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.server.Start(groupCtx)
	})

	group.Go(func() error {
		return a.sweepCache(groupCtx)
	})

	return group.Wait()
}

// sweepCache periodically drops expired entries from the in-memory cache
// and the persisted cache table. The cache itself never sweeps; expiry on
// read already hides stale entries between sweeps.
func (a *App) sweepCache(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Cache.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed := a.cache.PurgeExpired()
			persisted, err := a.store.PurgeExpiredRecommendations(ctx)
			if err != nil {
				a.logger.Warn("persisted cache sweep failed", logging.Fields{"error": err.Error()})
				continue
			}
			if removed > 0 || persisted > 0 {
				a.logger.Debug("cache sweep complete", logging.Fields{
					"memory_removed":    removed,
					"persisted_removed": persisted,
				})
			}
		}
	}
}

func (a *App) shutdown() {
	a.extractor.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close failed", logging.Fields{"error": err.Error()})
	}
	a.logger.Info("application stopped")
}
