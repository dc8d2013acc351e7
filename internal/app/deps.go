package app

import (
	"context"

	"github.com/snapgram/backend/internal/config"
	"github.com/snapgram/backend/internal/db"
	"github.com/snapgram/backend/internal/logging"
	"github.com/snapgram/backend/internal/metrics"
	"github.com/snapgram/backend/internal/repositories"
	"github.com/snapgram/backend/internal/social"
	"github.com/snapgram/backend/internal/storage"
	"github.com/snapgram/backend/internal/store"
)

// Dependencies holds the concrete implementations handed to callers of the data core.
type Dependencies struct {
	Store   store.Store
	Social  *social.Service
	Metrics *metrics.Collector
	// Assets is nil when no bucket is configured.
	Assets social.AssetStorage
}

// buildDependencies wires the PostgreSQL engine, metrics and optional asset
// storage into a social.Service.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (Dependencies, error) {
	collector := metrics.NewCollector(cfg.MetricsNamespace)
	st := repositories.NewPostgresStore(pool)

	deps := Dependencies{Store: st, Metrics: collector}
	opts := []social.Option{social.WithMetrics(collector)}

	if cfg.ObjectStore.Enabled() {
		s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return Dependencies{}, err
		}

		breaker := storage.DefaultBreakerConfig("media-assets")
		if cfg.ObjectStore.BreakerTimeout > 0 {
			breaker.Timeout = cfg.ObjectStore.BreakerTimeout
		}
		deps.Assets = storage.NewBreakerStorage(s3, breaker, logging.FromContext(ctx))
		opts = append(opts, social.WithAssetStorage(deps.Assets))
	}

	deps.Social = social.NewService(st, opts...)
	return deps, nil
}
