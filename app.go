package main

import (
	"context"
	"fmt"

	"github.com/kendall-kelly/order-analytics-api/config"
	"github.com/kendall-kelly/order-analytics-api/services"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application holds the wired services shared by every route
type application struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	store     *services.OrderStore
	processor *services.OrderProcessor
	analytics *services.AnalyticsService
	archive   services.UploadArchive
}

// newApplication connects the database and builds the ingestion and
// analytics services. The returned cleanup releases external connections.
func newApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger, registry *prometheus.Registry) (*application, func(), error) {
	db, err := config.ConnectDatabase(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return buildApplication(ctx, cfg, logger, registry, db)
}

// buildApplication wires services over an open database handle
func buildApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger, registry *prometheus.Registry, db *gorm.DB) (*application, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	closers = append(closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := services.NewOrderStore(db, logger)
	if err := store.AutoMigrate(); err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("database migration completed successfully")

	gazetteer, err := services.LoadGazetteer(cfg.GeoReferencePath)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("geo reference loaded", zap.Int("postal_codes", gazetteer.Len()))

	transformer := services.NewRowTransformer(services.NewCompositeAddressResolver(logger), gazetteer)
	metrics := services.NewMetrics(registry)

	processorOpts := []services.ProcessorOption{
		services.WithWorkers(cfg.IngestWorkers),
		services.WithMetrics(metrics),
	}

	var archive services.UploadArchive
	if cfg.ArchiveEnabled() {
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to initialize S3 archive: %w", err)
		}
		archive = services.NewS3UploadArchive(s3Service)
		processorOpts = append(processorOpts, services.WithArchive(archive))
		logger.Info("raw uploads are archived to S3", zap.String("bucket", cfg.AWSS3Bucket))
	}

	analyticsOpts := []services.AnalyticsOption{services.WithAnalyticsMetrics(metrics)}
	if cfg.DashboardCacheTTL > 0 {
		cache, closeCache := dashboardCache(ctx, cfg, logger)
		if closeCache != nil {
			closers = append(closers, closeCache)
		}
		analyticsOpts = append(analyticsOpts, services.WithDashboardCache(cache, cfg.DashboardCacheTTL))
	}

	return &application{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		store:     store,
		processor: services.NewOrderProcessor(store, transformer, logger, processorOpts...),
		analytics: services.NewAnalyticsService(store, logger, analyticsOpts...),
		archive:   archive,
	}, cleanup, nil
}

// dashboardCache prefers Redis when configured and falls back to an
// in-process cache when it is not set or unreachable
func dashboardCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.DashboardCache, func()) {
	if cfg.RedisURL != "" {
		cache, err := services.NewRedisDashboardCache(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("dashboard cache uses redis")
			return cache, func() { _ = cache.Close() }
		}
		logger.Warn("redis unavailable, using in-memory dashboard cache", zap.Error(err))
	}
	return services.NewMemoryDashboardCache(), nil
}
