package services

import (
	"context"
	"time"

	"github.com/kendall-kelly/order-analytics-api/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dashboard cache lookup results, as reported to metrics
const (
	cacheHit      = "hit"
	cacheMiss     = "miss"
	cacheDisabled = "disabled"
)

// AnalyticsService computes dashboard metrics over the stored orders
type AnalyticsService struct {
	store    *OrderStore
	cache    DashboardCache
	cacheTTL time.Duration
	metrics  *Metrics
	logger   *zap.Logger
}

// AnalyticsOption configures an AnalyticsService
type AnalyticsOption func(*AnalyticsService)

// WithDashboardCache caches computed dashboards for ttl
func WithDashboardCache(cache DashboardCache, ttl time.Duration) AnalyticsOption {
	return func(s *AnalyticsService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithAnalyticsMetrics records dashboard metrics
func WithAnalyticsMetrics(metrics *Metrics) AnalyticsOption {
	return func(s *AnalyticsService) { s.metrics = metrics }
}

// NewAnalyticsService creates a service reading from store
func NewAnalyticsService(store *OrderStore, logger *zap.Logger, opts ...AnalyticsOption) *AnalyticsService {
	s := &AnalyticsService{store: store, logger: logger.Named("analytics")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dashboard computes the four views over window. All of them read the same
// dataset; an upload cannot replace it halfway through.
func (s *AnalyticsService) Dashboard(ctx context.Context, window Window, topN int) (DashboardMetrics, error) {
	started := time.Now()
	if topN <= 0 {
		topN = DefaultTopProducts
	}
	window = window.Aligned()

	var result DashboardMetrics
	cacheResult := cacheDisabled

	err := s.store.Read(ctx, func(r OrderReader) error {
		var key string
		if s.cache != nil {
			datasetID, err := r.LatestDatasetID(ctx)
			if err != nil {
				return err
			}
			key = DashboardCacheKey(datasetID, window, topN)
			cached, ok, err := s.cache.Get(ctx, key)
			if err != nil {
				s.logger.Warn("dashboard cache read failed", zap.Error(err))
			} else if ok {
				cacheResult = cacheHit
				result = *cached
				return nil
			}
			cacheResult = cacheMiss
		}

		orders, err := r.Scan(ctx, NewOrderQuery().Between(window.Start, window.End))
		if err != nil {
			return err
		}
		result = computeDashboard(ctx, orders, window, topN)

		if s.cache != nil {
			if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
				s.logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return DashboardMetrics{}, err
	}

	s.metrics.ObserveDashboard(cacheResult, time.Since(started))
	return result, nil
}

// computeDashboard runs the four independent views concurrently
func computeDashboard(ctx context.Context, orders []models.Order, window Window, topN int) DashboardMetrics {
	var metrics DashboardMetrics
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		metrics.SalesMetrics = SummarizeSales(orders, window)
		return nil
	})
	g.Go(func() error {
		metrics.TopProducts = TopProducts(orders, topN)
		return nil
	})
	g.Go(func() error {
		metrics.TimeSeries = DailySeries(orders)
		return nil
	})
	g.Go(func() error {
		metrics.GeographicDistribution = RegionalDistribution(orders)
		return nil
	})

	_ = g.Wait()
	return metrics
}
