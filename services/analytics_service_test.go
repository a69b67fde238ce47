package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kendall-kelly/order-analytics-api/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCache struct{}

func (failingCache) Get(context.Context, string) (*DashboardMetrics, bool, error) {
	return nil, false, errors.New("cache unavailable")
}

func (failingCache) Set(context.Context, string, DashboardMetrics, time.Duration) error {
	return errors.New("cache unavailable")
}

var januaryWindow = Window{Start: jan(1, 0), End: jan(31, 0)}

func TestAnalyticsService_Dashboard(t *testing.T) {
	store := setupTestStore(t)
	seedStore(t, store)
	service := NewAnalyticsService(store, zap.NewNop())

	metrics, err := service.Dashboard(context.Background(), januaryWindow, 0)
	require.NoError(t, err)

	assert.True(t, metrics.SalesMetrics.TotalRevenue.Equal(decimalOf("75.5")))
	assert.Equal(t, 3, metrics.SalesMetrics.TotalOrders)
	require.Len(t, metrics.TopProducts, 2)
	assert.Equal(t, "SKU-A", metrics.TopProducts[0].ItemSKU)
	assert.Len(t, metrics.TimeSeries, 2)
	require.Len(t, metrics.GeographicDistribution, 2)
	assert.Equal(t, "IL", metrics.GeographicDistribution[0].Location)
}

func TestAnalyticsService_WindowBoundsAreInclusive(t *testing.T) {
	store := setupTestStore(t)
	seedStore(t, store)
	service := NewAnalyticsService(store, zap.NewNop())

	metrics, err := service.Dashboard(context.Background(), Window{Start: jan(15, 12), End: jan(16, 9)}, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, metrics.SalesMetrics.TotalOrders)
	assert.True(t, metrics.SalesMetrics.TotalRevenue.Equal(decimalOf("55.5")))
}

func TestAnalyticsService_EmptyWindow(t *testing.T) {
	store := setupTestStore(t)
	seedStore(t, store)
	service := NewAnalyticsService(store, zap.NewNop())

	metrics, err := service.Dashboard(context.Background(), Window{Start: jan(1, 0), End: jan(2, 0)}, 10)
	require.NoError(t, err)

	assert.True(t, metrics.SalesMetrics.TotalRevenue.IsZero())
	assert.Empty(t, metrics.TopProducts)
	assert.Empty(t, metrics.TimeSeries)
	assert.Empty(t, metrics.GeographicDistribution)
}

func TestAnalyticsService_Cache(t *testing.T) {
	store := setupTestStore(t)
	seedStore(t, store)
	cache := NewMemoryDashboardCache()
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	service := NewAnalyticsService(store, zap.NewNop(), WithDashboardCache(cache, time.Minute), WithAnalyticsMetrics(metrics))
	ctx := context.Background()

	first, err := service.Dashboard(ctx, januaryWindow, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	second, err := service.Dashboard(ctx, januaryWindow, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.dashboardCache.WithLabelValues(cacheMiss)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.dashboardCache.WithLabelValues(cacheHit)))

	t.Run("Different top_n is a different entry", func(t *testing.T) {
		_, err := service.Dashboard(ctx, januaryWindow, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, cache.Len())
	})

	t.Run("A new dataset is never served from the old entry", func(t *testing.T) {
		replacement := []models.Order{testOrder("NEW-1", jan(20, 8), "WA", "SKU-Z", 1, "5.00")}
		require.NoError(t, store.ReplaceAll(ctx, replacement, succeededUpload("next", jan(21, 0))))

		fresh, err := service.Dashboard(ctx, januaryWindow, 10)
		require.NoError(t, err)
		assert.True(t, fresh.SalesMetrics.TotalRevenue.Equal(decimalOf("5")))
		assert.Equal(t, 1, fresh.SalesMetrics.TotalOrders)
	})
}

func TestAnalyticsService_DefaultWindowHitsCache(t *testing.T) {
	store := setupTestStore(t)
	seedStore(t, store)
	cache := NewMemoryDashboardCache()
	metrics := NewMetrics(prometheus.NewRegistry())
	service := NewAnalyticsService(store, zap.NewNop(), WithDashboardCache(cache, time.Minute), WithAnalyticsMetrics(metrics))
	ctx := context.Background()

	now := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, 15 * time.Second, 45 * time.Second} {
		got, err := service.Dashboard(ctx, DefaultWindow(now.Add(offset)), 10)
		require.NoError(t, err)
		assert.Equal(t, 3, got.SalesMetrics.TotalOrders)
	}

	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.dashboardCache.WithLabelValues(cacheMiss)))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.dashboardCache.WithLabelValues(cacheHit)))
}

func TestAnalyticsService_CacheErrorsFallThrough(t *testing.T) {
	store := setupTestStore(t)
	seedStore(t, store)
	service := NewAnalyticsService(store, zap.NewNop(), WithDashboardCache(failingCache{}, time.Minute))

	metrics, err := service.Dashboard(context.Background(), januaryWindow, 10)

	require.NoError(t, err)
	assert.Equal(t, 3, metrics.SalesMetrics.TotalOrders)
}
