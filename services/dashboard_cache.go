package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyDashboard = "order-analytics:dashboard:%s:%d:%d:%d"

// DashboardCache stores computed dashboards. Keys embed the dataset id, so
// entries never outlive the dataset they describe.
type DashboardCache interface {
	Get(ctx context.Context, key string) (*DashboardMetrics, bool, error)
	Set(ctx context.Context, key string, metrics DashboardMetrics, ttl time.Duration) error
}

// DashboardCacheKey identifies one dashboard of one dataset. Windows that
// align to the same minutes share a key.
func DashboardCacheKey(datasetID string, window Window, topN int) string {
	window = window.Aligned()
	return fmt.Sprintf(keyDashboard, datasetID, window.Start.UnixNano(), window.End.UnixNano(), topN)
}

// RedisDashboardCache keeps dashboards as JSON values in Redis
type RedisDashboardCache struct {
	client *redis.Client
}

// NewRedisDashboardCache connects to the Redis server at url
// (redis://[:password@]host:port/db)
func NewRedisDashboardCache(ctx context.Context, url string) (*RedisDashboardCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisDashboardCache{client: client}, nil
}

// Get returns the cached dashboard for key, if any
func (c *RedisDashboardCache) Get(ctx context.Context, key string) (*DashboardMetrics, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read dashboard cache: %w", err)
	}

	var metrics DashboardMetrics
	if err := json.Unmarshal(payload, &metrics); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached dashboard: %w", err)
	}
	return &metrics, true, nil
}

// Set stores metrics under key for ttl
func (c *RedisDashboardCache) Set(ctx context.Context, key string, metrics DashboardMetrics, ttl time.Duration) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to encode dashboard: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write dashboard cache: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool
func (c *RedisDashboardCache) Close() error {
	return c.client.Close()
}

// MemoryDashboardCache is an in-process DashboardCache for tests and single
// instance deployments
type MemoryDashboardCache struct {
	mu      sync.Mutex
	entries map[string]memoryCacheEntry
	now     func() time.Time
}

type memoryCacheEntry struct {
	metrics   DashboardMetrics
	expiresAt time.Time
}

// NewMemoryDashboardCache creates an empty cache
func NewMemoryDashboardCache() *MemoryDashboardCache {
	return &MemoryDashboardCache{entries: make(map[string]memoryCacheEntry), now: time.Now}
}

func (c *MemoryDashboardCache) Get(_ context.Context, key string) (*DashboardMetrics, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	metrics := entry.metrics
	return &metrics, true, nil
}

func (c *MemoryDashboardCache) Set(_ context.Context, key string, metrics DashboardMetrics, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	entry := memoryCacheEntry{metrics: metrics}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	c.entries[key] = entry
	return nil
}

// Len returns the number of stored entries
func (c *MemoryDashboardCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
