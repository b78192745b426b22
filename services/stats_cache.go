package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/go-redis/redis/v8"
)

var ErrStatsCacheMiss = errors.New("platform stats not cached")

// StatsCache keeps the last successfully computed platform stats for degraded reads.
type StatsCache interface {
	Get(ctx context.Context, month string) (*models.PlatformStats, error)
	Set(ctx context.Context, stats *models.PlatformStats) error
}

type RedisStatsCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStatsCache(client *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{client: client, prefix: "platform_stats:", ttl: 45 * 24 * time.Hour}
}

func (c *RedisStatsCache) Get(ctx context.Context, month string) (*models.PlatformStats, error) {
	data, err := c.client.Get(ctx, c.prefix+month).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStatsCacheMiss
	}
	if err != nil {
		return nil, err
	}
	var stats models.PlatformStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats *models.PlatformStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+stats.Month, data, c.ttl).Err()
}

// MemoryStatsCache is the in-process fallback when Redis is not configured.
type MemoryStatsCache struct {
	mu    sync.RWMutex
	stats map[string]models.PlatformStats
}

func NewMemoryStatsCache() *MemoryStatsCache {
	return &MemoryStatsCache{stats: make(map[string]models.PlatformStats)}
}

func (c *MemoryStatsCache) Get(_ context.Context, month string) (*models.PlatformStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.stats[month]
	if !ok {
		return nil, ErrStatsCacheMiss
	}
	return &s, nil
}

func (c *MemoryStatsCache) Set(_ context.Context, stats *models.PlatformStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[stats.Month] = *stats
	return nil
}
