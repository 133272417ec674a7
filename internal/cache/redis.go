// Package cache stores built tactical plans behind logic.PlanCache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openmohaa/tactical-api/internal/logic"
	"github.com/openmohaa/tactical-api/internal/models"
)

// KeyPrefix namespaces plan keys in a shared Redis.
const KeyPrefix = "football_tactical:tactical_plan:"

const scanBatch = 200

// RedisPlanCache keeps plans as JSON strings with a per-key TTL.
type RedisPlanCache struct {
	client logic.RedisClient
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisPlanCache(client logic.RedisClient, ttl time.Duration) *RedisPlanCache {
	return &RedisPlanCache{client: client, ttl: ttl}
}

func (c *RedisPlanCache) Get(ctx context.Context, key string) (*models.TacticalPlan, error) {
	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var plan models.TacticalPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		// An undecodable entry reads as a miss and is overwritten on rebuild.
		c.misses.Add(1)
		return nil, nil
	}
	c.hits.Add(1)
	return &plan, nil
}

func (c *RedisPlanCache) Set(ctx context.Context, key string, plan *models.TacticalPlan, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := c.client.Set(ctx, KeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisPlanCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, KeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes every plan key and returns how many were deleted.
func (c *RedisPlanCache) Clear(ctx context.Context) (int, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		n, err := c.client.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			return removed, fmt.Errorf("redis del: %w", err)
		}
		removed += int(n)
	}
	return removed, nil
}

func (c *RedisPlanCache) Stats(ctx context.Context) (models.CacheStats, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return models.CacheStats{}, err
	}
	return models.CacheStats{
		Backend:    "redis",
		Entries:    len(keys),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		TTLSeconds: int64(c.ttl.Seconds()),
	}, nil
}

func (c *RedisPlanCache) keys(ctx context.Context) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, KeyPrefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		out = append(out, keys...)
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}
