package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/openmohaa/tactical-api/internal/models"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryPlanCache is the in-process fallback when no Redis is configured.
// Plans are stored encoded so callers never share mutable state.
type MemoryPlanCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	hits    int64
	misses  int64
}

func NewMemoryPlanCache(ttl time.Duration) *MemoryPlanCache {
	return &MemoryPlanCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryPlanCache) Get(_ context.Context, key string) (*models.TacticalPlan, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses++
		c.mu.Unlock()
		return nil, nil
	}
	c.hits++
	c.mu.Unlock()

	var plan models.TacticalPlan
	if err := json.Unmarshal(e.data, &plan); err != nil {
		return nil, fmt.Errorf("decode cached plan: %w", err)
	}
	return &plan, nil
}

func (c *MemoryPlanCache) Set(_ context.Context, key string, plan *models.TacticalPlan, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryPlanCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryPlanCache) Clear(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]memoryEntry)
	return n, nil
}

func (c *MemoryPlanCache) Stats(_ context.Context) (models.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	return models.CacheStats{
		Backend:    "memory",
		Entries:    len(c.entries),
		Hits:       c.hits,
		Misses:     c.misses,
		TTLSeconds: int64(c.ttl.Seconds()),
	}, nil
}
