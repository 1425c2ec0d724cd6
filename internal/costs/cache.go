// internal/costs/cache.go
package costs

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/liduanken/bakery-quotation-agent/internal/common/database"
	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
	"github.com/liduanken/bakery-quotation-agent/internal/common/metrics"
	"github.com/liduanken/bakery-quotation-agent/internal/models"
)

const cacheKeyPrefix = "material_cost:"

// CachedSource layers a Redis cache over another cost source. Cache
// failures degrade to the backing source, never to an error.
type CachedSource struct {
	backing Source
	redis   *database.RedisClient
	ttl     time.Duration
	logger  logger.Logger
}

// NewCachedSource wraps backing with a per-material Redis cache.
func NewCachedSource(backing Source, rdb *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{backing: backing, redis: rdb, ttl: ttl, logger: log}
}

// LookupBulk serves what it can from the cache and fetches the rest from
// the backing source in one call.
func (c *CachedSource) LookupBulk(ctx context.Context, names []string) (map[string]models.MaterialCost, error) {
	result := make(map[string]models.MaterialCost, len(names))
	var misses []string

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if cost, ok := c.cacheGet(ctx, key); ok {
			metrics.CostCacheHits.WithLabelValues("hit").Inc()
			result[key] = cost
			continue
		}
		metrics.CostCacheHits.WithLabelValues("miss").Inc()
		misses = append(misses, key)
	}

	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := c.backing.LookupBulk(ctx, misses)
	if err != nil {
		return nil, err
	}
	for key, cost := range fetched {
		result[key] = cost
		c.cacheSet(ctx, key, cost)
	}
	return result, nil
}

// Get returns one material cost, caching backing-store hits.
func (c *CachedSource) Get(ctx context.Context, name string) (*models.MaterialCost, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if cost, ok := c.cacheGet(ctx, key); ok {
		metrics.CostCacheHits.WithLabelValues("hit").Inc()
		return &cost, nil
	}
	metrics.CostCacheHits.WithLabelValues("miss").Inc()

	cost, err := c.backing.Get(ctx, key)
	if err != nil || cost == nil {
		return cost, err
	}
	c.cacheSet(ctx, key, *cost)
	return cost, nil
}

// List bypasses the cache; full listings are rare and must be current.
func (c *CachedSource) List(ctx context.Context) ([]models.MaterialCost, error) {
	metrics.CostCacheHits.WithLabelValues("bypass").Inc()
	return c.backing.List(ctx)
}

// Search bypasses the cache.
func (c *CachedSource) Search(ctx context.Context, pattern string) ([]models.MaterialCost, error) {
	metrics.CostCacheHits.WithLabelValues("bypass").Inc()
	return c.backing.Search(ctx, pattern)
}

// Invalidate drops cached entries for the given materials.
func (c *CachedSource) Invalidate(ctx context.Context, names ...string) {
	keys := make([]string, 0, len(names))
	for _, n := range names {
		keys = append(keys, cacheKeyPrefix+strings.ToLower(strings.TrimSpace(n)))
	}
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...); err != nil {
		c.logger.Warn("cost cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *CachedSource) cacheGet(ctx context.Context, key string) (models.MaterialCost, bool) {
	raw, err := c.redis.Get(ctx, cacheKeyPrefix+key)
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cost cache read failed", map[string]interface{}{
				"material": key,
				"error":    err.Error(),
			})
		}
		return models.MaterialCost{}, false
	}

	var cost models.MaterialCost
	if err := json.Unmarshal([]byte(raw), &cost); err != nil {
		c.logger.Warn("cost cache entry corrupt, discarding", map[string]interface{}{
			"material": key,
		})
		return models.MaterialCost{}, false
	}
	return cost, true
}

func (c *CachedSource) cacheSet(ctx context.Context, key string, cost models.MaterialCost) {
	raw, err := json.Marshal(cost)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKeyPrefix+key, raw, c.ttl); err != nil {
		c.logger.Warn("cost cache write failed", map[string]interface{}{
			"material": key,
			"error":    err.Error(),
		})
	}
}
