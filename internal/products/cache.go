package product

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/prostore-backend/pkg/logger"
	"github.com/angelmondragon/prostore-backend/pkg/metrics"
	redisclient "github.com/angelmondragon/prostore-backend/pkg/redis"
)

const cacheScope = "product"

// DetailCache is a read-through Redis cache for product detail lookups.
// Concurrent misses for the same slug share one load.
type DetailCache struct {
	store   redisclient.Cache
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.StoreMetrics
	logg    *logger.Logger
}

// NewDetailCache builds a cache. A nil store disables caching.
func NewDetailCache(store redisclient.Cache, ttl time.Duration, m *metrics.StoreMetrics, logg *logger.Logger) *DetailCache {
	return &DetailCache{store: store, ttl: ttl, metrics: m, logg: logg}
}

// Get returns the cached product for slug, loading and storing it on a miss.
func (c *DetailCache) Get(ctx context.Context, slug string, load func(context.Context) (*ProductDTO, error)) (*ProductDTO, error) {
	if c == nil || c.store == nil {
		return load(ctx)
	}
	key := c.store.CacheKey(cacheScope, slug)

	if raw, err := c.store.Get(ctx, key); err == nil {
		var dto ProductDTO
		if jsonErr := json.Unmarshal([]byte(raw), &dto); jsonErr == nil {
			c.metrics.IncCacheLookup(true)
			return &dto, nil
		}
	} else if !errors.Is(err, redisclient.Nil) {
		c.warn(ctx, "product cache read failed: "+err.Error())
	}
	c.metrics.IncCacheLookup(false)

	v, err, _ := c.group.Do(key, func() (any, error) {
		dto, err := load(ctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(dto)
		if err == nil {
			if setErr := c.store.Set(ctx, key, string(payload), c.ttl); setErr != nil {
				c.warn(ctx, "product cache write failed: "+setErr.Error())
			}
		}
		return dto, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ProductDTO), nil
}

// Invalidate drops the cached entry for slug.
func (c *DetailCache) Invalidate(ctx context.Context, slug string) error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Del(ctx, c.store.CacheKey(cacheScope, slug))
}

func (c *DetailCache) warn(ctx context.Context, msg string) {
	if c.logg != nil {
		c.logg.Warn(ctx, msg)
	}
}
