package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

const servicesCacheKey = "catalog:services"

// ServiceLister is satisfied by Repository and by the cache itself.
type ServiceLister interface {
	ListServices(ctx context.Context) ([]*Service, error)
}

// Cache fronts the service catalog with a Redis read-through cache. The
// catalog changes rarely and is read on every booking screen, so a short TTL
// keeps the table out of the hot path. A nil client degrades to direct reads.
type Cache struct {
	source ServiceLister
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache wraps source with a Redis cache.
func NewCache(source ServiceLister, client *redis.Client, ttl time.Duration, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{source: source, client: client, ttl: ttl, logger: logger}
}

// ListServices returns the cached catalog, falling back to the source on
// miss or on any cache error.
func (c *Cache) ListServices(ctx context.Context) ([]*Service, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, servicesCacheKey).Bytes()
		if err == nil {
			var cached []*Service
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			c.logger.Warn("catalog cache entry corrupt, refetching", "error", err)
		} else if err != redis.Nil {
			c.logger.Warn("catalog cache read failed", "error", err)
		}
	}

	services, err := c.source.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if raw, err := json.Marshal(services); err == nil {
			if err := c.client.Set(ctx, servicesCacheKey, raw, c.ttl).Err(); err != nil {
				c.logger.Warn("catalog cache write failed", "error", err)
			}
		}
	}
	return services, nil
}

// Invalidate drops the cached catalog.
func (c *Cache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, servicesCacheKey).Err(); err != nil {
		c.logger.Warn("catalog cache invalidate failed", "error", err)
	}
}
