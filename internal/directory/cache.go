package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// DefaultCacheTTL bounds how stale a cached directory may get.
const DefaultCacheTTL = 5 * time.Minute

var (
	_ Source      = (*CachedSource)(nil)
	_ Invalidator = (*CachedSource)(nil)
)

// CachedSource serves professionals and services from Redis, filling misses
// from the upstream source. Redis failures fall through to upstream.
type CachedSource struct {
	upstream Source
	redis    *redis.Client
	ttl      time.Duration
	logger   *logging.Logger
}

// NewCachedSource wraps upstream with a Redis cache. A nil client disables caching.
func NewCachedSource(upstream Source, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedSource {
	if upstream == nil {
		panic("directory: upstream source required")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedSource{upstream: upstream, redis: redisClient, ttl: ttl, logger: logger}
}

func (c *CachedSource) key(clinicID int64, kind string) string {
	return fmt.Sprintf("scheduler:directory:%d:%s", clinicID, kind)
}

// Professionals returns the clinic's professionals.
func (c *CachedSource) Professionals(ctx context.Context, clinicID int64) ([]Professional, error) {
	var out []Professional
	if c.get(ctx, c.key(clinicID, "professionals"), &out) {
		return out, nil
	}
	out, err := c.upstream.Professionals(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, c.key(clinicID, "professionals"), out)
	return out, nil
}

// Services returns the clinic's services.
func (c *CachedSource) Services(ctx context.Context, clinicID int64) ([]Service, error) {
	var out []Service
	if c.get(ctx, c.key(clinicID, "services"), &out) {
		return out, nil
	}
	out, err := c.upstream.Services(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, c.key(clinicID, "services"), out)
	return out, nil
}

// Invalidate drops the cached directory of a clinic.
func (c *CachedSource) Invalidate(ctx context.Context, clinicID int64) error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, c.key(clinicID, "professionals"), c.key(clinicID, "services")).Err(); err != nil {
		return fmt.Errorf("directory: invalidate: %w", err)
	}
	return nil
}

func (c *CachedSource) get(ctx context.Context, key string, out any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("directory cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("directory cache entry unreadable", "key", key, "error", err)
		return false
	}
	return true
}

func (c *CachedSource) set(ctx context.Context, key string, v any) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("directory cache write failed", "key", key, "error", err)
	}
}
