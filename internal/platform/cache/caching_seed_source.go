// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"demotrade_backend/internal/feature/market/usecase"
)

const (
	// DefaultSeedTTL is how long a fetched seed price is reused.
	DefaultSeedTTL = time.Minute
	// DefaultNamespace prefixes every seed price key.
	DefaultNamespace = "seedprice"
)

// CachingSeedSource decorates a SeedPriceSource with Redis caching.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying source. Restarting several server instances within
// the TTL therefore costs a single upstream request per symbol.
type CachingSeedSource struct {
	inner     usecase.SeedPriceSource
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// Compile-time check to ensure CachingSeedSource implements SeedPriceSource.
var _ usecase.SeedPriceSource = (*CachingSeedSource)(nil)

// NewCachingSeedSource decorates a SeedPriceSource with Redis caching.
// If ttl is 0, it defaults to DefaultSeedTTL. If namespace is empty, it uses "seedprice".
// A nil rdb disables caching.
func NewCachingSeedSource(rdb *redis.Client, ttl time.Duration, inner usecase.SeedPriceSource, namespace string) *CachingSeedSource {
	if ttl <= 0 {
		ttl = DefaultSeedTTL
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingSeedSource{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// TTLFromEnv reads SEED_PRICE_CACHE_TTL, falling back to DefaultSeedTTL.
func TTLFromEnv() time.Duration {
	raw := os.Getenv("SEED_PRICE_CACHE_TTL")
	if raw == "" {
		return DefaultSeedTTL
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("invalid SEED_PRICE_CACHE_TTL, using default", "value", raw, "default", DefaultSeedTTL)
		return DefaultSeedTTL
	}
	return d
}

// GetPrice returns a cached seed price, falling back to the inner source on a miss.
func (c *CachingSeedSource) GetPrice(ctx context.Context, symbol string) (float64, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.GetPrice(ctx, symbol)
	}

	key := c.cacheKey(symbol)

	// 1) Check cache
	if s, err := c.rdb.Get(ctx, key).Result(); err == nil && s != "" {
		if p, err := strconv.ParseFloat(s, 64); err == nil && p > 0 {
			return p, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to upstream
	p, err := c.inner.GetPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}

	// 3) Store in cache (best effort)
	_ = c.rdb.Set(ctx, key, strconv.FormatFloat(p, 'f', -1, 64), c.ttl).Err()
	return p, nil
}

// Purge deletes every cached seed price in the namespace.
func (c *CachingSeedSource) Purge(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.deleteByPattern(ctx, c.namespace+":*")
}

// cacheKey generates a cache key for a symbol.
func (c *CachingSeedSource) cacheKey(symbol string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(symbol))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingSeedSource) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return strings.ToUpper(s)
}
