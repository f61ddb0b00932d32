// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"demotrade_backend/internal/feature/market/usecase"
	"demotrade_backend/internal/platform/cache"
	"demotrade_backend/internal/platform/externalapi/binance"
	infrahttp "demotrade_backend/internal/platform/http"
	"demotrade_backend/internal/shared/ratelimiter"
)

const userAgent = "demotrade-backend"

// NewSeedSource creates the Binance seed price source, wrapped in a Redis cache.
// A nil rdb disables the cache.
func NewSeedSource(rdb *redis.Client) *cache.CachingSeedSource {
	cfg := binance.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout, infrahttp.WithUserAgent(userAgent))
	upstream := binance.NewBinanceSeedSource(cfg, httpClient)
	return cache.NewCachingSeedSource(rdb, cache.TTLFromEnv(), upstream, cache.DefaultNamespace)
}

// NewSeedRateLimiter creates the limiter shared by every seed price request.
func NewSeedRateLimiter(clock clockwork.Clock) *ratelimiter.RateLimiter {
	cfg := binance.LoadConfig()
	return ratelimiter.NewRateLimiter(cfg.RateLimit, cfg.RateInterval, clock)
}

// NewOscillator creates the price oscillator with catalogue fallbacks.
func NewOscillator(cfg usecase.Config, seeds usecase.SeedPriceSource, fallbacks map[string]float64) *usecase.Oscillator {
	return usecase.NewOscillator(cfg.Volatility, usecase.DefaultRandom, seeds, fallbacks)
}
