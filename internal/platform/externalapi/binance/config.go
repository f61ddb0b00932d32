// Package binance provides a client for the Binance public spot ticker API,
// used only to seed the simulated prices.
package binance

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the public Binance REST endpoint.
	DefaultBaseURL = "https://api.binance.com"
	// DefaultRateLimit is the maximum number of seed requests per RateInterval.
	DefaultRateLimit = 8
	// DefaultRateInterval is the window for RateLimit.
	DefaultRateInterval = time.Minute
)

// Config holds configuration for the Binance API client.
type Config struct {
	BaseURL      string        // Base URL for the API (e.g., "https://api.binance.com")
	Timeout      time.Duration // HTTP request timeout
	RateLimit    int           // Max requests per RateInterval
	RateInterval time.Duration
}

// LoadConfig loads Binance configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		BaseURL:      os.Getenv("SEED_PRICE_BASE_URL"),
		Timeout:      10 * time.Second,
		RateLimit:    DefaultRateLimit,
		RateInterval: DefaultRateInterval,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if raw := os.Getenv("SEED_PRICE_RATE_LIMIT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			slog.Warn("invalid SEED_PRICE_RATE_LIMIT, using default", "value", raw, "default", DefaultRateLimit)
		} else {
			cfg.RateLimit = n
		}
	}
	return cfg
}
