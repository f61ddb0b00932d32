package usecase

import (
	"log/slog"
	"os"
	"time"
)

const (
	// DefaultTTL is how long a demo session (and its token) stays valid.
	DefaultTTL = 24 * time.Hour
	// DefaultSweepInterval is how often expired sessions are torn down.
	DefaultSweepInterval = time.Minute
)

// Config holds session lifetime settings.
type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// LoadConfig reads session settings from the environment.
// JWT_EXPIRATION doubles as the session TTL so a token never outlives its ledger.
func LoadConfig() Config {
	return Config{
		TTL:           envDuration("JWT_EXPIRATION", DefaultTTL),
		SweepInterval: envDuration("SESSION_SWEEP_INTERVAL", DefaultSweepInterval),
	}
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}
