// Package db opens the application's GORM connection.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	marketadapters "demotrade_backend/internal/feature/market/adapters"
	sessionadapters "demotrade_backend/internal/feature/session/adapters"
	symboladapters "demotrade_backend/internal/feature/symbollist/adapters"
	walletadapters "demotrade_backend/internal/feature/wallet/adapters"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLitePath = "./demotrade.db"
	connectTimeout    = 60 * time.Second
	retryInterval     = 3 * time.Second
)

// Config holds database connection settings.
type Config struct {
	Driver        string
	URL           string // postgres URL; takes precedence over the discrete fields
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	Path          string // sqlite file path
	RunMigrations bool
}

// LoadConfigFromEnv reads database settings from the environment.
// Postgres is selected when DATABASE_URL or DB_HOST is set, otherwise sqlite.
// Migrations are opt-in for postgres and opt-out for sqlite.
func LoadConfigFromEnv() Config {
	cfg := Config{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		Path:     os.Getenv("DB_PATH"),
	}
	migrations := os.Getenv("RUN_MIGRATIONS")
	if cfg.URL != "" || cfg.Host != "" {
		cfg.Driver = DriverPostgres
		cfg.RunMigrations = migrations == "true"
	} else {
		// ローカルのsqliteは明示的に無効化しない限り常にマイグレーションする
		cfg.Driver = DriverSQLite
		cfg.RunMigrations = migrations != "false"
	}
	if cfg.Path == "" {
		cfg.Path = defaultSQLitePath
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	return cfg
}

// BuildDSN returns the connection string for the configured driver.
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverSQLite {
		return cfg.Path
	}
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
}

// ValidateDSN rejects malformed postgres connection strings up front so that
// OpenDB does not spend the whole retry window on a typo.
func ValidateDSN(cfg Config, dsn string) error {
	if cfg.Driver != DriverPostgres {
		return nil
	}
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return fmt.Errorf("invalid postgres dsn: %w", err)
	}
	return nil
}

// Opener opens a GORM connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// NewOpener returns the Opener for the configured driver.
func NewOpener(cfg Config) Opener {
	return func(dsn string) (*gorm.DB, error) {
		if cfg.Driver == DriverSQLite {
			return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		}
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
}

// ConnectWithRetry calls opener until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

// Migrate creates or updates every table the application owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&marketadapters.CandleModel{},
		&walletadapters.BetModel{},
		&sessionadapters.SessionModel{},
		&symboladapters.SymbolModel{},
	)
}

// OpenDB connects with retry and, when RUN_MIGRATIONS is enabled, migrates the schema.
func OpenDB(cfg Config) (*gorm.DB, error) {
	if cfg.Driver == "" {
		return nil, errors.New("db driver not configured")
	}
	dsn := BuildDSN(cfg)
	if err := ValidateDSN(cfg, dsn); err != nil {
		return nil, err
	}

	db, err := ConnectWithRetry(dsn, connectTimeout, NewOpener(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("database connected", "driver", cfg.Driver)

	if cfg.RunMigrations {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		slog.Info("database migrated")
	}
	return db, nil
}
