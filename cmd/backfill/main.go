package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	redisv9 "github.com/redis/go-redis/v9"

	"demotrade_backend/internal/app/di"
	marketadapters "demotrade_backend/internal/feature/market/adapters"
	marketusecase "demotrade_backend/internal/feature/market/usecase"
	symbollistadapters "demotrade_backend/internal/feature/symbollist/adapters"
	symbollistusecase "demotrade_backend/internal/feature/symbollist/usecase"
	infradb "demotrade_backend/internal/platform/db"
	infraredis "demotrade_backend/internal/platform/redis"
)

func main() {
	count := flag.Int("count", marketusecase.DefaultHistoryCandles, "number of historical candles to generate per symbol")
	refresh := flag.Bool("refresh-seeds", false, "purge cached seed prices before fetching")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv())
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	var rdb *redisv9.Client
	if rcfg := infraredis.LoadConfig(); rcfg.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, rcfg); err == nil {
			rdb = tmp
			defer func() { _ = rdb.Close() }()
		}
	}

	clock := clockwork.NewRealClock()
	cfg := marketusecase.LoadConfig()

	symbolUC := symbollistusecase.NewSymbolUsecase(symbollistadapters.NewSymbolRepository(db))
	if err := symbolUC.EnsureSeeded(ctx, cfg.Symbols); err != nil {
		slog.Error("failed to seed symbols", "error", err)
		os.Exit(1)
	}
	symbols, err := symbolUC.ActiveCodes(ctx)
	if err != nil {
		slog.Error("failed to load symbols", "error", err)
		os.Exit(1)
	}
	fallbacks, err := symbolUC.FallbackPrices(ctx)
	if err != nil {
		slog.Error("failed to load fallback prices", "error", err)
		os.Exit(1)
	}

	seeds := di.NewSeedSource(rdb)
	if *refresh {
		if err := seeds.Purge(ctx); err != nil {
			slog.Warn("failed to purge seed cache", "error", err)
		}
	}

	uc := marketusecase.NewBackfillUsecase(
		di.NewOscillator(cfg, seeds, fallbacks),
		marketadapters.NewCandleRepository(db),
		di.NewSeedRateLimiter(clock),
		clock,
		cfg,
	)
	if err := uc.BackfillAll(ctx, symbols, *count); err != nil {
		slog.Error("backfill failed", "error", err)
		os.Exit(1)
	}
	slog.Info("backfill ok", "symbols", symbols, "count", *count)
}
