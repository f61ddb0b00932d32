package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	redisv9 "github.com/redis/go-redis/v9"

	"demotrade_backend/internal/app/di"
	"demotrade_backend/internal/app/router"
	marketadapters "demotrade_backend/internal/feature/market/adapters"
	markethandler "demotrade_backend/internal/feature/market/transport/handler"
	"demotrade_backend/internal/feature/market/transport/stream"
	marketusecase "demotrade_backend/internal/feature/market/usecase"
	sessionhandler "demotrade_backend/internal/feature/session/transport/handler"
	sessionusecase "demotrade_backend/internal/feature/session/usecase"
	symbollistadapters "demotrade_backend/internal/feature/symbollist/adapters"
	symbollisthandler "demotrade_backend/internal/feature/symbollist/transport/handler"
	symbollistusecase "demotrade_backend/internal/feature/symbollist/usecase"
	walletadapters "demotrade_backend/internal/feature/wallet/adapters"
	wallethandler "demotrade_backend/internal/feature/wallet/transport/handler"
	walletusecase "demotrade_backend/internal/feature/wallet/usecase"
	infradb "demotrade_backend/internal/platform/db"
	platformhandler "demotrade_backend/internal/platform/http/handler"
	jwtmw "demotrade_backend/internal/platform/jwt"
	infraredis "demotrade_backend/internal/platform/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	// db
	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv())
	if err != nil {
		return err
	}

	// Redis
	var rdb *redisv9.Client
	if rcfg := infraredis.LoadConfig(); rcfg.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, rcfg); err != nil {
			slog.Warn("Redis unavailable. Running without cache.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// JWT_SECRETチェック
	secret := os.Getenv(jwtmw.EnvKeyJWTSecret)
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	// Symbol catalogue
	marketCfg := marketusecase.LoadConfig()
	symbolRepo := symbollistadapters.NewSymbolRepository(db)
	symbolUC := symbollistusecase.NewSymbolUsecase(symbolRepo)
	if err := symbolUC.EnsureSeeded(ctx, marketCfg.Symbols); err != nil {
		return err
	}
	codes, err := symbolUC.ActiveCodes(ctx)
	if err != nil {
		return err
	}
	fallbacks, err := symbolUC.FallbackPrices(ctx)
	if err != nil {
		return err
	}

	// Market board
	seeds := di.NewSeedSource(rdb)
	osc := di.NewOscillator(marketCfg, seeds, fallbacks)
	board := marketusecase.NewBoard(marketCfg, osc, clock, di.NewSeedRateLimiter(clock))
	if err := board.Open(ctx, codes); err != nil {
		return err
	}

	candleRepo := marketadapters.NewCandleRepository(db)
	hub := stream.NewHub(board)
	recorder := marketusecase.NewCandleRecorder(candleRepo, marketusecase.DefaultRecordBuffer)
	board.Subscribe(recorder.Handle)
	board.Subscribe(hub.Publish)

	if err := board.Start(ctx); err != nil {
		return err
	}

	// Sessions and wallets
	walletCfg := walletusecase.LoadConfig()
	sessionCfg := sessionusecase.LoadConfig()
	ledgers := di.NewLedgerFactory(walletCfg, board, walletadapters.NewBetRepository(db), clock)
	sessions := sessionusecase.NewManager(
		di.NewSessionRepository(rdb, db),
		jwtmw.NewGenerator(secret, sessionCfg.TTL, clock),
		ledgers,
		clock,
		sessionCfg,
	)
	go sessions.Run(ctx)

	// Handler
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	health := platformhandler.NewHealthHandler(map[string]platformhandler.Probe{
		"db": sqlDB.PingContext,
	})

	r := router.NewRouter(router.Handlers{
		Health:  health,
		Symbol:  symbollisthandler.NewSymbolHandler(symbolUC),
		Market:  markethandler.NewMarketHandler(marketusecase.NewMarketUsecase(board, candleRepo)),
		Stream:  hub,
		Session: sessionhandler.NewSessionHandler(sessions),
		Wallet:  wallethandler.NewWalletHandler(walletusecase.NewWalletUsecase(sessions, walletCfg.ResolutionDelay)),
	}, router.Options{AllowAllOrigins: os.Getenv("CORS_ALLOW_ALL") == "true"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "symbols", codes)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			board.Stop()
			recorder.Close()
			sessions.CloseAll()
			hub.Close()
			return err
		}
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// ティックと決済を先に止めてから接続を閉じる
	board.Stop()
	recorder.Close()
	sessions.CloseAll()
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}
