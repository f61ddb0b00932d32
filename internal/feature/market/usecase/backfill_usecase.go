package usecase

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"demotrade_backend/internal/shared/ratelimiter"
)

// BackfillUsecase はシミュレーションの過去足を生成し、データベースに永続化するユースケースです。
type BackfillUsecase struct {
	osc         *Oscillator
	candles     CandleRepository
	rateLimiter ratelimiter.RateLimiterInterface
	clock       clockwork.Clock
	cfg         Config
}

// NewBackfillUsecase は新しい BackfillUsecase を作成します。
func NewBackfillUsecase(osc *Oscillator, candles CandleRepository, rateLimiter ratelimiter.RateLimiterInterface, clock clockwork.Clock, cfg Config) *BackfillUsecase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &BackfillUsecase{osc: osc, candles: candles, rateLimiter: rateLimiter, clock: clock, cfg: cfg}
}

// backfillOne は1銘柄分の過去足を生成して保存します。
func (u *BackfillUsecase) backfillOne(ctx context.Context, symbol string, count int) error {
	seed := u.osc.Initialize(ctx, symbol)
	end := u.clock.Now().Truncate(u.cfg.RoundDuration).Add(-u.cfg.RoundDuration)
	cs := u.osc.History(symbol, seed, end, count, u.cfg.RoundDuration)
	return u.candles.UpsertBatch(ctx, cs)
}

// BackfillAll は指定された全銘柄の過去足を count 本ずつ生成して保存します。
// 1つの銘柄で失敗しても処理を止めずにログに出力し、次の銘柄へ進みます。
func (u *BackfillUsecase) BackfillAll(ctx context.Context, symbols []string, count int) error {
	for _, s := range symbols {
		if u.rateLimiter != nil {
			if err := u.rateLimiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := u.backfillOne(ctx, s, count); err != nil {
			slog.Error("failed to backfill candles", "symbol", s, "count", count, "error", err)
			continue
		}
		slog.Info("backfilled candles", "symbol", s, "count", count)
	}
	return nil
}
