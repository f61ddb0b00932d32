package usecase

import (
	"context"

	"demotrade_backend/internal/feature/market/domain/entity"
)

const (
	// DefaultCandleLimit はローソク足履歴のデフォルト返却件数です。
	DefaultCandleLimit = 200
	// MaxCandleLimit はローソク足履歴の最大返却件数です。
	MaxCandleLimit = 5000
)

// CandleRepository は確定済みローソク足の永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleRepository interface {
	// UpsertBatch は銘柄と開始時刻をキーにローソク足を挿入または更新します。
	UpsertBatch(ctx context.Context, candles []entity.Candle) error
	// Find は指定銘柄のローソク足を新しい順に最大 limit 件返します。
	Find(ctx context.Context, symbol string, limit int) ([]entity.Candle, error)
}

// BoardReader はマーケットの現在状態を読み取るためのインターフェースです。
type BoardReader interface {
	Symbols() []string
	Snapshot(symbol string) (entity.Snapshot, error)
}

// marketUsecase はマーケット情報の参照ユースケースです。
type marketUsecase struct {
	board   BoardReader
	candles CandleRepository
}

// NewMarketUsecase は marketUsecase の新しいインスタンスを生成します。
func NewMarketUsecase(board BoardReader, candles CandleRepository) *marketUsecase {
	return &marketUsecase{board: board, candles: candles}
}

// GetSnapshot は銘柄の進行中の足・ラウンド・価格統計を返します。
func (u *marketUsecase) GetSnapshot(ctx context.Context, symbol string) (entity.Snapshot, error) {
	return u.board.Snapshot(symbol)
}

// GetCandles は永続化された確定済みローソク足を新しい順に返します。
// limit が範囲外の場合はデフォルト値を使用します。
func (u *marketUsecase) GetCandles(ctx context.Context, symbol string, limit int) ([]entity.Candle, error) {
	if _, err := u.board.Snapshot(symbol); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxCandleLimit {
		limit = DefaultCandleLimit
	}
	return u.candles.Find(ctx, symbol, limit)
}
