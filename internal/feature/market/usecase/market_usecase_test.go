package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demotrade_backend/internal/feature/market/domain/entity"
)

// mockCandleRepository は CandleRepository インターフェースのモック実装です。
type mockCandleRepository struct {
	mu              sync.Mutex
	UpsertBatchFunc func(ctx context.Context, candles []entity.Candle) error
	FindFunc        func(ctx context.Context, symbol string, limit int) ([]entity.Candle, error)
	upserted        [][]entity.Candle
}

func (m *mockCandleRepository) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	m.mu.Lock()
	m.upserted = append(m.upserted, candles)
	m.mu.Unlock()
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, candles)
	}
	return nil
}

func (m *mockCandleRepository) Find(ctx context.Context, symbol string, limit int) ([]entity.Candle, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, symbol, limit)
	}
	return nil, errors.New("FindFunc is not implemented")
}

// mockBoardReader は BoardReader インターフェースのモック実装です。
type mockBoardReader struct {
	symbols []string
}

func (m *mockBoardReader) Symbols() []string { return m.symbols }

func (m *mockBoardReader) Snapshot(symbol string) (entity.Snapshot, error) {
	for _, s := range m.symbols {
		if s == symbol {
			return entity.Snapshot{Symbol: symbol, Current: entity.NewCandle(symbol, testStart, 100)}, nil
		}
	}
	return entity.Snapshot{}, ErrUnknownSymbol
}

func TestMarketUsecase_GetCandles(t *testing.T) {
	t.Parallel()

	stored := []entity.Candle{
		entity.NewCandle("BTCUSDT", testStart, 101),
		entity.NewCandle("BTCUSDT", testStart.Add(-30*time.Second), 100),
	}

	tests := []struct {
		name      string
		symbol    string
		limit     int
		wantLimit int
		findErr   error
		wantErr   error
		wantLen   int
	}{
		{name: "success: explicit limit", symbol: "BTCUSDT", limit: 10, wantLimit: 10, wantLen: 2},
		{name: "default: zero limit", symbol: "BTCUSDT", limit: 0, wantLimit: DefaultCandleLimit, wantLen: 2},
		{name: "default: limit above maximum", symbol: "BTCUSDT", limit: MaxCandleLimit + 1, wantLimit: DefaultCandleLimit, wantLen: 2},
		{name: "error: unknown symbol", symbol: "DOGEUSDT", limit: 10, wantErr: ErrUnknownSymbol},
		{name: "error: repository failure", symbol: "BTCUSDT", limit: 10, wantLimit: 10, findErr: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotLimit int
			repo := &mockCandleRepository{
				FindFunc: func(ctx context.Context, symbol string, limit int) ([]entity.Candle, error) {
					gotLimit = limit
					if tt.findErr != nil {
						return nil, tt.findErr
					}
					return stored, nil
				},
			}
			uc := NewMarketUsecase(&mockBoardReader{symbols: []string{"BTCUSDT"}}, repo)

			got, err := uc.GetCandles(context.Background(), tt.symbol, tt.limit)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				return
			case tt.findErr != nil:
				assert.ErrorIs(t, err, tt.findErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantLimit, gotLimit)
		})
	}
}

func TestMarketUsecase_GetSnapshot(t *testing.T) {
	t.Parallel()

	uc := NewMarketUsecase(&mockBoardReader{symbols: []string{"BTCUSDT"}}, &mockCandleRepository{})

	snap, err := uc.GetSnapshot(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", snap.Symbol)

	_, err = uc.GetSnapshot(context.Background(), "ETHUSDT")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func (m *mockCandleRepository) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserted)
}

// TestCandleRecorder は確定イベントのみが保存されることを検証します。
func TestCandleRecorder(t *testing.T) {
	t.Parallel()

	repo := &mockCandleRepository{}
	rec := NewCandleRecorder(repo, 0)

	sealed := entity.NewCandle("BTCUSDT", testStart, 100).Apply(102)
	rec.Handle(Event{Kind: EventTick, Symbol: "BTCUSDT", Candle: sealed})
	rec.Handle(Event{Kind: EventSettle, Symbol: "BTCUSDT", Candle: sealed})
	rec.Close()

	require.Len(t, repo.upserted, 1)
	assert.Equal(t, []entity.Candle{sealed}, repo.upserted[0])

	// Close 後のイベントは無視される
	rec.Handle(Event{Kind: EventSettle, Symbol: "BTCUSDT", Candle: sealed})
	rec.Close()
	assert.Equal(t, 1, repo.upsertCount())

	// 保存に失敗しても panic しない
	failing := NewCandleRecorder(&mockCandleRepository{UpsertBatchFunc: func(ctx context.Context, candles []entity.Candle) error {
		return errors.New("db down")
	}}, 0)
	assert.NotPanics(t, func() {
		failing.Handle(Event{Kind: EventSettle, Symbol: "BTCUSDT", Candle: sealed})
		failing.Close()
	})
}

// TestCandleRecorder_SlowRepositoryDoesNotBlock は保存が遅くても Handle が待たされず、
// キューが溢れた足だけが破棄されることを検証します。
func TestCandleRecorder_SlowRepositoryDoesNotBlock(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	repo := &mockCandleRepository{UpsertBatchFunc: func(ctx context.Context, candles []entity.Candle) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}}
	rec := NewCandleRecorder(repo, 2)

	settle := func(i int) Event {
		c := entity.NewCandle("BTCUSDT", testStart.Add(time.Duration(i)*30*time.Second), 100)
		return Event{Kind: EventSettle, Symbol: "BTCUSDT", Candle: c}
	}

	rec.Handle(settle(0))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not pick up the first candle")
	}

	handled := make(chan struct{})
	go func() {
		for i := 1; i <= 3; i++ {
			rec.Handle(settle(i))
		}
		close(handled)
	}()
	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("Handle blocked on a slow repository")
	}

	close(release)
	rec.Close()

	// 1本目は書き込み中、2本はキューに入り、残り1本は破棄される
	require.Equal(t, 3, repo.upsertCount())
	assert.Equal(t, testStart, repo.upserted[0][0].OpenTime)
	assert.Equal(t, testStart.Add(30*time.Second), repo.upserted[1][0].OpenTime)
	assert.Equal(t, testStart.Add(60*time.Second), repo.upserted[2][0].OpenTime)
}

// TestCandleRecorder_WithScheduler はスケジューラの確定足がそのまま保存されることを検証します。
func TestCandleRecorder_WithScheduler(t *testing.T) {
	t.Parallel()

	repo := &mockCandleRepository{}
	rec := NewCandleRecorder(repo, 0)
	s := newTestScheduler(100, nil, &seqWalker{prices: []float64{101, 99, 102}}, clockwork.NewFakeClockAt(testStart))
	s.Subscribe(rec.Handle)

	for i := 0; i < 3; i++ {
		s.Step()
	}
	rec.Close()

	require.Len(t, repo.upserted, 1)
	got := repo.upserted[0][0]
	assert.Equal(t, 100.0, got.Open)
	assert.Equal(t, 102.0, got.High)
	assert.Equal(t, 99.0, got.Low)
	assert.Equal(t, 102.0, got.Close)
}

func TestBackfillUsecase_BackfillAll(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 9, 0, 17, 0, time.UTC)
	cfg := Config{RoundDuration: 30 * time.Second}
	osc := NewOscillator(0.01, constRandom(0.6), &mockSeedPriceSource{
		GetPriceFunc: func(ctx context.Context, symbol string) (float64, error) {
			if symbol == "ETHUSDT" {
				return 0, ErrFeedUnavailable
			}
			return 50000, nil
		},
	}, nil)

	repo := &mockCandleRepository{
		UpsertBatchFunc: func(ctx context.Context, candles []entity.Candle) error {
			if candles[0].Symbol == "SOLUSDT" {
				return errors.New("db down")
			}
			return nil
		},
	}
	limiter := &mockRateLimiter{}
	uc := NewBackfillUsecase(osc, repo, limiter, clockwork.NewFakeClockAt(now), cfg)

	err := uc.BackfillAll(context.Background(), []string{"BTCUSDT", "SOLUSDT", "ETHUSDT"}, 10)
	require.NoError(t, err, "a failing symbol must not stop the backfill")
	assert.Equal(t, 3, limiter.WaitCalls)
	require.Len(t, repo.upserted, 3)

	btc := repo.upserted[0]
	require.Len(t, btc, 10)
	assert.Equal(t, 50000.0, btc[0].Open)
	// 最後の足は現在のラウンドの1つ前に揃える
	assert.Equal(t, time.Date(2024, 1, 2, 8, 59, 30, 0, time.UTC), btc[9].OpenTime)

	eth := repo.upserted[2]
	assert.Equal(t, 3000.0, eth[0].Open, "seed failure falls back to the fixed price")
}

func TestBackfillUsecase_RateLimitCancelled(t *testing.T) {
	t.Parallel()

	limiter := &mockRateLimiter{WaitFunc: func(ctx context.Context) error { return context.Canceled }}
	repo := &mockCandleRepository{}
	uc := NewBackfillUsecase(NewOscillator(0.01, nil, nil, nil), repo, limiter, clockwork.NewFakeClockAt(testStart), Config{RoundDuration: time.Minute})

	err := uc.BackfillAll(context.Background(), []string{"BTCUSDT"}, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, repo.upserted)
}
