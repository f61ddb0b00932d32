package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"demotrade_backend/internal/feature/market/domain/entity"
	"demotrade_backend/internal/shared/ratelimiter"
)

// Board は銘柄ごとの RoundScheduler を所有し、まとめて起動・停止します。
// 画面ごとに存在したグローバルな状態の代わりに、サーバーが明示的に所有します。
type Board struct {
	cfg     Config
	osc     *Oscillator
	clock   clockwork.Clock
	limiter ratelimiter.RateLimiterInterface

	mu         sync.RWMutex
	schedulers map[string]*RoundScheduler
	order      []string
	subs       []EventHandler
	started    bool
}

// NewBoard は Board を生成します。limiter が nil の場合はシード価格の取得を制限しません。
func NewBoard(cfg Config, osc *Oscillator, clock clockwork.Clock, limiter ratelimiter.RateLimiterInterface) *Board {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Board{
		cfg:        cfg,
		osc:        osc,
		clock:      clock,
		limiter:    limiter,
		schedulers: make(map[string]*RoundScheduler),
	}
}

// Open は各銘柄のシード価格を取得し、過去足を生成してスケジューラを作成します。
// 既に存在する銘柄はスキップします。外部APIのレートリミットを考慮して取得間隔を調整します。
func (b *Board) Open(ctx context.Context, symbols []string) error {
	for _, sym := range symbols {
		b.mu.RLock()
		_, exists := b.schedulers[sym]
		b.mu.RUnlock()
		if exists {
			continue
		}

		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("open board: %w", err)
			}
		}

		seed := b.osc.Initialize(ctx, sym)
		history := b.osc.History(sym, seed, b.clock.Now().Add(-b.cfg.RoundDuration), b.cfg.HistoryCandles, b.cfg.RoundDuration)
		sch := NewRoundScheduler(sym, seed, history, b.osc, b.clock, SchedulerConfig{
			RoundDuration: b.cfg.RoundDuration,
			TickInterval:  b.cfg.TickInterval,
			HistoryLimit:  b.cfg.HistoryLimit,
		})

		b.mu.Lock()
		for _, h := range b.subs {
			sch.Subscribe(h)
		}
		b.schedulers[sym] = sch
		b.order = append(b.order, sym)
		started := b.started
		b.mu.Unlock()

		if started {
			if err := sch.Start(ctx); err != nil {
				return err
			}
		}
		slog.Info("market opened", "symbol", sym, "seed_price", seed, "history", len(history))
	}
	return nil
}

// Start はすべてのスケジューラのループを開始します。
func (b *Board) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return ErrAlreadyRunning
	}
	b.started = true
	schedulers := b.list()
	b.mu.Unlock()

	for _, s := range schedulers {
		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", s.Symbol(), err)
		}
	}
	return nil
}

// Stop はすべてのスケジューラを停止します。戻った後にイベントは発行されません。
func (b *Board) Stop() {
	b.mu.Lock()
	b.started = false
	schedulers := b.list()
	b.mu.Unlock()

	for _, s := range schedulers {
		s.Stop()
	}
	slog.Info("market board stopped", "symbols", len(schedulers))
}

// Subscribe はすべての銘柄（今後追加される銘柄を含む）のイベントを購読します。
// Open より前に呼ぶことを想定しています。
func (b *Board) Subscribe(h EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, h)
	for _, s := range b.list() {
		s.Subscribe(h)
	}
}

// Scheduler は銘柄のスケジューラを返します。
func (b *Board) Scheduler(symbol string) (*RoundScheduler, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.schedulers[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return s, nil
}

// Symbols は登録順の銘柄一覧を返します。
func (b *Board) Symbols() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.order...)
}

// CurrentPrice は銘柄の最新価格を返します。
func (b *Board) CurrentPrice(symbol string) (float64, error) {
	s, err := b.Scheduler(symbol)
	if err != nil {
		return 0, err
	}
	return s.CurrentPrice(), nil
}

// Snapshot は銘柄の現在の状態を返します。
func (b *Board) Snapshot(symbol string) (entity.Snapshot, error) {
	s, err := b.Scheduler(symbol)
	if err != nil {
		return entity.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// list は登録順のスケジューラを返します。呼び出し側でロックを保持してください。
func (b *Board) list() []*RoundScheduler {
	out := make([]*RoundScheduler, 0, len(b.order))
	for _, sym := range b.order {
		out = append(out, b.schedulers[sym])
	}
	return out
}
