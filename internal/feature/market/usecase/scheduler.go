package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"demotrade_backend/internal/feature/market/domain/entity"
)

// EventKind はスケジューラが発行するイベントの種類です。
type EventKind string

const (
	// EventTick は進行中のローソク足が価格で更新されたことを表します。
	EventTick EventKind = "tick"
	// EventSettle はラウンドが終了し、ローソク足が確定したことを表します。
	EventSettle EventKind = "settle"
)

// Event はスケジューラの状態変化を購読者に通知します。
// EventTick では Candle は更新後の進行中の足、EventSettle では確定した足です。
type Event struct {
	Kind       EventKind
	Symbol     string
	Time       time.Time
	Price      float64
	Candle     entity.Candle
	Round      entity.Round
	Settlement *entity.Settlement
}

// EventHandler はイベントを受け取るコールバックです。
// スケジューラのループから同期的に呼ばれるため、ブロックしてはいけません。
type EventHandler func(Event)

// PriceWalker は直前の価格から次の価格を生成します。
type PriceWalker interface {
	Tick(previous float64) float64
}

// SchedulerConfig はラウンドスケジューラの設定です。
type SchedulerConfig struct {
	RoundDuration time.Duration
	TickInterval  time.Duration
	HistoryLimit  int
}

type subscription struct {
	id      int
	handler EventHandler
}

// RoundScheduler は固定長のラウンドを進行させ、進行中のローソク足を管理します。
//
// 状態遷移: OPEN（カウントダウン中）→ EXPIRING（残り0）→ OPEN（新ラウンド）
// 終端状態はなく、Stop されるまで動き続けます。
type RoundScheduler struct {
	symbol string
	cfg    SchedulerConfig
	clock  clockwork.Clock
	walker PriceWalker

	mu       sync.Mutex
	current  entity.Candle
	round    entity.Round
	stats    entity.PriceStats
	history  []entity.Candle
	subs     []subscription
	nextID   int
	running  bool
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// NewRoundScheduler は RoundScheduler を生成します。
// history がある場合は最後の足の終値、なければ seed で最初の足を開きます。
func NewRoundScheduler(symbol string, seed float64, history []entity.Candle, walker PriceWalker, clock clockwork.Clock, cfg SchedulerConfig) *RoundScheduler {
	if cfg.RoundDuration <= 0 {
		cfg.RoundDuration = DefaultRoundDuration
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	open := seed
	if n := len(history); n > 0 {
		open = history[n-1].Close
	}
	if n := len(history); n > cfg.HistoryLimit {
		history = history[n-cfg.HistoryLimit:]
	}

	now := clock.Now()
	return &RoundScheduler{
		symbol:  symbol,
		cfg:     cfg,
		clock:   clock,
		walker:  walker,
		current: entity.NewCandle(symbol, now, open),
		round: entity.Round{
			Number:    1,
			StartTime: now,
			Duration:  cfg.RoundDuration,
			Remaining: cfg.RoundDuration,
		},
		stats: entity.PriceStats{
			Price:     open,
			SeedPrice: seed,
			High24h:   math.Max(seed*1.05, open),
			Low24h:    math.Min(seed*0.95, open),
		},
		history: append([]entity.Candle(nil), history...),
	}
}

// Symbol はスケジューラの銘柄を返します。
func (s *RoundScheduler) Symbol() string { return s.symbol }

// Tick は価格を進行中のローソク足に反映します（高値・安値・終値を更新し、始値は変更しません）。
func (s *RoundScheduler) Tick(price float64) {
	s.mu.Lock()
	ev := s.tickLocked(price)
	s.mu.Unlock()
	s.dispatch(ev)
}

// Expire は進行中の足を確定させ、前の足の終値を始値とする新しい足を開き、
// カウントダウンをリセットします。確定した足の始値と終値を決済イベントとして通知します。
func (s *RoundScheduler) Expire() entity.Settlement {
	s.mu.Lock()
	ev := s.expireLocked()
	s.mu.Unlock()
	s.dispatch(ev)
	return *ev.Settlement
}

// Step は1ティック分の時間を進めます。
// 次の価格を生成して足に反映し、カウントダウンを減らし、0になればラウンドを終了します。
// ティックの反映と確定は同じロック内で行うため、1つのティックが2本の足に入ることはありません。
func (s *RoundScheduler) Step() {
	s.mu.Lock()
	events := make([]Event, 0, 2)
	price := s.walker.Tick(s.current.Close)
	events = append(events, s.tickLocked(price))

	s.round.Remaining -= s.cfg.TickInterval
	if s.round.Remaining <= 0 {
		events = append(events, s.expireLocked())
	}
	s.mu.Unlock()

	s.dispatch(events...)
}

func (s *RoundScheduler) tickLocked(price float64) Event {
	s.current = s.current.Apply(price)

	s.stats.Price = price
	s.stats.Change = price - s.stats.SeedPrice
	if s.stats.SeedPrice != 0 {
		s.stats.ChangePercent = s.stats.Change / s.stats.SeedPrice * 100
	}
	s.stats.High24h = math.Max(s.stats.High24h, price)
	s.stats.Low24h = math.Min(s.stats.Low24h, price)

	return Event{
		Kind:   EventTick,
		Symbol: s.symbol,
		Time:   s.clock.Now(),
		Price:  price,
		Candle: s.current,
		Round:  s.round,
	}
}

func (s *RoundScheduler) expireLocked() Event {
	now := s.clock.Now()

	sealed := s.current
	s.history = append(s.history, sealed)
	if n := len(s.history); n > s.cfg.HistoryLimit {
		s.history = append([]entity.Candle(nil), s.history[n-s.cfg.HistoryLimit:]...)
	}

	ended := s.round
	ended.Remaining = 0

	// 確定後に新しい足を開く
	s.current = entity.NewCandle(s.symbol, now, sealed.Close)
	s.round = entity.Round{
		Number:    ended.Number + 1,
		StartTime: now,
		Duration:  s.cfg.RoundDuration,
		Remaining: s.cfg.RoundDuration,
	}

	st := &entity.Settlement{
		Symbol:    s.symbol,
		Round:     ended,
		Candle:    sealed,
		Open:      sealed.Open,
		Close:     sealed.Close,
		Direction: sealed.Direction(),
	}
	return Event{
		Kind:       EventSettle,
		Symbol:     s.symbol,
		Time:       now,
		Price:      sealed.Close,
		Candle:     sealed,
		Round:      ended,
		Settlement: st,
	}
}

// Subscribe はイベントハンドラを登録し、登録解除用の関数を返します。
func (s *RoundScheduler) Subscribe(h EventHandler) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, handler: h})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *RoundScheduler) dispatch(events ...Event) {
	s.mu.Lock()
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()

	for _, ev := range events {
		for _, sub := range subs {
			sub.handler(ev)
		}
	}
}

// Start はティックループを開始します。ctx がキャンセルされるか Stop が呼ばれるまで動作します。
func (s *RoundScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ticker := s.clock.NewTicker(s.cfg.TickInterval)
	s.running = true
	s.cancel = cancel
	s.loopDone = done
	s.mu.Unlock()

	go s.run(ctx, ticker, done)
	return nil
}

func (s *RoundScheduler) run(ctx context.Context, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer func() {
		s.mu.Lock()
		if s.loopDone == done {
			s.running = false
		}
		s.mu.Unlock()
	}()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			// Stop と同時に発火した場合はティックを捨てる
			if ctx.Err() != nil {
				return
			}
			s.Step()
		}
	}
}

// Stop はティックループを停止し、ループの終了を待ちます。
// Stop が戻った後にイベントハンドラが呼ばれることはありません。複数回呼んでも安全です。
// イベントハンドラの中から呼んではいけません。
func (s *RoundScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.loopDone
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running はループが動作中かどうかを返します。
func (s *RoundScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// CurrentPrice は最新の価格を返します。
func (s *RoundScheduler) CurrentPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Close
}

// Snapshot は現在の状態のコピーを返します。
func (s *RoundScheduler) Snapshot() entity.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entity.Snapshot{
		Symbol:  s.symbol,
		Current: s.current,
		Round:   s.round,
		Stats:   s.stats,
		History: append([]entity.Candle(nil), s.history...),
	}
}
