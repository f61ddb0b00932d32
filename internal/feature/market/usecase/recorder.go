package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"demotrade_backend/internal/feature/market/domain/entity"
)

const (
	// recordTimeout は確定足1本の保存に許す最大時間です。
	recordTimeout = 5 * time.Second
	// DefaultRecordBuffer は保存待ちの確定足を保持できる数です。
	DefaultRecordBuffer = 256
)

// CandleRecorder は確定したローソク足を別ゴルーチンでリポジトリに保存します。
// Handle はスケジューラのループから呼ばれるためブロックせず、キューが溢れた足は破棄します。
type CandleRecorder struct {
	repo  CandleRepository
	queue chan entity.Candle
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewCandleRecorder は CandleRecorder を生成し、書き込み用のゴルーチンを開始します。
// buffer が0以下の場合は DefaultRecordBuffer を使用します。
func NewCandleRecorder(repo CandleRepository, buffer int) *CandleRecorder {
	if buffer <= 0 {
		buffer = DefaultRecordBuffer
	}
	r := &CandleRecorder{
		repo:  repo,
		queue: make(chan entity.Candle, buffer),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Handle は確定イベントの足を保存キューに積みます。EventHandler として購読します。
func (r *CandleRecorder) Handle(ev Event) {
	if ev.Kind != EventSettle {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- ev.Candle:
	default:
		slog.Error("candle write queue full, dropping sealed candle",
			"symbol", ev.Symbol,
			"round", ev.Round.Number,
			"open_time", ev.Candle.OpenTime)
	}
}

// Close は新しい足の受け付けを止め、キューに残った足を保存し終えるまで待ちます。
// Board.Stop の後に呼んでください。
func (r *CandleRecorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *CandleRecorder) run() {
	defer close(r.done)
	for c := range r.queue {
		r.store(c)
	}
}

// store は1本の足を保存します。失敗してもシミュレーションは止めず、エラーログのみ出力します。
func (r *CandleRecorder) store(c entity.Candle) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.repo.UpsertBatch(ctx, []entity.Candle{c}); err != nil {
		slog.Error("failed to store sealed candle",
			"symbol", c.Symbol,
			"open_time", c.OpenTime,
			"error", err)
	}
}
