// Package usecase はデモウォレット（残高・ベット・取引履歴）のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"demotrade_backend/internal/feature/wallet/domain/entity"
)

const (
	// recordTimeout は決済済みベット1件の保存に許す最大時間です。
	recordTimeout = 5 * time.Second
	// resolveRetryInterval は決済時の価格取得に失敗した場合の再試行間隔です。
	resolveRetryInterval = time.Second
)

// PriceQuoter は銘柄の現在価格を返します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PriceQuoter interface {
	CurrentPrice(symbol string) (float64, error)
}

// BetRecorder は決済済みベットを監査用に保存します。
type BetRecorder interface {
	Save(ctx context.Context, sessionID string, bet entity.Bet) error
}

// Ledger は1セッション分の残高・ベット・取引履歴を所有します。
// ベットの決済はタイマーで行い、Close で未発火のタイマーを停止し、実行中の決済の完了を待ちます。
type Ledger struct {
	sessionID string
	cfg       Config
	clock     clockwork.Clock
	resolver  Resolver
	quoter    PriceQuoter
	recorder  BetRecorder

	mu       sync.Mutex
	balance  decimal.Decimal
	bets     map[string]*entity.Bet
	betOrder []string
	txs      []entity.Transaction
	timers   map[string]clockwork.Timer
	closed   bool
	inflight sync.WaitGroup
}

// NewLedger は初期残高の入金履歴を1件持つ Ledger を生成します。
// quoter と recorder は nil でも構いません。
func NewLedger(sessionID string, cfg Config, resolver Resolver, quoter PriceQuoter, recorder BetRecorder, clock clockwork.Clock) *Ledger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if resolver == nil {
		resolver = NewCoinFlipResolver(nil)
	}
	if cfg.PayoutRatio.IsZero() {
		cfg.PayoutRatio = DefaultPayoutRatio
	}
	l := &Ledger{
		sessionID: sessionID,
		cfg:       cfg,
		clock:     clock,
		resolver:  resolver,
		quoter:    quoter,
		recorder:  recorder,
	}
	l.resetLocked()
	return l
}

// resetLocked は残高と履歴を初期状態に戻します。呼び出し側でロックを保持してください。
func (l *Ledger) resetLocked() {
	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
	l.balance = l.cfg.InitialBalance
	l.bets = make(map[string]*entity.Bet)
	l.betOrder = nil
	l.timers = make(map[string]clockwork.Timer)
	l.txs = nil
	if l.cfg.InitialBalance.IsPositive() {
		l.txs = append(l.txs, entity.Transaction{
			ID:     uuid.NewString(),
			Type:   entity.TransactionDeposit,
			Amount: l.cfg.InitialBalance,
			Time:   l.clock.Now(),
		})
	}
}

// quote は価格を取得します。quoter が未設定の場合は 0 を返します。
func (l *Ledger) quote(symbol string) (float64, error) {
	if l.quoter == nil {
		return 0, nil
	}
	p, err := l.quoter.CurrentPrice(symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrUnknownSymbol, symbol, err)
	}
	return p, nil
}

// Place はベットを記録し、掛け金を即座に残高から差し引きます。
// 残高不足の場合は ErrInsufficientBalance を返し、状態は一切変更しません。
func (l *Ledger) Place(amount decimal.Decimal, symbol string, direction entity.Direction) (entity.Bet, error) {
	if !amount.IsPositive() {
		return entity.Bet{}, ErrInvalidAmount
	}
	dir, ok := entity.ParseDirection(string(direction))
	if !ok {
		return entity.Bet{}, ErrInvalidDirection
	}
	openPrice, err := l.quote(symbol)
	if err != nil {
		return entity.Bet{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return entity.Bet{}, ErrLedgerClosed
	}
	if amount.GreaterThan(l.balance) {
		return entity.Bet{}, ErrInsufficientBalance
	}

	now := l.clock.Now()
	bet := &entity.Bet{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Amount:    amount,
		Direction: dir,
		PlacedAt:  now,
		Status:    entity.BetPending,
		Payout:    decimal.Zero,
		OpenPrice: openPrice,
	}
	l.balance = l.balance.Sub(amount)
	l.bets[bet.ID] = bet
	l.betOrder = append(l.betOrder, bet.ID)
	l.txs = append(l.txs, entity.Transaction{
		ID:        uuid.NewString(),
		Type:      entity.TransactionBet,
		Amount:    amount.Neg(),
		BetID:     bet.ID,
		Symbol:    symbol,
		Direction: dir,
		Time:      now,
	})
	return *bet, nil
}

// ResolveAfterDelay は delay 経過後にベットを決済するタイマーを登録します。
// 既にタイマーが登録済みの場合は何もしません。
func (l *Ledger) ResolveAfterDelay(betID string, delay time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLedgerClosed
	}
	bet, ok := l.bets[betID]
	if !ok {
		return ErrBetNotFound
	}
	if bet.IsResolved() {
		return ErrDoubleResolution
	}
	if _, scheduled := l.timers[betID]; scheduled {
		return nil
	}
	l.timers[betID] = l.clock.AfterFunc(delay, func() { l.resolveFromTimer(betID) })
	return nil
}

// resolveFromTimer はタイマー発火時に呼ばれます。
// 発火済みのタイマーはどの経路でも登録から外し、価格取得に失敗した場合は再登録します。
func (l *Ledger) resolveFromTimer(betID string) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	delete(l.timers, betID)
	l.inflight.Add(1)
	l.mu.Unlock()
	defer l.inflight.Done()

	bet, err := l.Resolve(betID)
	switch {
	case err == nil:
		slog.Info("bet resolved",
			"session_id", l.sessionID,
			"bet_id", bet.ID,
			"symbol", bet.Symbol,
			"direction", bet.Direction,
			"status", bet.Status,
			"payout", bet.Payout.String())
	case errors.Is(err, ErrLedgerClosed), errors.Is(err, ErrBetNotFound):
		// セッション終了やリセットで破棄されたベット
	case errors.Is(err, ErrDoubleResolution):
		slog.Error("bet resolved twice", "session_id", l.sessionID, "bet_id", betID, "error", err)
	case errors.Is(err, ErrUnknownSymbol):
		slog.Warn("exit price unavailable, retrying bet resolution",
			"session_id", l.sessionID,
			"bet_id", betID,
			"retry_in", resolveRetryInterval,
			"error", err)
		if err := l.ResolveAfterDelay(betID, resolveRetryInterval); err != nil &&
			!errors.Is(err, ErrLedgerClosed) && !errors.Is(err, ErrBetNotFound) {
			slog.Error("failed to reschedule bet resolution", "session_id", l.sessionID, "bet_id", betID, "error", err)
		}
	default:
		slog.Error("failed to resolve bet", "session_id", l.sessionID, "bet_id", betID, "error", err)
	}
}

// Resolve はベットを決済します。WIN の場合は掛け金 × 払い戻し比率を残高に加算します。
// 決済済みのベットに対しては ErrDoubleResolution を返し、何も変更しません。
// 価格を使わない Resolver では、決済価格が取得できなくても ClosePrice を0として決済します。
func (l *Ledger) Resolve(betID string) (entity.Bet, error) {
	l.mu.Lock()
	bet, ok := l.bets[betID]
	if !ok {
		l.mu.Unlock()
		if l.isClosed() {
			return entity.Bet{}, ErrLedgerClosed
		}
		return entity.Bet{}, ErrBetNotFound
	}
	symbol := bet.Symbol
	l.mu.Unlock()

	exitPrice, err := l.quote(symbol)
	if err != nil {
		if !ignoresPrice(l.resolver) {
			return entity.Bet{}, err
		}
		exitPrice = 0
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return entity.Bet{}, ErrLedgerClosed
	}
	// 価格取得中にリセットされた可能性があるため再取得する
	bet, ok = l.bets[betID]
	if !ok {
		l.mu.Unlock()
		return entity.Bet{}, ErrBetNotFound
	}
	if bet.IsResolved() {
		l.mu.Unlock()
		return entity.Bet{}, fmt.Errorf("%w: %s is %s", ErrDoubleResolution, betID, bet.Status)
	}

	now := l.clock.Now()
	bet.ClosePrice = exitPrice
	bet.ResolvedAt = &now
	bet.Status = l.resolver.Decide(*bet, exitPrice)

	tx := entity.Transaction{
		ID:        uuid.NewString(),
		BetID:     bet.ID,
		Symbol:    bet.Symbol,
		Direction: bet.Direction,
		Result:    bet.Status,
		Time:      now,
	}
	if bet.Status == entity.BetWin {
		bet.Payout = bet.Amount.Mul(l.cfg.PayoutRatio)
		l.balance = l.balance.Add(bet.Payout)
		tx.Type = entity.TransactionWin
		tx.Amount = bet.Payout
	} else {
		tx.Type = entity.TransactionLoss
		tx.Amount = decimal.Zero
	}
	l.txs = append(l.txs, tx)

	if t, scheduled := l.timers[betID]; scheduled {
		t.Stop()
		delete(l.timers, betID)
	}
	resolved := *bet
	l.mu.Unlock()

	l.record(resolved)
	return resolved, nil
}

func (l *Ledger) record(bet entity.Bet) {
	if l.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := l.recorder.Save(ctx, l.sessionID, bet); err != nil {
		slog.Error("failed to record bet", "session_id", l.sessionID, "bet_id", bet.ID, "error", err)
	}
}

// Deposit は残高に入金し、入金履歴を追加します。
func (l *Ledger) Deposit(amount decimal.Decimal) (entity.Transaction, error) {
	if !amount.IsPositive() {
		return entity.Transaction{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return entity.Transaction{}, ErrLedgerClosed
	}
	tx := entity.Transaction{
		ID:     uuid.NewString(),
		Type:   entity.TransactionDeposit,
		Amount: amount,
		Time:   l.clock.Now(),
	}
	l.balance = l.balance.Add(amount)
	l.txs = append(l.txs, tx)
	return tx, nil
}

// Reset は残高を初期値に戻し、履歴を初期入金1件に置き換えます。未決済のベットは破棄されます。
func (l *Ledger) Reset() (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return decimal.Zero, ErrLedgerClosed
	}
	l.resetLocked()
	return l.balance, nil
}

// Close はすべての決済タイマーを停止し、既に発火した決済が終わるまで待ちます。
// 以降の操作は ErrLedgerClosed を返します。
func (l *Ledger) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
	l.closed = true
	l.mu.Unlock()

	l.inflight.Wait()
}

func (l *Ledger) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Balance は現在の残高を返します。
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Bet は指定IDのベットを返します。
func (l *Ledger) Bet(betID string) (entity.Bet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bet, ok := l.bets[betID]
	if !ok {
		return entity.Bet{}, ErrBetNotFound
	}
	return *bet, nil
}

// Bets はベットを新しい順に返します。
func (l *Ledger) Bets() []entity.Bet {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]entity.Bet, 0, len(l.betOrder))
	for i := len(l.betOrder) - 1; i >= 0; i-- {
		out = append(out, *l.bets[l.betOrder[i]])
	}
	return out
}

// Transactions は取引履歴を新しい順に返します。
func (l *Ledger) Transactions() []entity.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]entity.Transaction, 0, len(l.txs))
	for i := len(l.txs) - 1; i >= 0; i-- {
		out = append(out, l.txs[i])
	}
	return out
}

// PendingCount は決済待ちのタイマー数を返します。
func (l *Ledger) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}
