package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"demotrade_backend/internal/feature/wallet/domain/entity"
)

// LedgerProvider はセッションIDから、そのセッションが所有する Ledger を取得します。
type LedgerProvider interface {
	Ledger(ctx context.Context, sessionID string) (*Ledger, error)
}

// walletUsecase はセッション単位のウォレット操作のユースケースです。
type walletUsecase struct {
	ledgers LedgerProvider
	delay   time.Duration
}

// NewWalletUsecase は walletUsecase の新しいインスタンスを生成します。
// delay はベット配置から決済までの待ち時間です。
func NewWalletUsecase(ledgers LedgerProvider, delay time.Duration) *walletUsecase {
	if delay <= 0 {
		delay = DefaultResolutionDelay
	}
	return &walletUsecase{ledgers: ledgers, delay: delay}
}

// GetBalance は残高を返します。
func (u *walletUsecase) GetBalance(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	l, err := u.ledgers.Ledger(ctx, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	return l.Balance(), nil
}

// Deposit はデモ資金を追加します。
func (u *walletUsecase) Deposit(ctx context.Context, sessionID string, amount decimal.Decimal) (entity.Transaction, error) {
	l, err := u.ledgers.Ledger(ctx, sessionID)
	if err != nil {
		return entity.Transaction{}, err
	}
	return l.Deposit(amount)
}

// Reset はウォレットを初期状態に戻します。
func (u *walletUsecase) Reset(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	l, err := u.ledgers.Ledger(ctx, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	return l.Reset()
}

// ListTransactions は取引履歴を新しい順に返します。
func (u *walletUsecase) ListTransactions(ctx context.Context, sessionID string) ([]entity.Transaction, error) {
	l, err := u.ledgers.Ledger(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return l.Transactions(), nil
}

// ListBets はベットを新しい順に返します。
func (u *walletUsecase) ListBets(ctx context.Context, sessionID string) ([]entity.Bet, error) {
	l, err := u.ledgers.Ledger(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return l.Bets(), nil
}

// PlaceBet はベットを配置し、設定された待ち時間後の決済を予約します。
func (u *walletUsecase) PlaceBet(ctx context.Context, sessionID string, amount decimal.Decimal, symbol string, direction entity.Direction) (entity.Bet, error) {
	l, err := u.ledgers.Ledger(ctx, sessionID)
	if err != nil {
		return entity.Bet{}, err
	}
	bet, err := l.Place(amount, symbol, direction)
	if err != nil {
		return entity.Bet{}, err
	}
	if err := l.ResolveAfterDelay(bet.ID, u.delay); err != nil {
		return entity.Bet{}, err
	}
	return bet, nil
}
