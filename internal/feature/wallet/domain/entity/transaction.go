package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a wallet history entry.
type TransactionType string

const (
	TransactionDeposit TransactionType = "deposit"
	TransactionBet     TransactionType = "bet"
	TransactionWin     TransactionType = "win"
	TransactionLoss    TransactionType = "loss"
)

// Transaction is an append-only wallet history entry.
// Amount is signed: bets are negative, deposits and wins positive, losses zero.
type Transaction struct {
	ID        string
	Type      TransactionType
	Amount    decimal.Decimal
	BetID     string    // Empty for deposits
	Symbol    string    // Empty for deposits
	Direction Direction // Empty for deposits
	Result    BetStatus // Set on win/loss entries
	Time      time.Time
}
