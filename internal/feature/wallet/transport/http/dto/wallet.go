// Package dto はwalletフィーチャーのリクエスト/レスポンスDTOを定義します。
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"demotrade_backend/internal/feature/wallet/domain/entity"
)

// DepositRequest は入金リクエストです。
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PlaceBetRequest はベット配置リクエストです。
type PlaceBetRequest struct {
	Symbol    string          `json:"symbol" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Direction string          `json:"direction" binding:"required"`
}

// BalanceResponse は残高のレスポンスDTOです。
type BalanceResponse struct {
	Balance float64 `json:"balance"`
}

// TransactionResponse は取引履歴1件のレスポンスDTOです。
type TransactionResponse struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	BetID     string  `json:"bet_id,omitempty"`
	Symbol    string  `json:"symbol,omitempty"`
	Direction string  `json:"direction,omitempty"`
	Result    string  `json:"result,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// BetResponse はベット1件のレスポンスDTOです。
type BetResponse struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	Amount     float64 `json:"amount"`
	Direction  string  `json:"direction"`
	Status     string  `json:"status"`
	Payout     float64 `json:"payout"`
	OpenPrice  float64 `json:"open_price"`
	ClosePrice float64 `json:"close_price,omitempty"`
	OpenTime   string  `json:"open_time"`
	CloseTime  string  `json:"close_time,omitempty"`
}

// NewTransactionResponse はエンティティをDTOに変換します。
func NewTransactionResponse(t entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        t.ID,
		Type:      string(t.Type),
		Amount:    t.Amount.InexactFloat64(),
		BetID:     t.BetID,
		Symbol:    t.Symbol,
		Direction: string(t.Direction),
		Result:    string(t.Result),
		Timestamp: t.Time.UTC().Format(time.RFC3339),
	}
}

// NewBetResponse はエンティティをDTOに変換します。
func NewBetResponse(b entity.Bet) BetResponse {
	out := BetResponse{
		ID:         b.ID,
		Symbol:     b.Symbol,
		Amount:     b.Amount.InexactFloat64(),
		Direction:  string(b.Direction),
		Status:     string(b.Status),
		Payout:     b.Payout.InexactFloat64(),
		OpenPrice:  b.OpenPrice,
		ClosePrice: b.ClosePrice,
		OpenTime:   b.PlacedAt.UTC().Format(time.RFC3339),
	}
	if b.ResolvedAt != nil {
		out.CloseTime = b.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return out
}
