// Package handler はwalletフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"demotrade_backend/internal/api"
	"demotrade_backend/internal/feature/wallet/domain/entity"
	"demotrade_backend/internal/feature/wallet/transport/http/dto"
	"demotrade_backend/internal/feature/wallet/usecase"
	jwtmw "demotrade_backend/internal/platform/jwt"
)

// WalletUsecase はウォレット操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type WalletUsecase interface {
	GetBalance(ctx context.Context, sessionID string) (decimal.Decimal, error)
	Deposit(ctx context.Context, sessionID string, amount decimal.Decimal) (entity.Transaction, error)
	Reset(ctx context.Context, sessionID string) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, sessionID string) ([]entity.Transaction, error)
	ListBets(ctx context.Context, sessionID string) ([]entity.Bet, error)
	PlaceBet(ctx context.Context, sessionID string, amount decimal.Decimal, symbol string, direction entity.Direction) (entity.Bet, error)
}

// WalletHandler はデモウォレットとベットのHTTPリクエストを処理します。
// すべてのエンドポイントは認証ミドルウェアの後ろに配置されます。
type WalletHandler struct {
	uc WalletUsecase
}

// NewWalletHandler はWalletHandlerの新しいインスタンスを生成します。
func NewWalletHandler(uc WalletUsecase) *WalletHandler {
	return &WalletHandler{uc: uc}
}

// GetBalance は残高を返します。
func (h *WalletHandler) GetBalance(c *gin.Context) {
	balance, err := h.uc.GetBalance(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{Balance: balance.InexactFloat64()})
}

// Deposit はデモ資金を追加します。
// - 金額が正でない場合は400を返却
// - 成功時は201と追加された取引を返却
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	tx, err := h.uc.Deposit(c.Request.Context(), sessionID(c), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	slog.Info("demo funds added", "session_id", sessionID(c), "amount", req.Amount.String())
	c.JSON(http.StatusCreated, dto.NewTransactionResponse(tx))
}

// Reset はウォレットを初期残高に戻します。
func (h *WalletHandler) Reset(c *gin.Context) {
	balance, err := h.uc.Reset(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	slog.Info("demo wallet reset", "session_id", sessionID(c))
	c.JSON(http.StatusOK, dto.BalanceResponse{Balance: balance.InexactFloat64()})
}

// ListTransactions は取引履歴を新しい順に返します。
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	txs, err := h.uc.ListTransactions(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, dto.NewTransactionResponse(t))
	}
	c.JSON(http.StatusOK, out)
}

// ListBets はベットを新しい順に返します。
func (h *WalletHandler) ListBets(c *gin.Context) {
	bets, err := h.uc.ListBets(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.BetResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, dto.NewBetResponse(b))
	}
	c.JSON(http.StatusOK, out)
}

// PlaceBet はベットを配置します。
// - リクエスト不正・方向不正・金額不正は400を返却
// - 残高不足は422を返却（残高は変更されない）
// - 未知の銘柄は404を返却
// - 成功時は201とPENDINGのベットを返却
func (h *WalletHandler) PlaceBet(c *gin.Context) {
	var req dto.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	direction, ok := entity.ParseDirection(req.Direction)
	if !ok {
		writeError(c, usecase.ErrInvalidDirection)
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	bet, err := h.uc.PlaceBet(c.Request.Context(), sessionID(c), req.Amount, symbol, direction)
	if err != nil {
		slog.Warn("bet rejected", "session_id", sessionID(c), "symbol", symbol, "amount", req.Amount.String(), "error", err)
		writeError(c, err)
		return
	}
	slog.Info("bet placed", "session_id", sessionID(c), "bet_id", bet.ID, "symbol", bet.Symbol, "direction", bet.Direction, "amount", bet.Amount.String())
	c.JSON(http.StatusCreated, dto.NewBetResponse(bet))
}

func sessionID(c *gin.Context) string {
	return c.GetString(jwtmw.ContextSessionID)
}

// writeError はユースケースのエラーをHTTPステータスに変換します。
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Insufficient demo balance"})
	case errors.Is(err, usecase.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Please enter a valid amount"})
	case errors.Is(err, usecase.ErrInvalidDirection):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "direction must be UP or DOWN"})
	case errors.Is(err, usecase.ErrUnknownSymbol):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "unknown symbol"})
	case errors.Is(err, usecase.ErrSessionNotFound), errors.Is(err, usecase.ErrLedgerClosed):
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "session expired"})
	default:
		slog.Error("wallet request failed", "session_id", sessionID(c), "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
	}
}
