package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demotrade_backend/internal/feature/wallet/domain/entity"
	"demotrade_backend/internal/feature/wallet/transport/http/dto"
	"demotrade_backend/internal/feature/wallet/usecase"
	jwtmw "demotrade_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockWalletUsecase はWalletUsecaseインターフェースのモック実装です。
type mockWalletUsecase struct {
	GetBalanceFunc       func(ctx context.Context, sessionID string) (decimal.Decimal, error)
	DepositFunc          func(ctx context.Context, sessionID string, amount decimal.Decimal) (entity.Transaction, error)
	ResetFunc            func(ctx context.Context, sessionID string) (decimal.Decimal, error)
	ListTransactionsFunc func(ctx context.Context, sessionID string) ([]entity.Transaction, error)
	ListBetsFunc         func(ctx context.Context, sessionID string) ([]entity.Bet, error)
	PlaceBetFunc         func(ctx context.Context, sessionID string, amount decimal.Decimal, symbol string, direction entity.Direction) (entity.Bet, error)
}

func (m *mockWalletUsecase) GetBalance(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx, sessionID)
	}
	return decimal.Zero, errors.New("GetBalanceFunc is not implemented")
}

func (m *mockWalletUsecase) Deposit(ctx context.Context, sessionID string, amount decimal.Decimal) (entity.Transaction, error) {
	if m.DepositFunc != nil {
		return m.DepositFunc(ctx, sessionID, amount)
	}
	return entity.Transaction{}, errors.New("DepositFunc is not implemented")
}

func (m *mockWalletUsecase) Reset(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return decimal.Zero, errors.New("ResetFunc is not implemented")
}

func (m *mockWalletUsecase) ListTransactions(ctx context.Context, sessionID string) ([]entity.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, sessionID)
	}
	return nil, errors.New("ListTransactionsFunc is not implemented")
}

func (m *mockWalletUsecase) ListBets(ctx context.Context, sessionID string) ([]entity.Bet, error) {
	if m.ListBetsFunc != nil {
		return m.ListBetsFunc(ctx, sessionID)
	}
	return nil, errors.New("ListBetsFunc is not implemented")
}

func (m *mockWalletUsecase) PlaceBet(ctx context.Context, sessionID string, amount decimal.Decimal, symbol string, direction entity.Direction) (entity.Bet, error) {
	if m.PlaceBetFunc != nil {
		return m.PlaceBetFunc(ctx, sessionID, amount, symbol, direction)
	}
	return entity.Bet{}, errors.New("PlaceBetFunc is not implemented")
}

// newTestRouter は認証済みのセッションIDをコンテキストに設定するルーターを返します。
func newTestRouter(uc WalletUsecase) *gin.Engine {
	h := NewWalletHandler(uc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(jwtmw.ContextSessionID, "session-1")
		c.Next()
	})
	r.GET("/wallet", h.GetBalance)
	r.POST("/wallet/deposit", h.Deposit)
	r.POST("/wallet/reset", h.Reset)
	r.GET("/wallet/transactions", h.ListTransactions)
	r.GET("/bets", h.ListBets)
	r.POST("/bets", h.PlaceBet)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

var placedAt = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func TestWalletHandler_GetBalance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		fn             func(ctx context.Context, sessionID string) (decimal.Decimal, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			fn: func(ctx context.Context, sessionID string) (decimal.Decimal, error) {
				if sessionID != "session-1" {
					return decimal.Zero, usecase.ErrSessionNotFound
				}
				return decimal.RequireFromString("9990.5"), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"balance":9990.5}`,
		},
		{
			name: "error: session expired",
			fn: func(ctx context.Context, sessionID string) (decimal.Decimal, error) {
				return decimal.Zero, usecase.ErrSessionNotFound
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"session expired"}`,
		},
		{
			name: "error: ledger closed",
			fn: func(ctx context.Context, sessionID string) (decimal.Decimal, error) {
				return decimal.Zero, usecase.ErrLedgerClosed
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"session expired"}`,
		},
		{
			name: "error: unexpected",
			fn: func(ctx context.Context, sessionID string) (decimal.Decimal, error) {
				return decimal.Zero, errors.New("boom")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := serve(newTestRouter(&mockWalletUsecase{GetBalanceFunc: tt.fn}), http.MethodGet, "/wallet", "")
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestWalletHandler_Deposit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		fn             func(ctx context.Context, sessionID string, amount decimal.Decimal) (entity.Transaction, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			body: `{"amount":1000}`,
			fn: func(ctx context.Context, sessionID string, amount decimal.Decimal) (entity.Transaction, error) {
				return entity.Transaction{ID: "tx-1", Type: entity.TransactionDeposit, Amount: amount, Time: placedAt}, nil
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `{"id":"tx-1","type":"deposit","amount":1000,"timestamp":"2024-01-02T09:00:00Z"}`,
		},
		{
			name: "error: non-positive amount",
			body: `{"amount":0}`,
			fn: func(ctx context.Context, sessionID string, amount decimal.Decimal) (entity.Transaction, error) {
				return entity.Transaction{}, usecase.ErrInvalidAmount
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Please enter a valid amount"}`,
		},
		{
			name:           "error: malformed body",
			body:           `{"amount":"lots"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := serve(newTestRouter(&mockWalletUsecase{DepositFunc: tt.fn}), http.MethodPost, "/wallet/deposit", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestWalletHandler_Reset(t *testing.T) {
	t.Parallel()

	uc := &mockWalletUsecase{ResetFunc: func(ctx context.Context, sessionID string) (decimal.Decimal, error) {
		return decimal.NewFromInt(10000), nil
	}}
	w := serve(newTestRouter(uc), http.MethodPost, "/wallet/reset", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance":10000}`, w.Body.String())
}

func TestWalletHandler_ListTransactions(t *testing.T) {
	t.Parallel()

	uc := &mockWalletUsecase{ListTransactionsFunc: func(ctx context.Context, sessionID string) ([]entity.Transaction, error) {
		return []entity.Transaction{
			{ID: "tx-3", Type: entity.TransactionWin, Amount: decimal.NewFromInt(40), BetID: "bet-1", Symbol: "BTCUSDT", Direction: entity.DirectionUp, Result: entity.BetWin, Time: placedAt.Add(30 * time.Second)},
			{ID: "tx-2", Type: entity.TransactionBet, Amount: decimal.NewFromInt(-50), BetID: "bet-1", Symbol: "BTCUSDT", Direction: entity.DirectionUp, Time: placedAt},
		}, nil
	}}
	w := serve(newTestRouter(uc), http.MethodGet, "/wallet/transactions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []dto.TransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "win", got[0].Type)
	assert.Equal(t, 40.0, got[0].Amount)
	assert.Equal(t, "WIN", got[0].Result)
	assert.Equal(t, "bet", got[1].Type)
	assert.Equal(t, -50.0, got[1].Amount)
	assert.Empty(t, got[1].Result)
}

func TestWalletHandler_ListBets(t *testing.T) {
	t.Parallel()

	uc := &mockWalletUsecase{ListBetsFunc: func(ctx context.Context, sessionID string) ([]entity.Bet, error) {
		return nil, nil
	}}
	w := serve(newTestRouter(uc), http.MethodGet, "/bets", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestWalletHandler_PlaceBet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		fn             func(ctx context.Context, sessionID string, amount decimal.Decimal, symbol string, direction entity.Direction) (entity.Bet, error)
		expectedStatus int
		verify         func(t *testing.T, body string)
	}{
		{
			name: "success: direction and symbol are normalized",
			body: `{"symbol":" btcusdt ","amount":50,"direction":"up"}`,
			fn: func(ctx context.Context, sessionID string, amount decimal.Decimal, symbol string, direction entity.Direction) (entity.Bet, error) {
				if symbol != "BTCUSDT" || direction != entity.DirectionUp || !amount.Equal(decimal.NewFromInt(50)) {
					return entity.Bet{}, errors.New("unexpected arguments")
				}
				return entity.Bet{
					ID: "bet-1", Symbol: symbol, Amount: amount, Direction: direction,
					PlacedAt: placedAt, Status: entity.BetPending, Payout: decimal.Zero, OpenPrice: 45000,
				}, nil
			},
			expectedStatus: http.StatusCreated,
			verify: func(t *testing.T, body string) {
				var got dto.BetResponse
				require.NoError(t, json.Unmarshal([]byte(body), &got))
				assert.Equal(t, "bet-1", got.ID)
				assert.Equal(t, "PENDING", got.Status)
				assert.Equal(t, 50.0, got.Amount)
				assert.Equal(t, "UP", got.Direction)
				assert.Empty(t, got.CloseTime)
			},
		},
		{
			name: "error: insufficient balance",
			body: `{"symbol":"BTCUSDT","amount":50,"direction":"DOWN"}`,
			fn: func(ctx context.Context, sessionID string, amount decimal.Decimal, symbol string, direction entity.Direction) (entity.Bet, error) {
				return entity.Bet{}, usecase.ErrInsufficientBalance
			},
			expectedStatus: http.StatusUnprocessableEntity,
			verify: func(t *testing.T, body string) {
				assert.JSONEq(t, `{"error":"Insufficient demo balance"}`, body)
			},
		},
		{
			name:           "error: invalid direction",
			body:           `{"symbol":"BTCUSDT","amount":50,"direction":"SIDEWAYS"}`,
			expectedStatus: http.StatusBadRequest,
			verify: func(t *testing.T, body string) {
				assert.JSONEq(t, `{"error":"direction must be UP or DOWN"}`, body)
			},
		},
		{
			name: "error: unknown symbol",
			body: `{"symbol":"DOGEUSDT","amount":50,"direction":"UP"}`,
			fn: func(ctx context.Context, sessionID string, amount decimal.Decimal, symbol string, direction entity.Direction) (entity.Bet, error) {
				return entity.Bet{}, usecase.ErrUnknownSymbol
			},
			expectedStatus: http.StatusNotFound,
			verify: func(t *testing.T, body string) {
				assert.JSONEq(t, `{"error":"unknown symbol"}`, body)
			},
		},
		{
			name:           "error: missing symbol",
			body:           `{"amount":50,"direction":"UP"}`,
			expectedStatus: http.StatusBadRequest,
			verify: func(t *testing.T, body string) {
				assert.JSONEq(t, `{"error":"invalid request"}`, body)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := serve(newTestRouter(&mockWalletUsecase{PlaceBetFunc: tt.fn}), http.MethodPost, "/bets", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.verify(t, w.Body.String())
		})
	}
}
