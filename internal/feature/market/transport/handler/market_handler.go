// Package handler はmarketフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"demotrade_backend/internal/api"
	"demotrade_backend/internal/feature/market/domain/entity"
	"demotrade_backend/internal/feature/market/transport/http/dto"
	"demotrade_backend/internal/feature/market/usecase"
)

// MarketUsecase はマーケット参照のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type MarketUsecase interface {
	GetSnapshot(ctx context.Context, symbol string) (entity.Snapshot, error)
	GetCandles(ctx context.Context, symbol string, limit int) ([]entity.Candle, error)
}

// MarketHandler はマーケット情報のHTTPリクエストを処理します。
type MarketHandler struct {
	uc MarketUsecase
}

// NewMarketHandler は指定されたusecaseでMarketHandlerの新しいインスタンスを生成します。
func NewMarketHandler(uc MarketUsecase) *MarketHandler {
	return &MarketHandler{uc: uc}
}

// GetSnapshot は銘柄の進行中のローソク足・ラウンド残り時間・価格統計を返します。
//
// エンドポイント例:
// GET /markets/:symbol
func (h *MarketHandler) GetSnapshot(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	snap, err := h.uc.GetSnapshot(c.Request.Context(), symbol)
	if err != nil {
		writeError(c, symbol, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSnapshotResponse(snap))
}

// GetCandles は確定済みローソク足を新しい順にJSONで返します。
//
// エンドポイント例:
// GET /markets/:symbol/candles?limit=200
func (h *MarketHandler) GetCandles(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	// 文字列を整数に変換（不正値は usecase 側でデフォルトに置き換え）
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(usecase.DefaultCandleLimit)))

	candles, err := h.uc.GetCandles(c.Request.Context(), symbol, limit)
	if err != nil {
		writeError(c, symbol, err)
		return
	}

	out := make([]dto.CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, dto.NewCandleResponse(x))
	}
	c.JSON(http.StatusOK, out)
}

func writeError(c *gin.Context, symbol string, err error) {
	if errors.Is(err, usecase.ErrUnknownSymbol) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "unknown symbol"})
		return
	}
	slog.Error("market request failed", "symbol", symbol, "error", err)
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
}
