package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"demotrade_backend/internal/feature/market/usecase"
	"demotrade_backend/internal/platform/externalapi/binance/dto"
)

// BinanceSeedSource はBinanceの現在価格を初期価格として返すSeedPriceSource実装です。
type BinanceSeedSource struct {
	cfg    Config
	client *http.Client
}

// BinanceSeedSourceがSeedPriceSourceを実装していることをコンパイル時に検証します。
var _ usecase.SeedPriceSource = (*BinanceSeedSource)(nil)

// NewBinanceSeedSource は指定された設定とHTTPクライアントでBinanceSeedSourceを生成します。
func NewBinanceSeedSource(cfg Config, client *http.Client) *BinanceSeedSource {
	return &BinanceSeedSource{cfg: cfg, client: client}
}

// GetPrice は銘柄の最新価格を取得します。
// 通信エラー・HTTPエラー・不正なレスポンスはすべて usecase.ErrFeedUnavailable でラップされます。
func (b *BinanceSeedSource) GetPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	u := fmt.Sprintf("%s/api/v3/ticker/price?%s", b.cfg.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", usecase.ErrFeedUnavailable, err)
	}

	res, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", usecase.ErrFeedUnavailable, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		var body dto.ErrorResponse
		if err := json.NewDecoder(res.Body).Decode(&body); err == nil && body.Msg != "" {
			return 0, fmt.Errorf("%w: binance http %d: %s", usecase.ErrFeedUnavailable, res.StatusCode, body.Msg)
		}
		return 0, fmt.Errorf("%w: binance http %d", usecase.ErrFeedUnavailable, res.StatusCode)
	}

	var body dto.TickerPriceResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: decode: %v", usecase.ErrFeedUnavailable, err)
	}

	price, err := strconv.ParseFloat(body.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parse price %q: %v", usecase.ErrFeedUnavailable, body.Price, err)
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: non-positive price %q", usecase.ErrFeedUnavailable, body.Price)
	}
	return price, nil
}
