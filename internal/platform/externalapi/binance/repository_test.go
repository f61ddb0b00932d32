package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demotrade_backend/internal/feature/market/usecase"
)

func TestNewBinanceSeedSource(t *testing.T) {
	t.Parallel()

	cfg := Config{BaseURL: "https://api.test.com", Timeout: 10 * time.Second}
	client := &http.Client{}

	src := NewBinanceSeedSource(cfg, client)

	require.NotNil(t, src)
	assert.Equal(t, cfg.BaseURL, src.cfg.BaseURL)
	assert.Same(t, client, src.client)
}

func TestBinanceSeedSource_GetPrice_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"43250.12000000"}`))
	}))
	defer server.Close()

	src := NewBinanceSeedSource(Config{BaseURL: server.URL}, server.Client())
	price, err := src.GetPrice(context.Background(), "BTCUSDT")

	require.NoError(t, err)
	assert.InDelta(t, 43250.12, price, 1e-9)
}

func TestBinanceSeedSource_GetPrice_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"binance error body", http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`, "Invalid symbol."},
		{"server error without body", http.StatusInternalServerError, ``, "binance http 500"},
		{"invalid json", http.StatusOK, `not json`, "decode"},
		{"unparseable price", http.StatusOK, `{"symbol":"BTCUSDT","price":"abc"}`, "parse price"},
		{"zero price", http.StatusOK, `{"symbol":"BTCUSDT","price":"0.00"}`, "non-positive"},
		{"negative price", http.StatusOK, `{"symbol":"BTCUSDT","price":"-1"}`, "non-positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			src := NewBinanceSeedSource(Config{BaseURL: server.URL}, server.Client())
			_, err := src.GetPrice(context.Background(), "BTCUSDT")

			require.Error(t, err)
			assert.ErrorIs(t, err, usecase.ErrFeedUnavailable)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestBinanceSeedSource_GetPrice_ContextCanceled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"1"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewBinanceSeedSource(Config{BaseURL: server.URL}, server.Client())
	_, err := src.GetPrice(ctx, "BTCUSDT")

	assert.ErrorIs(t, err, usecase.ErrFeedUnavailable)
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name      string
		baseURL   string
		rateLimit string
		wantURL   string
		wantLimit int
	}{
		{"defaults", "", "", DefaultBaseURL, DefaultRateLimit},
		{"overrides", "http://localhost:9999", "3", "http://localhost:9999", 3},
		{"invalid rate limit falls back", "", "zero", DefaultBaseURL, DefaultRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SEED_PRICE_BASE_URL", tt.baseURL)
			t.Setenv("SEED_PRICE_RATE_LIMIT", tt.rateLimit)

			cfg := LoadConfig()

			assert.Equal(t, tt.wantURL, cfg.BaseURL)
			assert.Equal(t, tt.wantLimit, cfg.RateLimit)
			assert.Equal(t, DefaultRateInterval, cfg.RateInterval)
			assert.Equal(t, 10*time.Second, cfg.Timeout)
		})
	}
}
