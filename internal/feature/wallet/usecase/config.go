package usecase

import (
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// ResolutionCoinFlip は価格と無関係にコイントスで勝敗を決めるモードです。
	ResolutionCoinFlip = "coinflip"
	// ResolutionPrice はエントリー価格と決済価格の比較で勝敗を決めるモードです。
	ResolutionPrice = "price"

	// DefaultResolutionDelay はベットを決済するまでの待ち時間です。
	DefaultResolutionDelay = 30 * time.Second
)

var (
	// DefaultInitialBalance はデモウォレットの初期残高です。
	DefaultInitialBalance = decimal.NewFromInt(10000)
	// DefaultPayoutRatio は勝利時に掛け金に対して支払う利益の比率です。
	DefaultPayoutRatio = decimal.RequireFromString("0.8")
)

// Config はデモウォレットの設定を保持します。
type Config struct {
	InitialBalance  decimal.Decimal // 初期残高（リセット時も同じ）
	PayoutRatio     decimal.Decimal // 勝利時の払い戻し比率
	ResolutionDelay time.Duration   // ベット決済までの待ち時間
	ResolutionMode  string          // "coinflip" または "price"
}

// LoadConfig は環境変数からウォレット設定を読み込みます。
func LoadConfig() Config {
	return Config{
		InitialBalance:  envDecimal("WALLET_INITIAL_BALANCE", DefaultInitialBalance),
		PayoutRatio:     envDecimal("WALLET_PAYOUT_RATIO", DefaultPayoutRatio),
		ResolutionDelay: envDuration("WALLET_RESOLUTION_DELAY", DefaultResolutionDelay),
		ResolutionMode:  envMode("WALLET_RESOLUTION_MODE"),
	}
}

func envDecimal(key string, def decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		slog.Warn("invalid decimal in environment, using default", "key", key, "value", raw, "default", def.String())
		return def
	}
	return d
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}

func envMode(key string) string {
	switch raw := os.Getenv(key); raw {
	case "", ResolutionCoinFlip:
		return ResolutionCoinFlip
	case ResolutionPrice:
		return ResolutionPrice
	default:
		slog.Warn("unknown resolution mode, using coinflip", "key", key, "value", raw)
		return ResolutionCoinFlip
	}
}
