package usecase

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultRoundDuration はチャートの1ラウンドの長さです。
	DefaultRoundDuration = 30 * time.Second
	// DefaultTickInterval は価格を更新する間隔です。
	DefaultTickInterval = time.Second
	// DefaultVolatility は1ティックあたりの変動幅（価格に対する比率）です。
	DefaultVolatility = 0.001
	// DefaultHistoryCandles は起動時に生成する過去ローソク足の本数です。
	DefaultHistoryCandles = 50
	// DefaultHistoryLimit はメモリ上に保持する確定済みローソク足の上限です。
	DefaultHistoryLimit = 500
)

// defaultSymbols は MARKET_SYMBOLS 未設定時に使用する銘柄です。
var defaultSymbols = []string{"BTCUSDT", "ETHUSDT"}

// Config はマーケットシミュレーションの設定を保持します。
type Config struct {
	Symbols        []string      // シミュレーション対象の銘柄
	RoundDuration  time.Duration // 1ラウンドの長さ
	TickInterval   time.Duration // ティック間隔
	Volatility     float64       // ランダムウォークの変動率
	HistoryCandles int           // 起動時に生成する過去足の本数
	HistoryLimit   int           // メモリ上の確定足の上限
}

// LoadConfig は環境変数からマーケット設定を読み込みます。
// 不正な値はデフォルト値に置き換え、警告ログを出力します。
func LoadConfig() Config {
	return Config{
		Symbols:        envSymbols("MARKET_SYMBOLS", defaultSymbols),
		RoundDuration:  envDuration("MARKET_ROUND_DURATION", DefaultRoundDuration),
		TickInterval:   envDuration("MARKET_TICK_INTERVAL", DefaultTickInterval),
		Volatility:     envFloat("MARKET_VOLATILITY", DefaultVolatility),
		HistoryCandles: envInt("MARKET_HISTORY_CANDLES", DefaultHistoryCandles),
		HistoryLimit:   DefaultHistoryLimit,
	}
}

func envSymbols(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
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

func envFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		slog.Warn("invalid number in environment, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return f
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return n
}
