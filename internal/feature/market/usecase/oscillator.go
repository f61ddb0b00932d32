// Package usecase はマーケットシミュレーション（価格生成・ラウンド進行）のビジネスロジックを実装します。
package usecase

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"demotrade_backend/internal/feature/market/domain/entity"
)

// wickRatio は過去足生成時のヒゲの長さ（変動幅に対する比率）です。
const wickRatio = 0.2

// builtinFallbackPrices はシード価格が取得できない場合の固定値です。
var builtinFallbackPrices = map[string]float64{
	"BTCUSDT": 45000,
	"ETHUSDT": 3000,
}

// RandomSource は [0,1) の一様乱数を返す乱数源です。
// テストでは決定的な系列を注入します。
type RandomSource interface {
	Float64() float64
}

// RandomFunc は関数を RandomSource として扱うためのアダプタです。
type RandomFunc func() float64

// Float64 は f を呼び出します。
func (f RandomFunc) Float64() float64 { return f() }

// DefaultRandom はゴルーチンセーフな math/rand/v2 のグローバル乱数源です。
var DefaultRandom RandomSource = RandomFunc(rand.Float64)

// SeedPriceSource は銘柄の初期価格を外部から取得するリポジトリです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type SeedPriceSource interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
}

// Oscillator は実際の市場フィードの代わりにランダムウォークで価格を生成します。
// 状態は持たず、価格の保持は呼び出し側の責任です。
type Oscillator struct {
	volatility float64
	rng        RandomSource
	seeds      SeedPriceSource
	fallbacks  map[string]float64
}

// NewOscillator は Oscillator を生成します。seeds が nil の場合は常にフォールバック価格を使用します。
func NewOscillator(volatility float64, rng RandomSource, seeds SeedPriceSource, fallbacks map[string]float64) *Oscillator {
	if volatility <= 0 {
		volatility = DefaultVolatility
	}
	if rng == nil {
		rng = DefaultRandom
	}
	fb := make(map[string]float64, len(builtinFallbackPrices)+len(fallbacks))
	for k, v := range builtinFallbackPrices {
		fb[k] = v
	}
	for k, v := range fallbacks {
		if v > 0 {
			fb[k] = v
		}
	}
	return &Oscillator{volatility: volatility, rng: rng, seeds: seeds, fallbacks: fb}
}

// Tick は直前の価格から次の価格を生成します。
// 変動幅は previous × volatility で、ゼロを中心とした一様ノイズです。
func (o *Oscillator) Tick(previous float64) float64 {
	delta := (o.rng.Float64() - 0.5) * previous * o.volatility
	next := previous + delta
	// 価格がゼロ以下にならないようにする
	if next <= 0 {
		return previous
	}
	return next
}

// FallbackPrice は銘柄のフォールバック価格を返します。未登録の銘柄は 1 です。
func (o *Oscillator) FallbackPrice(symbol string) float64 {
	if p, ok := o.fallbacks[symbol]; ok {
		return p
	}
	return 1
}

// Initialize は銘柄のシード価格を返します。
// 外部取得に失敗した場合はフォールバック価格を使用し、エラーは呼び出し元に返しません。
func (o *Oscillator) Initialize(ctx context.Context, symbol string) float64 {
	fallback := o.FallbackPrice(symbol)
	if o.seeds == nil {
		return fallback
	}
	price, err := o.seeds.GetPrice(ctx, symbol)
	if err != nil {
		slog.Warn("failed to fetch seed price, using fallback", "symbol", symbol, "fallback", fallback, "error", err)
		return fallback
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		slog.Warn("seed price out of range, using fallback", "symbol", symbol, "price", price, "fallback", fallback)
		return fallback
	}
	return price
}

// History は end で終わる count 本の確定済みローソク足を古い順に生成します。
// 各足は直前の足の終値で始まり、実体の上下にランダムなヒゲを付けます。
func (o *Oscillator) History(symbol string, base float64, end time.Time, count int, interval time.Duration) []entity.Candle {
	if count <= 0 {
		return nil
	}
	vol := base * o.volatility
	out := make([]entity.Candle, 0, count)
	open := base
	for i := count - 1; i >= 0; i-- {
		change := (o.rng.Float64() - 0.5) * vol
		closePrice := open + change
		if closePrice <= 0 {
			closePrice = open
		}
		high := math.Max(open, closePrice) + o.rng.Float64()*vol*wickRatio
		low := math.Min(open, closePrice) - o.rng.Float64()*vol*wickRatio
		out = append(out, entity.Candle{
			Symbol:   symbol,
			OpenTime: end.Add(-time.Duration(i) * interval),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
		})
		open = closePrice
	}
	return out
}
