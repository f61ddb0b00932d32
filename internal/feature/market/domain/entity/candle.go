// Package entity defines the domain models for the market feature.
package entity

import (
	"math"
	"time"
)

// PriceTick is a single simulated price sample for a symbol.
type PriceTick struct {
	Symbol string    // Trading pair (e.g., "BTCUSDT")
	Time   time.Time // Sample time
	Price  float64   // Simulated price
}

// Candle represents an OHLC summary of the ticks observed during one round.
// While a candle is the active one of its round it is mutated by every tick;
// once the round expires it is sealed and never changes again.
type Candle struct {
	Symbol   string    // Trading pair (e.g., "BTCUSDT")
	OpenTime time.Time // Start of the round this candle belongs to
	Open     float64   // Opening price (previous candle's close)
	High     float64   // Highest price seen during the round
	Low      float64   // Lowest price seen during the round
	Close    float64   // Latest price
}

// NewCandle returns a flat candle where every price equals open.
func NewCandle(symbol string, openTime time.Time, open float64) Candle {
	return Candle{
		Symbol:   symbol,
		OpenTime: openTime,
		Open:     open,
		High:     open,
		Low:      open,
		Close:    open,
	}
}

// Apply folds a price into the candle. Open is never touched.
func (c Candle) Apply(price float64) Candle {
	c.High = math.Max(c.High, price)
	c.Low = math.Min(c.Low, price)
	c.Close = price
	return c
}

// Valid reports whether low <= min(open, close) and high >= max(open, close).
func (c Candle) Valid() bool {
	return c.Low <= math.Min(c.Open, c.Close) && c.High >= math.Max(c.Open, c.Close)
}

// Direction returns the movement of the candle body.
func (c Candle) Direction() Direction {
	switch {
	case c.Close > c.Open:
		return DirectionUp
	case c.Close < c.Open:
		return DirectionDown
	default:
		return DirectionFlat
	}
}
