package entity

import "time"

// Direction is the movement of a settled round.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
	DirectionFlat Direction = "FLAT"
)

// Round is one fixed-length countdown window of a symbol.
type Round struct {
	Number    int64         // Sequence number, starting at 1
	StartTime time.Time     // When the countdown was (re)started
	Duration  time.Duration // Configured round length
	Remaining time.Duration // Time left before expiry
}

// Settlement is emitted when a round expires. Open and Close come from the
// sealed candle and are the market-determined outcome of the round.
type Settlement struct {
	Symbol    string
	Round     Round
	Candle    Candle
	Open      float64
	Close     float64
	Direction Direction
}

// PriceStats summarizes a symbol's simulated price relative to its seed price.
type PriceStats struct {
	Price         float64
	SeedPrice     float64
	Change        float64
	ChangePercent float64
	High24h       float64
	Low24h        float64
}

// Snapshot is a consistent copy of a scheduler's state handed to presenters.
type Snapshot struct {
	Symbol  string
	Current Candle
	Round   Round
	Stats   PriceStats
	History []Candle
}
