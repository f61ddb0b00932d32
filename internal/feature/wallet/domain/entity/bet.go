// Package entity defines the domain models for the wallet feature.
package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side a bet is placed on.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// ParseDirection converts user input into a Direction. It is case-insensitive.
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case DirectionUp, DirectionDown:
		return d, true
	default:
		return "", false
	}
}

// BetStatus is the lifecycle state of a bet.
// A bet starts PENDING and transitions exactly once to WIN or LOSE.
type BetStatus string

const (
	BetPending BetStatus = "PENDING"
	BetWin     BetStatus = "WIN"
	BetLose    BetStatus = "LOSE"
)

// Bet is a directional stake on a symbol's price movement.
type Bet struct {
	ID         string          // Unique bet identifier (UUID)
	Symbol     string          // Trading pair the bet was placed on
	Amount     decimal.Decimal // Stake debited at placement
	Direction  Direction       // UP or DOWN
	PlacedAt   time.Time       // Placement time
	Status     BetStatus       // PENDING until resolved
	Payout     decimal.Decimal // Amount credited on WIN (zero otherwise)
	OpenPrice  float64         // Simulated price at placement (0 when unknown)
	ClosePrice float64         // Simulated price at resolution (0 when unknown)
	ResolvedAt *time.Time      // Resolution time (nil while pending)
}

// IsResolved reports whether the bet has left the PENDING state.
func (b Bet) IsResolved() bool {
	return b.Status != BetPending
}
