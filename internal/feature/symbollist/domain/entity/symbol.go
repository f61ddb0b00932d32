// Package entity defines the domain models for the symbollist feature.
package entity

// Symbol represents a tradable pair on the demo board.
// FallbackPrice seeds the simulation when the upstream price feed is unavailable.
type Symbol struct {
	ID            uint
	Code          string // e.g. "BTCUSDT"
	Name          string // e.g. "Bitcoin"
	FallbackPrice float64
	IsActive      bool
	SortKey       int
}
