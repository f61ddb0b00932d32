package usecase

import "errors"

var (
	// ErrFeedUnavailable is returned by a SeedPriceSource when no seed price could be obtained.
	// Initialize recovers from it locally and it is never surfaced to API clients.
	ErrFeedUnavailable = errors.New("seed price feed unavailable")

	// ErrUnknownSymbol is returned when a symbol is not part of the board.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrAlreadyRunning is returned when Start is called on a running scheduler or board.
	ErrAlreadyRunning = errors.New("already running")
)
