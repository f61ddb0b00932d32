package usecase

import "errors"

var (
	// ErrInsufficientBalance is returned when a stake exceeds the current balance.
	// Nothing is mutated when it is returned.
	ErrInsufficientBalance = errors.New("insufficient demo balance")

	// ErrInvalidAmount is returned for non-positive stakes and deposits.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidDirection is returned when a direction is neither UP nor DOWN.
	ErrInvalidDirection = errors.New("direction must be UP or DOWN")

	// ErrUnknownSymbol is returned when no price can be quoted for the symbol.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrBetNotFound is returned when a bet ID is not in the ledger.
	ErrBetNotFound = errors.New("bet not found")

	// ErrDoubleResolution is returned when resolving a bet that is no longer PENDING.
	// Reaching it indicates a scheduling bug; the bet is left untouched.
	ErrDoubleResolution = errors.New("bet already resolved")

	// ErrLedgerClosed is returned after the owning session has been torn down.
	ErrLedgerClosed = errors.New("ledger closed")

	// ErrSessionNotFound is returned when the session owning a ledger does not exist or has expired.
	ErrSessionNotFound = errors.New("session not found")
)
