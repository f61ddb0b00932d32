package di

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	sessionusecase "demotrade_backend/internal/feature/session/usecase"
	"demotrade_backend/internal/feature/wallet/usecase"
)

// NewLedgerFactory returns a factory building one ledger per session, all sharing
// the price quoter, bet recorder, resolver and clock.
func NewLedgerFactory(cfg usecase.Config, quoter usecase.PriceQuoter, recorder usecase.BetRecorder, clock clockwork.Clock) sessionusecase.LedgerFactory {
	if cfg.ResolutionMode == usecase.ResolutionCoinFlip {
		slog.Warn("bets are resolved by coin flip, independent of price movement; set WALLET_RESOLUTION_MODE=price to settle on price")
	}
	resolver := usecase.NewResolver(cfg.ResolutionMode, nil)
	return func(sessionID string) *usecase.Ledger {
		return usecase.NewLedger(sessionID, cfg, resolver, quoter, recorder, clock)
	}
}
