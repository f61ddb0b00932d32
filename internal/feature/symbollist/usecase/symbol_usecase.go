// Package usecase implements the business logic for the symbol catalogue.
package usecase

import (
	"context"
	"log/slog"
	"strings"

	"demotrade_backend/internal/feature/symbollist/domain/entity"
)

// SymbolRepository abstracts the persistence layer for the symbol catalogue.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	CreateBatch(ctx context.Context, symbols []entity.Symbol) error
}

// knownSymbols holds display names and fallback seed prices for common pairs.
var knownSymbols = map[string]entity.Symbol{
	"BTCUSDT": {Code: "BTCUSDT", Name: "Bitcoin", FallbackPrice: 45000},
	"ETHUSDT": {Code: "ETHUSDT", Name: "Ethereum", FallbackPrice: 3000},
	"BNBUSDT": {Code: "BNBUSDT", Name: "BNB", FallbackPrice: 300},
	"SOLUSDT": {Code: "SOLUSDT", Name: "Solana", FallbackPrice: 100},
	"XRPUSDT": {Code: "XRPUSDT", Name: "XRP", FallbackPrice: 0.5},
}

// defaultFallbackPrice is used for codes not in knownSymbols.
const defaultFallbackPrice = 1.0

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns all active symbols ordered by sort key.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// ActiveCodes returns the codes of all active symbols ordered by sort key.
func (u *SymbolUsecase) ActiveCodes(ctx context.Context) ([]string, error) {
	return u.repo.ListActiveCodes(ctx)
}

// FallbackPrices returns code → fallback seed price for every active symbol.
func (u *SymbolUsecase) FallbackPrices(ctx context.Context) (map[string]float64, error) {
	symbols, err := u.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		if s.FallbackPrice > 0 {
			out[s.Code] = s.FallbackPrice
		}
	}
	return out, nil
}

// EnsureSeeded populates an empty catalogue with codes, in the given order.
// A non-empty catalogue is left untouched so that operator edits survive restarts.
func (u *SymbolUsecase) EnsureSeeded(ctx context.Context, codes []string) error {
	n, err := u.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	symbols := BuildCatalogue(codes)
	if err := u.repo.CreateBatch(ctx, symbols); err != nil {
		return err
	}
	slog.Info("symbol catalogue seeded", "count", len(symbols))
	return nil
}

// BuildCatalogue turns codes into active catalogue entries, skipping blanks and duplicates.
func BuildCatalogue(codes []string) []entity.Symbol {
	seen := make(map[string]struct{}, len(codes))
	out := make([]entity.Symbol, 0, len(codes))
	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		s, ok := knownSymbols[code]
		if !ok {
			s = entity.Symbol{Code: code, Name: code, FallbackPrice: defaultFallbackPrice}
		}
		s.IsActive = true
		s.SortKey = len(out) + 1
		out = append(out, s)
	}
	return out
}
