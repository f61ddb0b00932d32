// Package usecase implements the demo session lifecycle: creating a session with
// its own ledger, resolving the ledger from a token subject, and tearing it down.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"demotrade_backend/internal/feature/session/domain/entity"
	walletusecase "demotrade_backend/internal/feature/wallet/usecase"
)

// LedgerFactory builds the ledger owned by a new session.
type LedgerFactory func(sessionID string) *walletusecase.Ledger

// CreateInput carries request metadata recorded with a new session.
type CreateInput struct {
	UserAgent string
	IPAddress string
}

// CreateResult is returned by Create.
type CreateResult struct {
	Session *entity.Session
	Token   string
	Balance decimal.Decimal
}

type liveSession struct {
	ledger    *walletusecase.Ledger
	expiresAt time.Time
}

// Manager owns every live session's ledger. Session metadata is persisted through
// the SessionRepository; ledgers only live in memory and die with the process.
type Manager struct {
	repo      SessionRepository
	tokens    TokenGenerator
	newLedger LedgerFactory
	clock     clockwork.Clock
	cfg       Config

	mu     sync.Mutex
	live   map[string]*liveSession
	closed bool
}

// Compile-time check to ensure Manager can serve the wallet feature.
var _ walletusecase.LedgerProvider = (*Manager)(nil)

// NewManager creates a new Manager.
func NewManager(repo SessionRepository, tokens TokenGenerator, newLedger LedgerFactory, clock clockwork.Clock, cfg Config) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	return &Manager{
		repo:      repo,
		tokens:    tokens,
		newLedger: newLedger,
		clock:     clock,
		cfg:       cfg,
		live:      make(map[string]*liveSession),
	}
}

// Create starts a new demo session with a freshly funded ledger and returns a signed token for it.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	now := m.clock.Now()
	s := &entity.Session{
		ID:        uuid.NewString(),
		UserAgent: in.UserAgent,
		IPAddress: in.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.TTL),
	}

	token, err := m.tokens.GenerateToken(s.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	ledger := m.newLedger(s.ID)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		ledger.Close()
		return nil, ErrManagerClosed
	}
	m.live[s.ID] = &liveSession{ledger: ledger, expiresAt: s.ExpiresAt}
	m.mu.Unlock()

	slog.Info("demo session created", "session_id", s.ID, "expires_at", s.ExpiresAt)
	return &CreateResult{Session: s, Token: token, Balance: ledger.Balance()}, nil
}

// Ledger returns the ledger of a valid session.
// Sessions unknown to the repository, expired, revoked, or created before a restart
// all yield ErrSessionNotFound.
func (m *Manager) Ledger(ctx context.Context, sessionID string) (*walletusecase.Ledger, error) {
	s, err := m.repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			m.drop(sessionID)
		}
		return nil, err
	}
	if !s.IsValid(m.clock.Now()) {
		m.drop(sessionID)
		return nil, fmt.Errorf("%w: %w", ErrSessionNotFound, ErrSessionExpired)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ls, ok := m.live[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ls.ledger, nil
}

// Revoke ends a session: its token stops working and pending bet timers are cancelled.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if err := m.repo.Revoke(ctx, sessionID, m.clock.Now()); err != nil {
		return err
	}
	m.drop(sessionID)
	slog.Info("demo session revoked", "session_id", sessionID)
	return nil
}

// drop closes and forgets a live ledger, if any.
func (m *Manager) drop(sessionID string) {
	m.mu.Lock()
	ls, ok := m.live[sessionID]
	delete(m.live, sessionID)
	m.mu.Unlock()

	if ok {
		ls.ledger.Close()
	}
}

// Sweep closes the ledgers of expired sessions and purges expired metadata.
// It returns the number of ledgers closed.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.clock.Now()

	m.mu.Lock()
	var expired []*liveSession
	for id, ls := range m.live {
		if !now.Before(ls.expiresAt) {
			expired = append(expired, ls)
			delete(m.live, id)
		}
	}
	m.mu.Unlock()

	for _, ls := range expired {
		ls.ledger.Close()
	}

	if n, err := m.repo.DeleteExpired(ctx, now); err != nil {
		slog.Warn("failed to purge expired sessions", "error", err)
	} else if n > 0 {
		slog.Info("expired sessions purged", "count", n)
	}
	return len(expired)
}

// Run sweeps expired sessions every SweepInterval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := m.Sweep(ctx); n > 0 {
				slog.Info("expired demo sessions closed", "count", n)
			}
		}
	}
}

// CloseAll closes every live ledger and rejects new sessions. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	live := m.live
	m.live = make(map[string]*liveSession)
	m.closed = true
	m.mu.Unlock()

	for _, ls := range live {
		ls.ledger.Close()
	}
	slog.Info("demo sessions closed", "count", len(live))
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
