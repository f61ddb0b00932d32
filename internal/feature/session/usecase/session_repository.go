package usecase

import (
	"context"
	"time"

	"demotrade_backend/internal/feature/session/domain/entity"
)

// SessionRepository abstracts the persistence layer for session metadata.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SessionRepository interface {
	// Create persists a new session to the storage.
	Create(ctx context.Context, session *entity.Session) error

	// FindByID retrieves a session by its ID.
	FindByID(ctx context.Context, id string) (*entity.Session, error)

	// Revoke marks a session as revoked by setting RevokedAt.
	Revoke(ctx context.Context, id string, at time.Time) error

	// DeleteExpired removes all sessions that expired before now.
	// Returns the number of deleted sessions.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenGenerator signs an access token for a session.
type TokenGenerator interface {
	GenerateToken(sessionID string) (string, error)
}
