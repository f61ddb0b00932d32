// Package jwtmw issues and verifies the bearer tokens that bind requests to demo sessions.
package jwtmw

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// EnvKeyJWTSecret is the environment variable holding the HMAC signing secret.
const EnvKeyJWTSecret = "JWT_SECRET"

// Generator defines the interface for JWT token generation.
type Generator interface {
	// GenerateToken creates a signed JWT token whose subject is the session ID.
	GenerateToken(sessionID string) (string, error)
}

// generator implements the Generator interface.
type generator struct {
	secret     []byte
	expiration time.Duration
	clock      clockwork.Clock
}

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration, clock clockwork.Clock) *generator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
		clock:      clock,
	}
}

// GenerateToken creates a signed JWT token with standard claims.
func (g *generator) GenerateToken(sessionID string) (string, error) {
	now := g.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
