// Package handler provides HTTP handlers for demo sessions.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"demotrade_backend/internal/api"
	"demotrade_backend/internal/feature/session/transport/http/dto"
	"demotrade_backend/internal/feature/session/usecase"
	jwtmw "demotrade_backend/internal/platform/jwt"
)

// SessionUsecase is the subset of the session manager used by the handler.
type SessionUsecase interface {
	Create(ctx context.Context, in usecase.CreateInput) (*usecase.CreateResult, error)
	Revoke(ctx context.Context, sessionID string) error
}

// SessionHandler handles session-related HTTP requests.
type SessionHandler struct {
	uc SessionUsecase
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(uc SessionUsecase) *SessionHandler {
	return &SessionHandler{uc: uc}
}

// Create handles POST /sessions.
// It returns 201 with a bearer token bound to a freshly funded demo wallet.
func (h *SessionHandler) Create(c *gin.Context) {
	res, err := h.uc.Create(c.Request.Context(), usecase.CreateInput{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		if errors.Is(err, usecase.ErrManagerClosed) {
			c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "shutting down"})
			return
		}
		slog.Error("failed to create session", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusCreated, dto.SessionResponse{
		Token:     res.Token,
		SessionID: res.Session.ID,
		Balance:   res.Balance.InexactFloat64(),
		ExpiresAt: res.Session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Delete handles DELETE /sessions/current.
func (h *SessionHandler) Delete(c *gin.Context) {
	sessionID := c.GetString(jwtmw.ContextSessionID)
	if err := h.uc.Revoke(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "session expired"})
			return
		}
		slog.Error("failed to revoke session", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}
