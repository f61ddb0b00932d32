package usecase

import (
	"errors"

	walletusecase "demotrade_backend/internal/feature/wallet/usecase"
)

var (
	// ErrSessionNotFound is shared with the wallet feature so that handlers on
	// either side map it to 401 with a single errors.Is check.
	ErrSessionNotFound = walletusecase.ErrSessionNotFound

	// ErrSessionExpired is returned when a session is found but no longer valid.
	ErrSessionExpired = errors.New("session expired")

	// ErrManagerClosed is returned by Create after CloseAll.
	ErrManagerClosed = errors.New("session manager closed")
)
