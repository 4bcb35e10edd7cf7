// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Domain sentinels surfaced to API callers as user-correctable failures.
var (
	ErrAlreadyRunning     = errors.New("search is already running")
	ErrNoActiveSession    = errors.New("no active search to stop")
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrAccountNotLinked   = errors.New("platform account not linked")
	ErrInvalidInput       = errors.New("invalid input")
)

// Map converts repo/infra/domain errors into an HTTP status + message.
// Keeps handlers clean by centralizing error mapping.
func Map(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""

	case errors.Is(err, ErrAlreadyRunning),
		errors.Is(err, ErrNoActiveSession),
		errors.Is(err, ErrUsernameTaken):
		return http.StatusConflict, err.Error()

	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized, err.Error()

	case errors.Is(err, ErrAccountNotLinked),
		errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "record not found"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"

	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "request was canceled"

	default:
		// fallback → bubble up error message for debugging
		return http.StatusInternalServerError, err.Error()
	}
}

// Invalid wraps a validation message in ErrInvalidInput.
// Use this in service layer for bad input validation.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
