// Package apperr defines the error taxonomy shared by services and handlers.
// Services wrap these sentinels with context; handlers map them to HTTP
// statuses with Status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("user not verified")
	ErrUnauthenticated    = errors.New("user not authenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
)

// Status returns the HTTP status code for err. Unknown errors are 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrNotVerified),
		errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Validation wraps ErrValidation with a human readable reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the kind of resource that was missing.
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}
