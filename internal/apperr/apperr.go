// Package apperr declares the domain errors surfaced by the API and their HTTP mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUnauthenticated        = errors.New("not authenticated")
	ErrInvalidToken           = errors.New("invalid token")
	ErrInvalidOrExpiredToken  = errors.New("invalid or expired token")
	ErrUpstreamUnavailable    = errors.New("upstream unavailable")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
)

// UpstreamStatusError is a third-party response whose status is passed to the client.
type UpstreamStatusError struct {
	Service    string
	StatusCode int
	Body       any
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Service, e.StatusCode)
}

// Validation wraps ErrValidation with a client-facing reason.
func Validation(reason string) error {
	return &reasonError{kind: ErrValidation, reason: reason}
}

// Upstream wraps ErrUpstreamUnavailable with a client-facing reason.
func Upstream(reason string) error {
	return &reasonError{kind: ErrUpstreamUnavailable, reason: reason}
}

// WithReason attaches a client-facing message to one of the sentinels above.
func WithReason(kind error, reason string) error {
	return &reasonError{kind: kind, reason: reason}
}

type reasonError struct {
	kind   error
	reason string
}

func (e *reasonError) Error() string { return e.kind.Error() + ": " + e.reason }
func (e *reasonError) Unwrap() error { return e.kind }

// Status maps err to an HTTP status code.
func Status(err error) int {
	var up *UpstreamStatusError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &up):
		if up.StatusCode == http.StatusTooManyRequests || up.StatusCode >= 500 {
			return http.StatusBadGateway
		}
		return up.StatusCode
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrEmailAlreadyRegistered),
		errors.Is(err, ErrInvalidOrExpiredToken):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for err. Internal causes never leak.
func Message(err error) string {
	var re *reasonError
	if errors.As(err, &re) {
		return re.reason
	}
	var up *UpstreamStatusError
	if errors.As(err, &up) {
		return up.Error()
	}
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid payload"
	case errors.Is(err, ErrEmailAlreadyRegistered):
		return "email already registered"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid credentials"
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidToken):
		return "not authenticated"
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return "invalid or expired token"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrConflict):
		return "already exists"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream service unavailable"
	default:
		return "internal server error"
	}
}
