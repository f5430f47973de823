// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer. Services return these (wrapped or
// bare) and handlers translate them to stable problem responses.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflicting entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrExpired marks a verification challenge whose TTL lapsed. Clients
	// should request a fresh challenge rather than retry.
	ErrExpired = errors.New("challenge expired")
	// ErrMismatch marks a wrong verification answer or subject. Retryable
	// within the TTL unless the subject itself mismatched.
	ErrMismatch = errors.New("verification mismatch")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrExpired):
		Problem(w, http.StatusGone, "Expired", err.Error())
	case errors.Is(err, ErrMismatch):
		Problem(w, http.StatusForbidden, "Mismatch", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
