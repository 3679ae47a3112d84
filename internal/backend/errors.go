package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendUnreachable indicates a transport-level failure talking to
	// the backend (DNS, refused connection, timeout). Not retried here;
	// the caller decides whether to surface or retry the whole login.
	ErrBackendUnreachable = errors.New("backend unreachable")

	// ErrUnauthorized indicates the backend rejected the bearer token (401).
	// Callers treat this as authoritative: the stored token is invalid.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMalformedResponse indicates a success status with a body that
	// could not be parsed.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// StatusError is returned when the backend answers with a non-success
// HTTP status. The body is carried for diagnostics.
type StatusError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("backend request failed with status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("backend request failed with status %d", e.Status)
}

// IsUnauthorized reports whether err represents a 401 from the backend.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
