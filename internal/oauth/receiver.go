package oauth

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates no callback arrived within the configured window.
	ErrTimeout = errors.New("authentication timed out")

	// ErrNoPortAvailable indicates no free loopback port was found in the
	// configured range. Surfaced before any browser launch happens.
	ErrNoPortAvailable = errors.New("no available callback port")
)

// RedirectError is the error the identity provider reported through the
// redirect (e.g. access_denied).
type RedirectError struct {
	Reason string
}

// Error implements the error interface.
func (e *RedirectError) Error() string {
	return fmt.Sprintf("authorization failed: %s", e.Reason)
}

// Receipt is the handle for one pending callback delivery.
type Receipt struct {
	// RedirectURI is the redirect target to advertise to the backend:
	// the bound loopback URL for the listener transport, the registered
	// deep-link URI otherwise.
	RedirectURI string

	// Port is the bound loopback port (listener transport only).
	Port int

	results <-chan callbackResult
}

type callbackResult struct {
	code string
	err  error
}

// CallbackReceiver captures the authorization code from the provider's
// redirect. Two implementations exist: a transient loopback HTTP listener
// and a passive deep-link subscription. The orchestrator stays
// transport-agnostic behind this interface.
type CallbackReceiver interface {
	// MaterialKind is the correlation material the transport requires.
	MaterialKind() MaterialKind

	// Begin arms the receiver for one callback and returns its receipt.
	// Beginning a new attempt supersedes any earlier pending one.
	Begin(ctx context.Context) (*Receipt, error)

	// Await blocks until the callback resolves, the receiver's own timeout
	// fires, or ctx ends. It returns the authorization code on success and
	// always releases transport resources before returning.
	Await(ctx context.Context, receipt *Receipt) (string, error)
}
