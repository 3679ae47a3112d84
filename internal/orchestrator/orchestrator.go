package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkg/browser"
	"golang.org/x/sync/singleflight"

	"editron/internal/backend"
	"editron/internal/config"
	"editron/internal/oauth"
	"editron/internal/session"
	"editron/pkg/logging"
)

var (
	// ErrNoActiveSession indicates finalization was attempted with no login
	// attempt in flight, or after its material was already consumed.
	ErrNoActiveSession = errors.New("no active login session")

	// ErrNotLoggedIn indicates an operation needing a stored token found none.
	ErrNotLoggedIn = errors.New("not logged in")
)

// BrowserOpener launches the system browser at the given URL.
type BrowserOpener func(url string) error

// Orchestrator sequences the login flow: correlation material, callback
// transport, browser launch, token exchange, profile fetch, and registry
// updates. All operations are safe for concurrent use.
type Orchestrator struct {
	cfg      *config.Config
	client   *backend.Client
	registry *session.Registry
	receiver oauth.CallbackReceiver

	slot        oauth.Slot
	events      EventSink
	openBrowser BrowserOpener

	// probes collapses concurrent liveness checks for the same server into
	// one backend round trip.
	probes singleflight.Group
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithEventSink replaces the default logging event sink.
func WithEventSink(sink EventSink) Option {
	return func(o *Orchestrator) {
		o.events = sink
	}
}

// WithBrowserOpener replaces the system browser launcher.
func WithBrowserOpener(open BrowserOpener) Option {
	return func(o *Orchestrator) {
		o.openBrowser = open
	}
}

// New creates an orchestrator over the given backend client, session
// registry, and callback transport.
func New(cfg *config.Config, client *backend.Client, registry *session.Registry, receiver oauth.CallbackReceiver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:         cfg,
		client:      client,
		registry:    registry,
		receiver:    receiver,
		events:      LogSink{},
		openBrowser: browser.OpenURL,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Login runs the full interactive flow: arms the callback transport,
// generates fresh correlation material, opens the browser at the provider's
// authorization URL, waits for the redirect, and finalizes with the received
// code. Any prior in-flight attempt is superseded. No residual token is left
// behind on failure before the exchange step.
func (o *Orchestrator) Login(ctx context.Context) error {
	receipt, err := o.receiver.Begin(ctx)
	if err != nil {
		o.failLogin(err)
		return err
	}

	material, err := oauth.Generate(o.receiver.MaterialKind())
	if err != nil {
		o.failLogin(err)
		return err
	}

	attempt := o.slot.Begin(material, receipt.RedirectURI)
	logging.Info("Orchestrator", "Login attempt %s started (%s transport)", attempt.ID, material.Kind)

	// Only the loopback transport advertises its redirect target; the
	// deep-link redirect is registered with the backend out of band.
	advertised := ""
	if material.Kind == oauth.MaterialState {
		advertised = receipt.RedirectURI
	}

	authURL, err := o.client.AuthURL(ctx, advertised)
	if err != nil {
		o.slot.Clear()
		o.failLogin(err)
		return err
	}

	if err := o.openBrowser(authURL); err != nil {
		o.slot.Clear()
		err = fmt.Errorf("failed to open browser: %w", err)
		o.failLogin(err)
		return err
	}
	logging.Info("Orchestrator", "Browser opened for authorization")

	code, err := o.receiver.Await(ctx, receipt)
	if err != nil {
		o.slot.Clear()
		o.failLogin(err)
		return err
	}

	return o.Finalize(ctx, code)
}

// Finalize consumes the active attempt's correlation material and exchanges
// the authorization code for a token. The token is stored before the profile
// fetch; a profile failure is reported but leaves the token in place, since
// authenticated-without-profile is a legitimate transient state.
func (o *Orchestrator) Finalize(ctx context.Context, code string) error {
	attempt, ok := o.slot.Take()
	if !ok {
		o.failLogin(ErrNoActiveSession)
		return ErrNoActiveSession
	}

	pair, err := o.client.Exchange(ctx, code, attempt.Material.CodeVerifier(), attempt.RedirectURI)
	if err != nil {
		o.failLogin(err)
		return err
	}

	token := session.NewAccessToken(o.cfg.DefaultServerID, pair.AccessToken, pair.RefreshToken)
	if err := o.registry.PutToken(token); err != nil {
		o.failLogin(err)
		return err
	}

	profile, err := o.client.Profile(ctx, pair.AccessToken)
	if err != nil {
		logging.Warn("Orchestrator", "Profile fetch failed after token exchange: %v", err)
		o.failLogin(err)
		return err
	}

	server := session.Server{
		ID:        o.cfg.DefaultServerID,
		Profile:   profile,
		Available: true,
	}
	if err := o.registry.SaveServer(server); err != nil {
		o.failLogin(err)
		return err
	}

	logging.Info("Orchestrator", "Login completed for %s", profile.Email)
	o.events.Emit(EventLoginSuccess, profile)
	return nil
}

// CheckLogin reports whether a live session exists for the configured server.
// A stored token is probed against the profile endpoint; only a 401 is
// authoritative for invalidation and removes the token. Any other probe
// failure is inconclusive and leaves the token untouched. Concurrent checks
// share a single probe.
func (o *Orchestrator) CheckLogin(ctx context.Context) (bool, error) {
	serverID := o.cfg.DefaultServerID

	result, err, _ := o.probes.Do(serverID, func() (any, error) {
		token, ok := o.registry.Token(serverID)
		if !ok {
			return false, nil
		}

		_, err := o.client.Profile(ctx, token.AccessToken)
		switch {
		case err == nil:
			return true, nil
		case backend.IsUnauthorized(err):
			logging.Info("Orchestrator", "Stored token rejected by backend - removing")
			if removeErr := o.registry.RemoveToken(serverID); removeErr != nil {
				return false, removeErr
			}
			return false, nil
		default:
			return false, err
		}
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// GetProfile fetches the current profile for the configured server. It does
// not mutate the registry.
func (o *Orchestrator) GetProfile(ctx context.Context) (*backend.UserProfile, error) {
	token, ok := o.registry.Token(o.cfg.DefaultServerID)
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return o.client.Profile(ctx, token.AccessToken)
}

// AccessToken returns the stored token for the configured server.
func (o *Orchestrator) AccessToken() (session.AccessToken, bool) {
	return o.registry.Token(o.cfg.DefaultServerID)
}

// Logout removes the stored token, marks the server unavailable, and clears
// its profile. Logging out with no stored token is not an error.
func (o *Orchestrator) Logout(ctx context.Context) error {
	serverID := o.cfg.DefaultServerID

	if err := o.registry.RemoveToken(serverID); err != nil {
		return err
	}

	if server, ok := o.registry.ServerByID(serverID); ok {
		server.Available = false
		server.Profile = nil
		if err := o.registry.SaveServer(server); err != nil {
			return err
		}
	}

	logging.Info("Orchestrator", "Logged out from server=%s", serverID)
	o.events.Emit(EventLogoutSuccess, serverID)
	return nil
}

func (o *Orchestrator) failLogin(err error) {
	o.events.Emit(EventLoginFailed, err.Error())
}
