package oauth

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"editron/internal/config"
	"editron/pkg/logging"
)

// DeepLink is the deep-link callback transport: the OS delivers the redirect
// as a custom-scheme URI and this receiver forwards it to the pending Await.
// Unlike the loopback listener it binds nothing and applies no timeout of its
// own; cancellation is the caller's business.
type DeepLink struct {
	mu      sync.Mutex
	pending chan callbackResult
}

// NewDeepLink creates the deep-link transport.
func NewDeepLink() *DeepLink {
	return &DeepLink{}
}

// MaterialKind returns MaterialPKCE: the deep-link flow cannot rely on a
// loopback origin, so the code verifier carries the binding instead.
func (d *DeepLink) MaterialKind() MaterialKind {
	return MaterialPKCE
}

// Begin arms the receiver for the next matching deep-link delivery. A prior
// pending attempt is superseded.
func (d *DeepLink) Begin(ctx context.Context) (*Receipt, error) {
	results := make(chan callbackResult, 1)

	d.mu.Lock()
	d.pending = results
	d.mu.Unlock()

	redirectURI := fmt.Sprintf("%s://%s%s", config.DeepLinkScheme, config.DeepLinkHost, config.DeepLinkPath)

	return &Receipt{
		RedirectURI: redirectURI,
		results:     results,
	}, nil
}

// Await blocks until a deep link resolves the attempt or ctx ends. There is
// no transport-level timeout; the user may keep the browser open as long as
// they like.
func (d *DeepLink) Await(ctx context.Context, receipt *Receipt) (string, error) {
	defer d.disarm()

	select {
	case result := <-receipt.results:
		if result.err != nil {
			return "", result.err
		}
		return result.code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Deliver feeds one URI received from the OS into the transport. URIs outside
// the registered redirect scheme are ignored, as are callbacks without
// status=success; stray OS events must never resolve a login attempt.
func (d *DeepLink) Deliver(raw string) {
	if !config.MatchesDeepLink(raw) {
		logging.Debug("OAuth", "Ignoring unrelated deep link")
		return
	}

	u, err := url.Parse(raw)
	if err != nil {
		return
	}
	query := u.Query()

	if query.Get("status") != "success" {
		logging.Warn("OAuth", "Ignoring deep link callback with status %q", query.Get("status"))
		return
	}

	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	if pending == nil {
		logging.Warn("OAuth", "Deep link callback arrived with no pending login attempt")
		return
	}

	logging.Info("OAuth", "Deep link callback received")
	select {
	case pending <- callbackResult{code: query.Get("code")}:
	default:
	}
}

func (d *DeepLink) disarm() {
	d.mu.Lock()
	d.pending = nil
	d.mu.Unlock()
}
