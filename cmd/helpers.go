package cmd

import (
	"fmt"

	"editron/internal/backend"
	"editron/internal/config"
	"editron/internal/oauth"
	"editron/internal/orchestrator"
	"editron/internal/session"
)

// buildOrchestrator wires configuration, persistence, backend client, and the
// requested callback transport into a ready orchestrator. When deepLink is
// true the returned *oauth.DeepLink is non-nil so the caller can feed OS
// redirect URIs into it.
func buildOrchestrator(deepLink bool, opts ...orchestrator.Option) (*orchestrator.Orchestrator, *oauth.DeepLink, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	serversStore, err := session.NewFileStore(cfg.ServersStorePath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open servers store: %w", err)
	}
	tokensStore, err := session.NewFileStore(cfg.TokensStorePath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open tokens store: %w", err)
	}
	registry, err := session.NewRegistry(serversStore, tokensStore)
	if err != nil {
		return nil, nil, err
	}

	client := backend.NewClient(cfg)

	var receiver oauth.CallbackReceiver
	var dl *oauth.DeepLink
	if deepLink {
		dl = oauth.NewDeepLink()
		receiver = dl
	} else {
		receiver = oauth.NewListener(cfg.CallbackPortStart, cfg.CallbackTimeout)
	}

	return orchestrator.New(cfg, client, registry, receiver, opts...), dl, nil
}
