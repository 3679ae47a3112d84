package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"editron/internal/config"
	"editron/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for backend requests.
const DefaultHTTPTimeout = 30 * time.Second

// providerName is the identity provider modeled by the backend.
const providerName = "google-oauth2"

// UserProfile is the profile resolved from the backend for an access token.
// It is an immutable value; each successful fetch replaces the prior one.
type UserProfile struct {
	ID             int     `json:"id"`
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
	AuthProvider   string  `json:"authProvider"`
}

// TokenPair is the result of a successful authorization-code exchange.
// Expiry is not supplied by the backend; the caller computes it.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type authURLResponse struct {
	URL string `json:"url"`
}

type exchangeRequest struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"codeVerifier"`
	Provider     string `json:"provider"`
	RedirectURI  string `json:"tauriRedirectUri"`
}

// Client talks to the backend identity endpoints: authorization URL
// resolution, authorization-code exchange, and profile lookup.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

// ClientOption configures the backend client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new backend client.
func NewClient(cfg *config.Config, opts ...ClientOption) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AuthURL asks the backend for the identity provider's authorization URL.
// redirectURI is embedded as a query parameter for the loopback transport;
// pass the empty string for the deep-link transport.
func (c *Client) AuthURL(ctx context.Context, redirectURI string) (string, error) {
	endpoint := c.cfg.GoogleLoginURL()
	if redirectURI != "" {
		endpoint = endpoint + "?redirect_uri=" + url.QueryEscape(redirectURI)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create auth URL request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read auth URL response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Warn("Backend", "Auth URL request failed: status=%d", resp.StatusCode)
		return "", &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var authResp authURLResponse
	if err := json.Unmarshal(body, &authResp); err != nil || authResp.URL == "" {
		return "", fmt.Errorf("%w: auth URL payload", ErrMalformedResponse)
	}

	return authResp.URL, nil
}

// Exchange swaps an authorization code for an access/refresh token pair.
// codeVerifier is empty for the state-based loopback transport and the raw
// PKCE verifier for the deep-link transport.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier, redirectURI string) (*TokenPair, error) {
	payload, err := json.Marshal(exchangeRequest{
		Code:         code,
		CodeVerifier: codeVerifier,
		Provider:     providerName,
		RedirectURI:  redirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenExchangeURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Warn("Backend", "Token exchange rejected: status=%d", resp.StatusCode)
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil || pair.AccessToken == "" {
		return nil, fmt.Errorf("%w: token exchange payload", ErrMalformedResponse)
	}

	logging.Info("Backend", "Token exchange completed")
	return &pair, nil
}

// Profile resolves the user profile for an access token.
// Returns ErrUnauthorized on 401 so callers can invalidate the stored token;
// other non-success statuses yield a *StatusError and do not imply the token
// is bad.
func (c *Client) Profile(ctx context.Context, accessToken string) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserProfileURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.bearerClient(ctx, accessToken).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		logging.Warn("Backend", "Profile request returned 401 - token expired or invalid")
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var profile UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: profile payload", ErrMalformedResponse)
	}

	return &profile, nil
}

// bearerClient wraps the configured HTTP client so every request carries the
// access token as a Bearer authorization header.
func (c *Client) bearerClient(ctx context.Context, accessToken string) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, src)
}
