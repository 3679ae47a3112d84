package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"editron/pkg/logging"
)

// DefaultDataDir is the default directory for persisted state, relative to
// the user's home directory. This follows XDG conventions.
const DefaultDataDir = ".config/editron"

// Deep-link URI components registered with the OS for the redirect scheme.
const (
	DeepLinkScheme = "editron-app"
	DeepLinkHost   = "auth"
	DeepLinkPath   = "/callback"
)

// Config holds the runtime configuration for the login core.
// All fields can be overridden through the environment; a .env file in the
// working directory is loaded first if present.
type Config struct {
	// BackendURL is the base URL of the backend identity provider.
	BackendURL string `env:"EDITRON_BACKEND_URL" envDefault:"http://localhost:5000"`

	// APIVersion is the API version path segment.
	APIVersion string `env:"EDITRON_API_VERSION" envDefault:"v1"`

	// CallbackPortStart is the first port tried for the loopback listener.
	CallbackPortStart int `env:"EDITRON_OAUTH_PORT_START" envDefault:"8080"`

	// CallbackTimeout is how long to wait for the OAuth callback.
	CallbackTimeout time.Duration `env:"EDITRON_OAUTH_TIMEOUT" envDefault:"300s"`

	// DefaultServerID identifies the configured backend server.
	DefaultServerID string `env:"EDITRON_SERVER_ID" envDefault:"backend_v1"`

	// DataDir is the directory for persisted servers and tokens.
	// Defaults to ~/.config/editron when empty.
	DataDir string `env:"EDITRON_DATA_DIR"`
}

// Load reads configuration from the environment with fallback to defaults.
func Load() (*Config, error) {
	// Load .env if it exists; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(homeDir, DefaultDataDir)
	}

	logging.Info("Config", "Loaded configuration: backend_url=%s api_version=%s oauth_port=%d server_id=%s",
		cfg.BackendURL, cfg.APIVersion, cfg.CallbackPortStart, cfg.DefaultServerID)

	return cfg, nil
}

// APIBaseURL returns the full backend API base URL.
func (c *Config) APIBaseURL() string {
	return fmt.Sprintf("%s/api/%s", c.BackendURL, c.APIVersion)
}

// GoogleLoginURL returns the endpoint that hands out the provider's
// authorization URL.
func (c *Config) GoogleLoginURL() string {
	return c.APIBaseURL() + "/auth/google/login"
}

// TokenExchangeURL returns the authorization-code exchange endpoint.
func (c *Config) TokenExchangeURL() string {
	return c.APIBaseURL() + "/auth/token/exchange"
}

// UserProfileURL returns the bearer-authenticated profile endpoint.
func (c *Config) UserProfileURL() string {
	return c.APIBaseURL() + "/auth/user"
}

// CallbackURL returns the loopback redirect URI for a bound port.
func (c *Config) CallbackURL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d/auth/callback", port)
}

// ServersStorePath returns the path of the persisted servers document.
func (c *Config) ServersStorePath() string {
	return filepath.Join(c.DataDir, "servers.json")
}

// TokensStorePath returns the path of the persisted tokens document.
func (c *Config) TokensStorePath() string {
	return filepath.Join(c.DataDir, "tokens.json")
}

// MatchesDeepLink reports whether a URI belongs to the registered redirect
// scheme. Unrelated OS events routed through the deep-link channel must not
// be treated as login callbacks.
func MatchesDeepLink(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == DeepLinkScheme && u.Host == DeepLinkHost && u.Path == DeepLinkPath
}
