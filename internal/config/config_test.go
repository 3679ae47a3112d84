package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("EDITRON_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.BackendURL)
	assert.Equal(t, "v1", cfg.APIVersion)
	assert.Equal(t, 8080, cfg.CallbackPortStart)
	assert.Equal(t, 300*time.Second, cfg.CallbackTimeout)
	assert.Equal(t, "backend_v1", cfg.DefaultServerID)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EDITRON_BACKEND_URL", "https://api.example.com")
	t.Setenv("EDITRON_API_VERSION", "v2")
	t.Setenv("EDITRON_OAUTH_PORT_START", "9000")
	t.Setenv("EDITRON_OAUTH_TIMEOUT", "30s")
	t.Setenv("EDITRON_SERVER_ID", "staging")
	t.Setenv("EDITRON_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.BackendURL)
	assert.Equal(t, 9000, cfg.CallbackPortStart)
	assert.Equal(t, 30*time.Second, cfg.CallbackTimeout)
	assert.Equal(t, "staging", cfg.DefaultServerID)
	assert.Equal(t, "https://api.example.com/api/v2", cfg.APIBaseURL())
}

func TestConfig_URLHelpers(t *testing.T) {
	cfg := &Config{BackendURL: "http://localhost:5000", APIVersion: "v1"}

	assert.Equal(t, "http://localhost:5000/api/v1/auth/google/login", cfg.GoogleLoginURL())
	assert.Equal(t, "http://localhost:5000/api/v1/auth/token/exchange", cfg.TokenExchangeURL())
	assert.Equal(t, "http://localhost:5000/api/v1/auth/user", cfg.UserProfileURL())
	assert.Equal(t, "http://127.0.0.1:8123/auth/callback", cfg.CallbackURL(8123))
}

func TestMatchesDeepLink(t *testing.T) {
	testCases := []struct {
		name     string
		uri      string
		expected bool
	}{
		{"matching URI", "editron-app://auth/callback?status=success", true},
		{"matching with code", "editron-app://auth/callback?status=success&code=abc", true},
		{"wrong scheme", "https://auth/callback?status=success", false},
		{"wrong host", "editron-app://other/callback", false},
		{"wrong path", "editron-app://auth/other", false},
		{"malformed", "://nope", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MatchesDeepLink(tc.uri))
		})
	}
}
