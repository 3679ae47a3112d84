package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"editron/internal/backend"
)

func newTestRegistry(t *testing.T, dir string) *Registry {
	t.Helper()

	serversStore, err := NewFileStore(filepath.Join(dir, "servers.json"))
	require.NoError(t, err)
	tokensStore, err := NewFileStore(filepath.Join(dir, "tokens.json"))
	require.NoError(t, err)

	registry, err := NewRegistry(serversStore, tokensStore)
	require.NoError(t, err)
	return registry
}

func TestRegistry_EmptyStateIsNotAnError(t *testing.T) {
	registry := newTestRegistry(t, t.TempDir())

	_, ok := registry.ServerByID("backend_v1")
	assert.False(t, ok)
	assert.False(t, registry.HasToken("backend_v1"))
}

func TestRegistry_PersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	registry := newTestRegistry(t, dir)

	picture := "https://cdn.example/pic.png"
	server := Server{
		ID: "backend_v1",
		Profile: &backend.UserProfile{
			ID:             42,
			Email:          "ada@example.com",
			Name:           "Ada",
			ProfilePicture: &picture,
			AuthProvider:   "google-oauth2",
		},
		Available: true,
	}
	token := AccessToken{
		ServerID:     "backend_v1",
		AccessToken:  "tok",
		RefreshToken: "ref",
		ExpiresAt:    1234567890,
	}

	require.NoError(t, registry.SaveServer(server))
	require.NoError(t, registry.PutToken(token))

	// Reload from disk into a fresh registry.
	reloaded := newTestRegistry(t, dir)

	gotServer, ok := reloaded.ServerByID("backend_v1")
	require.True(t, ok)
	assert.Equal(t, server, gotServer)

	gotToken, ok := reloaded.Token("backend_v1")
	require.True(t, ok)
	assert.Equal(t, token, gotToken)
}

func TestRegistry_TokenOverwrite(t *testing.T) {
	registry := newTestRegistry(t, t.TempDir())

	require.NoError(t, registry.PutToken(AccessToken{ServerID: "backend_v1", AccessToken: "old"}))
	require.NoError(t, registry.PutToken(AccessToken{ServerID: "backend_v1", AccessToken: "new"}))

	token, ok := registry.Token("backend_v1")
	require.True(t, ok)
	assert.Equal(t, "new", token.AccessToken)
}

func TestRegistry_RemoveTokenIsIdempotent(t *testing.T) {
	registry := newTestRegistry(t, t.TempDir())

	require.NoError(t, registry.PutToken(AccessToken{ServerID: "backend_v1", AccessToken: "tok"}))
	require.NoError(t, registry.RemoveToken("backend_v1"))
	require.NoError(t, registry.RemoveToken("backend_v1"))

	assert.False(t, registry.HasToken("backend_v1"))
}

func TestRegistry_SaveServerUpdatesInPlace(t *testing.T) {
	registry := newTestRegistry(t, t.TempDir())

	require.NoError(t, registry.SaveServer(Server{ID: "a", Available: false}))
	require.NoError(t, registry.SaveServer(Server{ID: "b", Available: false}))
	require.NoError(t, registry.SaveServer(Server{ID: "a", Available: true}))

	server, ok := registry.ServerByID("a")
	require.True(t, ok)
	assert.True(t, server.Available)
}

func TestNewAccessToken_ExpirySetAtIssuance(t *testing.T) {
	before := time.Now().Add(TokenValidity).Unix()
	token := NewAccessToken("backend_v1", "tok", "ref")
	after := time.Now().Add(TokenValidity).Unix()

	assert.GreaterOrEqual(t, token.ExpiresAt, uint64(before))
	assert.LessOrEqual(t, token.ExpiresAt, uint64(after))
	assert.Equal(t, "tok", token.AccessToken)
	assert.Equal(t, "ref", token.RefreshToken)
}
