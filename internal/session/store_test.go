package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	_, ok, err := store.Get("servers")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_SetSaveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("servers", json.RawMessage(`[{"id":"backend_v1"}]`)))
	require.NoError(t, store.Save())

	reloaded, err := NewFileStore(path)
	require.NoError(t, err)
	value, ok, err := reloaded.Get("servers")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"backend_v1"}]`, string(value))
}

func TestFileStore_RestrictedPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("tokens", json.RawMessage(`{}`)))
	require.NoError(t, store.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}
