package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_State(t *testing.T) {
	material, err := Generate(MaterialState)
	require.NoError(t, err)

	assert.Equal(t, MaterialState, material.Kind)
	assert.Len(t, material.State, 43)
	assert.Empty(t, material.Verifier)
	assert.Empty(t, material.Challenge)
	assert.Empty(t, material.CodeVerifier())

	// Must decode as base64url without padding.
	_, err = base64.RawURLEncoding.DecodeString(material.State)
	assert.NoError(t, err)
}

func TestGenerate_PKCE(t *testing.T) {
	material, err := Generate(MaterialPKCE)
	require.NoError(t, err)

	assert.Equal(t, MaterialPKCE, material.Kind)
	assert.Empty(t, material.State)
	assert.Len(t, material.Verifier, 43)
	assert.Equal(t, material.Verifier, material.CodeVerifier())

	hash := sha256.Sum256([]byte(material.Verifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), material.Challenge)
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		material, err := Generate(MaterialState)
		require.NoError(t, err)
		assert.False(t, seen[material.State], "state value repeated")
		seen[material.State] = true
	}
}

func TestGenerate_UnknownKind(t *testing.T) {
	_, err := Generate(MaterialKind(99))
	assert.Error(t, err)
}

func TestMaterialKind_String(t *testing.T) {
	assert.Equal(t, "state", MaterialState.String())
	assert.Equal(t, "pkce", MaterialPKCE.String())
	assert.Equal(t, "unknown", MaterialKind(99).String())
}
