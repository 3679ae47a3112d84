package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// materialBytes is the number of random bytes behind every piece of
// correlation material. 32 bytes provides 256 bits of entropy, which is
// recommended for security; base64url-encoded this is 43 characters.
const materialBytes = 32

// MaterialKind selects which correlation material a login attempt uses.
// The kind is fixed by the active callback transport: the loopback listener
// uses an anti-CSRF state value, the deep-link transport uses PKCE.
type MaterialKind int

const (
	// MaterialState is an opaque anti-CSRF state parameter.
	MaterialState MaterialKind = iota

	// MaterialPKCE is a PKCE verifier/challenge pair.
	MaterialPKCE
)

// String returns the string representation of the material kind.
func (k MaterialKind) String() string {
	switch k {
	case MaterialState:
		return "state"
	case MaterialPKCE:
		return "pkce"
	default:
		return "unknown"
	}
}

// Material is single-use correlation material for one login attempt.
// Exactly one of State or Verifier/Challenge is populated, depending on Kind.
type Material struct {
	Kind MaterialKind

	// State is the opaque anti-CSRF value (MaterialState only).
	State string

	// Verifier is the PKCE code verifier, kept secret and sent only to the
	// token exchange endpoint (MaterialPKCE only).
	Verifier string

	// Challenge is the S256 hash of the verifier, base64url-encoded
	// (MaterialPKCE only).
	Challenge string
}

// CodeVerifier returns the value to send as codeVerifier in the token
// exchange request: the raw verifier for PKCE, the empty string for the
// state-based flow. The two flows are never conflated.
func (m *Material) CodeVerifier() string {
	if m.Kind == MaterialPKCE {
		return m.Verifier
	}
	return ""
}

// Generate produces fresh correlation material of the given kind using a
// cryptographically secure random source. It has no side effects; storing
// the material in the active session slot is the caller's responsibility.
func Generate(kind MaterialKind) (*Material, error) {
	raw := make([]byte, materialBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate random material: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)

	switch kind {
	case MaterialState:
		return &Material{Kind: MaterialState, State: encoded}, nil
	case MaterialPKCE:
		hash := sha256.Sum256([]byte(encoded))
		return &Material{
			Kind:      MaterialPKCE,
			Verifier:  encoded,
			Challenge: base64.RawURLEncoding.EncodeToString(hash[:]),
		}, nil
	default:
		return nil, fmt.Errorf("unknown material kind: %d", kind)
	}
}
