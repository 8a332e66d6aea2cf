package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestGenerateCodeVerifier(t *testing.T) {
	t.Run("length and alphabet", func(t *testing.T) {
		verifier, err := GenerateCodeVerifier()
		require.NoError(t, err)
		assert.Len(t, verifier, VerifierLength)
		for _, c := range verifier {
			assert.Contains(t, verifierAlphabet, string(c))
		}
	})

	t.Run("unique per call", func(t *testing.T) {
		a, err := GenerateCodeVerifier()
		require.NoError(t, err)
		b, err := GenerateCodeVerifier()
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("challenge is unpadded base64url of SHA-256", func(t *testing.T) {
		verifier, err := GenerateCodeVerifier()
		require.NoError(t, err)

		h := sha256.Sum256([]byte(verifier))
		expected := base64.RawURLEncoding.EncodeToString(h[:])

		challenge := oauth2.S256ChallengeFromVerifier(verifier)
		assert.Equal(t, expected, challenge)
		assert.NotContains(t, challenge, "+")
		assert.NotContains(t, challenge, "/")
		assert.NotContains(t, challenge, "=")
	})

	t.Run("RFC 7636 Appendix B test vector", func(t *testing.T) {
		verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
		assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
			oauth2.S256ChallengeFromVerifier(verifier))
	})
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	require.NoError(t, err)
	assert.NotEmpty(t, state)

	// URL-safe: states travel as query parameters
	assert.NotContains(t, state, "+")
	assert.NotContains(t, state, "/")
	assert.False(t, strings.Contains(state, "="))

	other, err := GenerateState()
	require.NoError(t, err)
	assert.NotEqual(t, state, other)
}
