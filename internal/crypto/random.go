package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// verifierAlphabet is the RFC 7636 unreserved character set.
const verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// VerifierLength is the length of generated PKCE code verifiers.
// RFC 7636 allows 43-128; we use the maximum.
const VerifierLength = 128

// GenerateState creates a cryptographically secure random token.
// Returns a base64 URL-encoded string suitable for use as an OAuth
// state parameter.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateCodeVerifier creates a 128-character PKCE code verifier drawn
// from the unreserved alphabet.
func GenerateCodeVerifier() (string, error) {
	b := make([]byte, VerifierLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i := range b {
		b[i] = verifierAlphabet[int(b[i])%len(verifierAlphabet)]
	}
	return string(b), nil
}
