package idp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestGoogleAuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "secret", "https://shop.example.com/auth/callback/google")

	authURL := p.AuthCodeURL("state-123", "verifier-abcdefghijklmnopqrstuvwxyz-0123456789_ABCDEF")

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()

	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "state-123", query.Get("state"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.Equal(t,
		oauth2.S256ChallengeFromVerifier("verifier-abcdefghijklmnopqrstuvwxyz-0123456789_ABCDEF"),
		query.Get("code_challenge"))
	assert.Equal(t, "https://shop.example.com/auth/callback/google", query.Get("redirect_uri"))
}

func TestGoogleUsesPKCE(t *testing.T) {
	assert.True(t, NewGoogleProvider("id", "secret", "uri").UsesPKCE())
}

func TestGoogleProfile(t *testing.T) {
	t.Run("normalizes flat picture field", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer provider-token", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "108264015",
				"email": "jane@example.com",
				"name": "Jane Doe",
				"picture": "https://lh3.googleusercontent.com/a/photo.jpg"
			}`))
		}))
		defer server.Close()

		p := NewGoogleProvider("id", "secret", "uri")
		p.userInfoURL = server.URL

		profile, err := p.Profile(context.Background(), &oauth2.Token{AccessToken: "provider-token"})
		require.NoError(t, err)

		assert.Equal(t, "108264015", profile.ID)
		assert.Equal(t, "jane@example.com", profile.Email)
		assert.Equal(t, "Jane Doe", profile.Name)
		assert.Equal(t, "https://lh3.googleusercontent.com/a/photo.jpg", profile.Picture)
		assert.Empty(t, profile.Avatar)
	})

	t.Run("non-200 response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		p := NewGoogleProvider("id", "secret", "uri")
		p.userInfoURL = server.URL

		_, err := p.Profile(context.Background(), &oauth2.Token{AccessToken: "bad"})
		assert.Error(t, err)
	})
}
