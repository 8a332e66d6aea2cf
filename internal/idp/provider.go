// Package idp drives the OAuth2 authorization-code flow against external
// identity providers. Each provider is a strategy value carrying its own
// endpoints, grant parameters, PKCE participation, and profile
// normalization, so adding a provider never grows a conditional chain
// elsewhere in the gateway.
package idp

import (
	"context"

	"golang.org/x/oauth2"
)

// Profile is the normalized user profile shared by all providers.
// Google populates Picture, Facebook populates Avatar; the backend's
// user-sync endpoint accepts either.
type Profile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
}

// Provider abstracts identity provider operations.
type Provider interface {
	// Type returns the provider type identifier (e.g., "google", "facebook").
	Type() string

	// UsesPKCE reports whether this provider's flow carries a PKCE
	// verifier/challenge pair.
	UsesPKCE() bool

	// AuthCodeURL generates the authorization URL for the OAuth flow.
	// verifier is ignored by providers that do not use PKCE.
	AuthCodeURL(state, verifier string) string

	// Exchange exchanges an authorization code for tokens. verifier must
	// be the one generated at initiation for PKCE providers; the provider
	// rejects the exchange otherwise.
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)

	// Profile fetches the user's profile and normalizes it.
	Profile(ctx context.Context, token *oauth2.Token) (*Profile, error)
}
