// Package flow orchestrates the OAuth login lifecycle: initiation
// (verifier/state generation and the redirect to the provider) and
// completion (code exchange, profile fetch, backend user sync). Every
// attempt is single-shot; nothing here retries, and a failed exchange
// leaves no session state behind.
package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avelinek/storegate/internal/backend"
	"github.com/avelinek/storegate/internal/crypto"
	"github.com/avelinek/storegate/internal/idp"
	"github.com/avelinek/storegate/internal/log"
	"github.com/avelinek/storegate/internal/storage"
)

// ErrUnsupportedProvider is returned for providers the gateway is not
// configured for. Surfaces as a 400 rather than a 500.
var ErrUnsupportedProvider = errors.New("unsupported oauth provider")

// ErrMissingCode is returned when a completion request carries no
// authorization code.
var ErrMissingCode = errors.New("missing authorization code")

// ErrStaleState is returned when the callback state does not match a
// stored attempt: forged, expired, or already consumed.
var ErrStaleState = errors.New("unknown or already-used oauth state")

// Result is the outcome of a completed login: the synced storefront user
// and the backend-minted session token.
type Result struct {
	User  *backend.User
	Token string
}

// Service drives login attempts across the configured providers.
type Service struct {
	providers map[string]idp.Provider
	store     storage.AttemptStore
	backend   *backend.Client
	now       func() time.Time
}

// NewService creates a flow service.
func NewService(providers map[string]idp.Provider, store storage.AttemptStore, backendClient *backend.Client) *Service {
	return &Service{
		providers: providers,
		store:     store,
		backend:   backendClient,
		now:       time.Now,
	}
}

// Provider returns the configured provider for a name.
func (s *Service) Provider(name string) (idp.Provider, bool) {
	p, ok := s.providers[name]
	return p, ok
}

// Initiate starts a login attempt: generates the state parameter (and,
// for PKCE providers, a 128-character code verifier), stashes the
// attempt keyed by state, and returns the provider authorization URL to
// redirect the browser to. The verifier stored here must be the one
// presented at exchange or the provider rejects the code.
func (s *Service) Initiate(ctx context.Context, providerName, returnURL string) (string, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerName)
	}

	state, err := crypto.GenerateState()
	if err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}

	verifier := ""
	if provider.UsesPKCE() {
		verifier, err = crypto.GenerateCodeVerifier()
		if err != nil {
			return "", fmt.Errorf("generating code verifier: %w", err)
		}
	}

	attempt := &storage.LoginAttempt{
		Provider:     providerName,
		State:        state,
		CodeVerifier: verifier,
		ReturnURL:    returnURL,
		CreatedAt:    s.now(),
	}
	if err := s.store.StoreAttempt(ctx, attempt); err != nil {
		return "", fmt.Errorf("storing login attempt: %w", err)
	}

	log.LogDebugWithFields("flow", "Login attempt initiated", map[string]any{
		"provider": providerName,
		"pkce":     provider.UsesPKCE(),
	})

	return provider.AuthCodeURL(state, verifier), nil
}

// Complete finishes a browser-driven login: consumes the stashed attempt
// for the state (exactly once), then exchanges the code using the stored
// verifier. Returns the attempt's return URL alongside the result so the
// caller can send the user back where they started.
func (s *Service) Complete(ctx context.Context, providerName, code, state string) (*Result, string, error) {
	if _, ok := s.providers[providerName]; !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerName)
	}
	if code == "" {
		return nil, "", ErrMissingCode
	}

	attempt, err := s.store.ConsumeAttempt(ctx, state)
	if err != nil {
		if errors.Is(err, storage.ErrAttemptNotFound) {
			return nil, "", ErrStaleState
		}
		return nil, "", fmt.Errorf("consuming login attempt: %w", err)
	}
	if attempt.Provider != providerName {
		return nil, "", ErrStaleState
	}

	result, err := s.Exchange(ctx, providerName, code, attempt.CodeVerifier)
	if err != nil {
		return nil, "", err
	}
	return result, attempt.ReturnURL, nil
}

// Exchange redeems an authorization code: provider token exchange,
// profile fetch and normalization, then backend user sync. The verifier
// comes either from a consumed attempt (browser flow) or directly from
// the client (API flow). A code redeems once upstream; a second exchange
// with the same code fails at the provider and is not retried.
func (s *Service) Exchange(ctx context.Context, providerName, code, verifier string) (*Result, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerName)
	}
	if code == "" {
		return nil, ErrMissingCode
	}

	providerToken, err := provider.Exchange(ctx, code, verifier)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code with %s: %w", providerName, err)
	}

	profile, err := provider.Profile(ctx, providerToken)
	if err != nil {
		return nil, fmt.Errorf("fetching %s profile: %w", providerName, err)
	}

	user, sessionToken, err := s.backend.SyncOAuthUser(ctx, providerName, profile, providerToken.AccessToken)
	if err != nil {
		return nil, err
	}

	log.LogInfoWithFields("flow", "Login completed", map[string]any{
		"provider": providerName,
		"user":     user.Email,
	})

	return &Result{User: user, Token: sessionToken}, nil
}
