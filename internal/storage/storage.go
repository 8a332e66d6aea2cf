// Package storage persists in-flight login attempts between the redirect
// to the identity provider and the redirect back. An attempt is stored at
// initiation keyed by its state parameter and consumed exactly once at
// callback time; the PKCE verifier never travels through the browser.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptNotFound is returned when no attempt exists for a state,
// either because it was never stored, already consumed, or expired.
var ErrAttemptNotFound = errors.New("login attempt not found")

// LoginAttempt records one initiated authorization flow.
type LoginAttempt struct {
	Provider     string    `json:"provider"`
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier,omitempty"` // empty for non-PKCE providers
	ReturnURL    string    `json:"return_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AttemptStore stores login attempts with consume-once semantics.
type AttemptStore interface {
	// StoreAttempt saves an attempt keyed by its state parameter. A
	// second attempt with the same state overwrites the first.
	StoreAttempt(ctx context.Context, attempt *LoginAttempt) error

	// ConsumeAttempt retrieves and deletes the attempt for a state.
	// Returns ErrAttemptNotFound for unknown, already-consumed, or
	// expired states.
	ConsumeAttempt(ctx context.Context, state string) (*LoginAttempt, error)

	// PurgeExpired removes attempts older than the store's TTL and
	// returns how many were removed.
	PurgeExpired(ctx context.Context) (int, error)

	// Close releases any underlying resources.
	Close() error
}
