// Package session tracks signed-in users server-side, keyed by their
// session token. Each browser session has its own record, so concurrent
// logins never observe each other's credentials. The store also carries
// a hydration flag so callers can tell "not signed in" apart from "not
// loaded yet" and hold off auth redirects during startup.
package session

import (
	"sync"
	"time"

	"github.com/avelinek/storegate/internal/backend"
)

type record struct {
	user      *backend.User
	expiresAt time.Time
}

// Store is the per-token session registry. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]record
	ttl      time.Duration
	hydrated bool
	now      func() time.Time
}

// NewStore creates an empty, un-hydrated session store. Records expire
// after ttl, matching the session cookie's lifetime.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]record),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login records a user under their session token.
func (s *Store) Login(user *backend.User, token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = record{
		user:      user,
		expiresAt: s.now().Add(s.ttl),
	}
}

// Logout drops the record for a token. Unknown tokens are a no-op so
// the guard can revoke unconditionally.
func (s *Store) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Lookup returns the user signed in under a token. Expired records are
// evicted on access.
func (s *Store) Lookup(token string) (*backend.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if !rec.expiresAt.After(s.now()) {
		delete(s.sessions, token)
		return nil, false
	}
	return rec.user, true
}

// Hydrate marks the startup load complete. Until then session lookups
// answer "still loading" rather than "signed out", so clients do not
// redirect on a session that merely has not been restored yet.
func (s *Store) Hydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrated = true
}

// HydrationComplete reports whether startup loading has finished.
func (s *Store) HydrationComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}
