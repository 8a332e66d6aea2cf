package storage

import (
	"context"
	"sync"
	"time"
)

var _ AttemptStore = (*MemoryStore)(nil)

// MemoryStore keeps login attempts in process memory. Attempts are
// transient by design, so losing them on restart only forces the user to
// restart the login flow.
type MemoryStore struct {
	mu       sync.Mutex
	attempts map[string]*LoginAttempt
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an in-memory attempt store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		attempts: make(map[string]*LoginAttempt),
		ttl:      ttl,
		now:      time.Now,
	}
}

// StoreAttempt saves an attempt keyed by state.
func (s *MemoryStore) StoreAttempt(_ context.Context, attempt *LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *attempt
	s.attempts[attempt.State] = &copied
	return nil
}

// ConsumeAttempt retrieves and deletes the attempt for a state.
func (s *MemoryStore) ConsumeAttempt(_ context.Context, state string) (*LoginAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[state]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	delete(s.attempts, state)

	if s.expired(attempt) {
		return nil, ErrAttemptNotFound
	}
	copied := *attempt
	return &copied, nil
}

// PurgeExpired removes attempts past the TTL.
func (s *MemoryStore) PurgeExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for state, attempt := range s.attempts {
		if s.expired(attempt) {
			delete(s.attempts, state)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) expired(attempt *LoginAttempt) bool {
	return s.ttl > 0 && s.now().Sub(attempt.CreatedAt) > s.ttl
}
