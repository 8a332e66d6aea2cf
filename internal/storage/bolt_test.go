package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "attempts.db"), 10*time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreConsumeOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestBoltStore(t)

	attempt := &LoginAttempt{
		Provider:     "google",
		State:        "state-1",
		CodeVerifier: "verifier",
		ReturnURL:    "/checkout",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.StoreAttempt(ctx, attempt))

	got, err := store.ConsumeAttempt(ctx, "state-1")
	require.NoError(t, err)
	assert.Equal(t, "google", got.Provider)
	assert.Equal(t, "verifier", got.CodeVerifier)
	assert.Equal(t, "/checkout", got.ReturnURL)

	_, err = store.ConsumeAttempt(ctx, "state-1")
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestBoltStoreUnknownState(t *testing.T) {
	store := newTestBoltStore(t)

	_, err := store.ConsumeAttempt(context.Background(), "never-stored")
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestBoltStoreTTL(t *testing.T) {
	ctx := context.Background()
	store := newTestBoltStore(t)

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.StoreAttempt(ctx, &LoginAttempt{
		State:     "stale",
		CreatedAt: now.Add(-time.Hour),
	}))
	require.NoError(t, store.StoreAttempt(ctx, &LoginAttempt{
		State:     "fresh",
		CreatedAt: now,
	}))

	_, err := store.ConsumeAttempt(ctx, "stale")
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed) // stale was consumed above

	_, err = store.ConsumeAttempt(ctx, "fresh")
	assert.NoError(t, err)
}

func TestBoltStorePurge(t *testing.T) {
	ctx := context.Background()
	store := newTestBoltStore(t)

	now := time.Now()
	store.now = func() time.Time { return now }

	for _, state := range []string{"a", "b"} {
		require.NoError(t, store.StoreAttempt(ctx, &LoginAttempt{
			State:     state,
			CreatedAt: now.Add(-time.Hour),
		}))
	}
	require.NoError(t, store.StoreAttempt(ctx, &LoginAttempt{
		State:     "fresh",
		CreatedAt: now,
	}))

	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = store.ConsumeAttempt(ctx, "fresh")
	assert.NoError(t, err)
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "attempts.db")

	store, err := NewBoltStore(path, 10*time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.StoreAttempt(ctx, &LoginAttempt{
		State:        "state-1",
		CodeVerifier: "verifier",
		CreatedAt:    time.Now(),
	}))
	require.NoError(t, store.Close())

	reopened, err := NewBoltStore(path, 10*time.Minute)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.ConsumeAttempt(ctx, "state-1")
	require.NoError(t, err)
	assert.Equal(t, "verifier", got.CodeVerifier)
}
