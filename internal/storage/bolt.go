package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// boltFilePerm is the permission mode for the attempt database file.
	boltFilePerm = fs.FileMode(0o600)

	// boltOpenTimeout is the maximum time to wait for the bolt file lock.
	boltOpenTimeout = 5 * time.Second
)

var attemptsBucket = []byte("login_attempts")

var _ AttemptStore = (*BoltStore)(nil)

// BoltStore persists login attempts in a bbolt file. It lets an
// initiated login survive a gateway restart, which matters when the
// provider consent screen keeps the user away for a while.
type BoltStore struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// NewBoltStore opens (creating if needed) the attempt database at path.
func NewBoltStore(path string, ttl time.Duration) (*BoltStore, error) {
	db, err := bolt.Open(path, boltFilePerm, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening attempt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(attemptsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating attempts bucket: %w", err)
	}

	return &BoltStore{db: db, ttl: ttl, now: time.Now}, nil
}

// StoreAttempt saves an attempt keyed by state.
func (s *BoltStore) StoreAttempt(_ context.Context, attempt *LoginAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshaling attempt: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(attemptsBucket).Put([]byte(attempt.State), data)
	})
}

// ConsumeAttempt retrieves and deletes the attempt for a state inside a
// single transaction, so two concurrent callbacks can never both win.
func (s *BoltStore) ConsumeAttempt(_ context.Context, state string) (*LoginAttempt, error) {
	var attempt *LoginAttempt

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(attemptsBucket)
		data := bucket.Get([]byte(state))
		if data == nil {
			return ErrAttemptNotFound
		}
		if err := bucket.Delete([]byte(state)); err != nil {
			return err
		}

		var a LoginAttempt
		if err := json.Unmarshal(data, &a); err != nil {
			return fmt.Errorf("unmarshaling attempt: %w", err)
		}
		if s.expired(&a) {
			return ErrAttemptNotFound
		}
		attempt = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// PurgeExpired removes attempts past the TTL.
func (s *BoltStore) PurgeExpired(_ context.Context) (int, error) {
	removed := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(attemptsBucket)
		cursor := bucket.Cursor()

		var stale [][]byte
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var a LoginAttempt
			if err := json.Unmarshal(v, &a); err != nil || s.expired(&a) {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) expired(attempt *LoginAttempt) bool {
	return s.ttl > 0 && s.now().Sub(attempt.CreatedAt) > s.ttl
}
