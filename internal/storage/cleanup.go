package storage

import (
	"context"
	"time"

	"github.com/avelinek/storegate/internal/log"
)

// Janitor periodically purges expired login attempts from a store.
type Janitor struct {
	store    AttemptStore
	interval time.Duration
}

// NewJanitor creates a janitor for the given store.
func NewJanitor(store AttemptStore, interval time.Duration) *Janitor {
	return &Janitor{store: store, interval: interval}
}

// Run purges on the configured interval until the context is canceled.
// A purge runs immediately on start.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.purge(ctx)

	for {
		select {
		case <-ticker.C:
			j.purge(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (j *Janitor) purge(ctx context.Context) {
	removed, err := j.store.PurgeExpired(ctx)
	if err != nil {
		log.LogErrorWithFields("storage", "Failed to purge expired login attempts", map[string]any{
			"error": err.Error(),
		})
		return
	}
	if removed > 0 {
		log.LogDebugWithFields("storage", "Purged expired login attempts", map[string]any{
			"removed": removed,
		})
	}
}
