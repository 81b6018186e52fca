package analytics

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/algae-foundation/teacher-analytics/internal/model"
	"github.com/algae-foundation/teacher-analytics/internal/store"
)

// Cache holds an in-memory snapshot of the dataset for the read side. The
// snapshot is loaded lazily and kept until Invalidate; writers call
// Invalidate after every successful ingest so the next read reloads.
type Cache struct {
	store store.Store

	mu      sync.RWMutex
	records []model.TeacherRecord
	loaded  bool
}

// NewCache creates a Cache over a store.
func NewCache(st store.Store) *Cache {
	return &Cache{store: st}
}

// Records returns the current snapshot, loading it from the store if
// needed. Callers must not mutate the returned slice.
func (c *Cache) Records(ctx context.Context) ([]model.TeacherRecord, error) {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		return c.records, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.records, nil
	}
	records, err := c.store.LoadAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "analytics: load snapshot")
	}
	c.records = records
	c.loaded = true
	return c.records, nil
}

// Invalidate drops the snapshot so the next read reloads from the store.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
	c.loaded = false
}
