// Package store persists the teacher participation dataset. Three backends
// implement the same contract: a flat CSV file, Postgres, and SQLite.
package store

import (
	"context"

	"github.com/algae-foundation/teacher-analytics/internal/model"
)

// Store is the persistence contract for the dataset. The dataset is
// append-only: ingestion never updates or deletes rows, and re-uploading a
// roster appends its rows again.
type Store interface {
	// LoadAll returns every record in insertion order.
	LoadAll(ctx context.Context) ([]model.TeacherRecord, error)

	// Append adds records to the dataset without touching existing rows.
	Append(ctx context.Context, records []model.TeacherRecord) error

	// Count returns the dataset size.
	Count(ctx context.Context) (int, error)

	// Migrate creates the backing schema if needed.
	Migrate(ctx context.Context) error

	Close() error
}

// RowUpdater is implemented by relational backends that can write geocoding
// results onto an existing row by id. Used by the backfill operation.
type RowUpdater interface {
	UpdateCoordinates(ctx context.Context, id int64, lat, lon float64, display string) error
}

// Rewriter is implemented by backends whose only write primitive is
// rewriting the whole dataset (the flat-file backend). The backfill
// operation uses it for periodic checkpoint saves.
type Rewriter interface {
	ReplaceAll(ctx context.Context, records []model.TeacherRecord) error
}
