package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/algae-foundation/teacher-analytics/internal/fetcher"
	"github.com/algae-foundation/teacher-analytics/internal/model"
	"github.com/algae-foundation/teacher-analytics/internal/normalize"
)

// CSVStore keeps the whole dataset in a single delimited file. Append is
// read-everything, concatenate, write-everything; cost is proportional to the
// dataset, which stays in the thousands of rows for this deployment.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSV creates a flat-file store at path. The file may not exist yet; a
// missing file reads as an empty dataset.
func NewCSV(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string {
	return s.path
}

func (s *CSVStore) LoadAll(ctx context.Context) ([]model.TeacherRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *CSVStore) loadLocked() ([]model.TeacherRecord, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "csvstore: open %s", s.path)
	}
	defer f.Close() //nolint:errcheck

	header, rows, err := fetcher.ReadCSV(f, fetcher.CSVOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "csvstore: parse %s", s.path)
	}

	records := make([]model.TeacherRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, normalize.Normalize(normalize.RowMap(header, row)))
	}
	return records, nil
}

func (s *CSVStore) Append(ctx context.Context, records []model.TeacherRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadLocked()
	if err != nil {
		return err
	}
	return s.writeLocked(append(existing, records...))
}

// ReplaceAll rewrites the whole dataset. Backfill checkpoints go through
// here.
func (s *CSVStore) ReplaceAll(ctx context.Context, records []model.TeacherRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(records)
}

// writeLocked writes via a temp file in the same directory and renames over
// the target, so a crash mid-write never corrupts the dataset.
func (s *CSVStore) writeLocked(records []model.TeacherRecord) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "csvstore: create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	w := csv.NewWriter(tmp)
	if err := w.Write(model.Columns()); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "csvstore: write header")
	}
	for i := range records {
		if err := w.Write(records[i].Row()); err != nil {
			tmp.Close() //nolint:errcheck
			return eris.Wrap(err, "csvstore: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "csvstore: flush")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "csvstore: close temp file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return eris.Wrapf(err, "csvstore: rename %s", s.path)
	}
	return nil
}

func (s *CSVStore) Count(ctx context.Context) (int, error) {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Migrate is a no-op: the file is created on first write.
func (s *CSVStore) Migrate(ctx context.Context) error {
	return nil
}

func (s *CSVStore) Close() error {
	return nil
}
