package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algae-foundation/teacher-analytics/internal/model"
)

type countingStore struct {
	records []model.TeacherRecord
	loads   int
}

func (s *countingStore) LoadAll(ctx context.Context) ([]model.TeacherRecord, error) {
	s.loads++
	return s.records, nil
}

func (s *countingStore) Append(ctx context.Context, records []model.TeacherRecord) error {
	s.records = append(s.records, records...)
	return nil
}

func (s *countingStore) Count(ctx context.Context) (int, error) { return len(s.records), nil }
func (s *countingStore) Migrate(ctx context.Context) error      { return nil }
func (s *countingStore) Close() error                           { return nil }

func TestCache_LoadsOnce(t *testing.T) {
	ctx := context.Background()
	st := &countingStore{records: []model.TeacherRecord{{FirstName: "Ada"}}}
	c := NewCache(st)

	for range 3 {
		records, err := c.Records(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	}
	assert.Equal(t, 1, st.loads)
}

func TestCache_InvalidateReloads(t *testing.T) {
	ctx := context.Background()
	st := &countingStore{}
	c := NewCache(st)

	records, err := c.Records(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, st.Append(ctx, []model.TeacherRecord{{FirstName: "Ada"}}))

	// Stale until invalidated.
	records, err = c.Records(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	c.Invalidate()
	records, err = c.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, st.loads)
}
