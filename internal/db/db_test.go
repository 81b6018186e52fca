package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := CopyFrom(context.Background(), mock, "teacher_data", []string{"a"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Rows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"teacher_data"}, []string{"a", "b"}).WillReturnResult(2)

	n, err := CopyFrom(context.Background(), mock, "teacher_data", []string{"a", "b"}, [][]any{
		{"1", "2"},
		{"3", "4"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromChunked_SplitsBatches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// 5 rows with chunk size 2 -> three COPY calls of 2, 2, 1.
	mock.ExpectCopyFrom(pgx.Identifier{"teacher_data"}, []string{"a"}).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"teacher_data"}, []string{"a"}).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"teacher_data"}, []string{"a"}).WillReturnResult(1)

	rows := [][]any{{"1"}, {"2"}, {"3"}, {"4"}, {"5"}}
	n, err := CopyFromChunked(context.Background(), mock, "teacher_data", []string{"a"}, rows, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
