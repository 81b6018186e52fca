// Package db provides shared database helpers for the relational backends.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the stores use. pgxmock implements the
// same surface, so store tests run against a mock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

// CopyFrom bulk-inserts rows into a table using the PostgreSQL COPY protocol.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}

// CopyFromChunked bulk-inserts rows in fixed-size chunks, so each chunk is
// durable once acknowledged. Returns the number of rows written; on error the
// count covers only fully-written chunks (callers must treat a failure as an
// unknown completion state).
func CopyFromChunked(ctx context.Context, pool Pool, table string, columns []string, rows [][]any, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = 100
	}

	var written int64
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := CopyFrom(ctx, pool, table, columns, rows[start:end])
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}
