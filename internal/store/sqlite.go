package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/algae-foundation/teacher-analytics/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for single-box
// deployments that want the relational contract without a hosted database.
type SQLiteStore struct {
	db        *sql.DB
	batchSize int
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, batchSize int) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SQLiteStore{db: sqlDB, batchSize: batchSize}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS teacher_data (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	year        TEXT,
	first_name  TEXT,
	last_name   TEXT,
	school_name TEXT,
	school_district TEXT,
	school_address  TEXT,
	city   TEXT,
	state  TEXT,
	zip    TEXT,
	county TEXT,
	email  TEXT,
	title_1 INTEGER,
	public_private TEXT,
	students_receiving_free_reduced_lunch INTEGER,
	ell_students_in_class INTEGER,
	returning_teacher     INTEGER,
	total_students        INTEGER,
	semester  TEXT,
	latitude  REAL,
	longitude REAL,
	geocoded_address TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_teacher_data_state ON teacher_data(state);
CREATE INDEX IF NOT EXISTS idx_teacher_data_year ON teacher_data(year);
CREATE INDEX IF NOT EXISTS idx_teacher_data_semester ON teacher_data(semester);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadAll(ctx context.Context) ([]model.TeacherRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, `+strings.Join(insertColumns, ", ")+` FROM teacher_data ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load all")
	}
	defer rows.Close() //nolint:errcheck

	var records []model.TeacherRecord
	for rows.Next() {
		var (
			rec       model.TeacherRecord
			title1    sql.NullInt64
			ell       sql.NullInt64
			returning sql.NullInt64
			lunchPct  sql.NullInt64
			students  sql.NullInt64
			schoolTyp sql.NullString
			lat       sql.NullFloat64
			lon       sql.NullFloat64
			geocoded  sql.NullString
		)
		err := rows.Scan(&rec.ID, &rec.Year, &rec.FirstName, &rec.LastName,
			&rec.SchoolName, &rec.SchoolDistrict, &rec.SchoolAddress,
			&rec.City, &rec.State, &rec.Zip, &rec.County, &rec.Email,
			&title1, &schoolTyp, &lunchPct,
			&ell, &returning, &students, &rec.Semester,
			&lat, &lon, &geocoded)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		rec.Title1 = flagFromNull(title1)
		rec.ELLStudents = flagFromNull(ell)
		rec.Returning = flagFromNull(returning)
		if lunchPct.Valid {
			pct := int(lunchPct.Int64)
			rec.FreeLunchPct = &pct
		}
		if students.Valid {
			rec.TotalStudents = int(students.Int64)
		}
		rec.SchoolType = model.SchoolUnknown
		if schoolTyp.Valid && schoolTyp.String != "" {
			rec.SchoolType = model.SchoolType(schoolTyp.String)
		}
		if lat.Valid && lon.Valid {
			rec.SetCoordinates(lat.Float64, lon.Float64, geocoded.String)
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: load all iterate")
}

// Append inserts records in bounded-size batches, one transaction per batch.
func (s *SQLiteStore) Append(ctx context.Context, records []model.TeacherRecord) error {
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(insertColumns)), ", ") + ")"
	insertSQL := `INSERT INTO teacher_data (` + strings.Join(insertColumns, ", ") + `) VALUES ` + placeholders

	for start := 0; start < len(records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return eris.Wrap(err, "sqlite: begin batch")
		}
		for i := start; i < end; i++ {
			if _, err := tx.ExecContext(ctx, insertSQL, sqliteInsertValues(&records[i])...); err != nil {
				tx.Rollback() //nolint:errcheck
				return eris.Wrap(err, "sqlite: insert record")
			}
		}
		if err := tx.Commit(); err != nil {
			return eris.Wrap(err, "sqlite: commit batch")
		}
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM teacher_data`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count")
	}
	return n, nil
}

func flagFromNull(n sql.NullInt64) model.Flag {
	switch {
	case !n.Valid:
		return model.FlagUnknown
	case n.Int64 != 0:
		return model.FlagYes
	default:
		return model.FlagNo
	}
}

// flagToInt stores flags as nullable integers (SQLite has no boolean type).
func flagToInt(f model.Flag) any {
	switch f {
	case model.FlagYes:
		return 1
	case model.FlagNo:
		return 0
	default:
		return nil
	}
}

// sqliteInsertValues mirrors insertValues with integer-encoded flags.
func sqliteInsertValues(r *model.TeacherRecord) []any {
	vals := insertValues(r)
	vals[11] = flagToInt(r.Title1)      // title_1
	vals[14] = flagToInt(r.ELLStudents) // ell_students_in_class
	vals[15] = flagToInt(r.Returning)   // returning_teacher
	return vals
}

// UpdateCoordinates writes geocoding results onto an existing row.
func (s *SQLiteStore) UpdateCoordinates(ctx context.Context, id int64, lat, lon float64, display string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE teacher_data SET latitude = ?, longitude = ?, geocoded_address = ? WHERE id = ?`,
		lat, lon, display, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update coordinates %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: record not found: %d", id)
	}
	return nil
}
