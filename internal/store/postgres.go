package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/algae-foundation/teacher-analytics/internal/db"
	"github.com/algae-foundation/teacher-analytics/internal/model"
)

// PostgresStore implements Store against a single wide teacher_data table.
type PostgresStore struct {
	pool      db.Pool
	batchSize int
	closeFn   func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool. batchSize
// bounds each insert batch; each batch is durable once acknowledged.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig, batchSize int) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, batchSize: batchSize, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool (tests use pgxmock here).
func NewPostgresWithPool(pool db.Pool, batchSize int) *PostgresStore {
	return &PostgresStore{pool: pool, batchSize: batchSize, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS teacher_data (
	id          BIGSERIAL PRIMARY KEY,
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
	title_1 BOOLEAN,
	public_private TEXT,
	students_receiving_free_reduced_lunch INTEGER,
	ell_students_in_class BOOLEAN,
	returning_teacher     BOOLEAN,
	total_students        INTEGER,
	semester  TEXT,
	latitude  DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	geocoded_address TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_teacher_data_state ON teacher_data(state);
CREATE INDEX IF NOT EXISTS idx_teacher_data_year ON teacher_data(year);
CREATE INDEX IF NOT EXISTS idx_teacher_data_semester ON teacher_data(semester);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// insertColumns is the relational column order used for batch inserts.
var insertColumns = []string{
	"year", "first_name", "last_name", "school_name", "school_district",
	"school_address", "city", "state", "zip", "county", "email",
	"title_1", "public_private", "students_receiving_free_reduced_lunch",
	"ell_students_in_class", "returning_teacher", "total_students",
	"semester", "latitude", "longitude", "geocoded_address",
}

const selectAll = `SELECT id, year, first_name, last_name, school_name, school_district,
	school_address, city, state, zip, county, email,
	title_1, public_private, students_receiving_free_reduced_lunch,
	ell_students_in_class, returning_teacher, total_students,
	semester, latitude, longitude, geocoded_address
	FROM teacher_data ORDER BY id`

// LoadAll performs a full table scan in insertion order. Acceptable only
// because the dataset stays in the thousands-of-rows range.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]model.TeacherRecord, error) {
	rows, err := s.pool.Query(ctx, selectAll)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load all")
	}
	defer rows.Close()

	var records []model.TeacherRecord
	for rows.Next() {
		var (
			rec       model.TeacherRecord
			title1    *bool
			ell       *bool
			returning *bool
			students  *int
			geocoded  *string
		)
		err := rows.Scan(&rec.ID, &rec.Year, &rec.FirstName, &rec.LastName,
			&rec.SchoolName, &rec.SchoolDistrict, &rec.SchoolAddress,
			&rec.City, &rec.State, &rec.Zip, &rec.County, &rec.Email,
			&title1, (*string)(&rec.SchoolType), &rec.FreeLunchPct,
			&ell, &returning, &students, &rec.Semester,
			&rec.Latitude, &rec.Longitude, &geocoded)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		rec.Title1 = flagFromBool(title1)
		rec.ELLStudents = flagFromBool(ell)
		rec.Returning = flagFromBool(returning)
		if students != nil {
			rec.TotalStudents = *students
		}
		if geocoded != nil {
			rec.GeocodedAddress = *geocoded
		}
		if rec.SchoolType == "" {
			rec.SchoolType = model.SchoolUnknown
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: load all iterate")
}

// Append inserts records in bounded-size batches.
func (s *PostgresStore) Append(ctx context.Context, records []model.TeacherRecord) error {
	rows := make([][]any, len(records))
	for i := range records {
		rows[i] = insertValues(&records[i])
	}
	_, err := db.CopyFromChunked(ctx, s.pool, "teacher_data", insertColumns, rows, s.batchSize)
	return err
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM teacher_data`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count")
	}
	return n, nil
}

// UpdateCoordinates writes geocoding results onto an existing row.
func (s *PostgresStore) UpdateCoordinates(ctx context.Context, id int64, lat, lon float64, display string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE teacher_data SET latitude = $1, longitude = $2, geocoded_address = $3 WHERE id = $4`,
		lat, lon, display, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update coordinates %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: record not found: %d", id)
	}
	return nil
}

// insertValues maps a record to insertColumns order. Unknowns become NULL so
// they stay distinguishable from explicit answers.
func insertValues(r *model.TeacherRecord) []any {
	return []any{
		r.Year, r.FirstName, r.LastName, r.SchoolName, r.SchoolDistrict,
		r.SchoolAddress, r.City, r.State, r.Zip, r.County, r.Email,
		flagToBool(r.Title1), string(r.SchoolType), r.FreeLunchPct,
		flagToBool(r.ELLStudents), flagToBool(r.Returning), r.TotalStudents,
		r.Semester, r.Latitude, r.Longitude, nilIfEmpty(r.GeocodedAddress),
	}
}

func flagToBool(f model.Flag) *bool {
	switch f {
	case model.FlagYes:
		b := true
		return &b
	case model.FlagNo:
		b := false
		return &b
	default:
		return nil
	}
}

func flagFromBool(b *bool) model.Flag {
	switch {
	case b == nil:
		return model.FlagUnknown
	case *b:
		return model.FlagYes
	default:
		return model.FlagNo
	}
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
