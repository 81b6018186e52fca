// Package ingest turns uploaded roster spreadsheets into persisted,
// geocoded dataset records.
package ingest

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/algae-foundation/teacher-analytics/internal/fetcher"
	"github.com/algae-foundation/teacher-analytics/internal/model"
	"github.com/algae-foundation/teacher-analytics/internal/monitoring"
	"github.com/algae-foundation/teacher-analytics/internal/normalize"
	"github.com/algae-foundation/teacher-analytics/internal/store"
	"github.com/algae-foundation/teacher-analytics/pkg/geocode"
)

// Result summarizes one completed roster upload.
type Result struct {
	// Added is how many rows from this upload were appended.
	Added int `json:"added_count"`
	// Geocoded is how many of the added rows carry coordinates, whether
	// looked up during this upload or present in the file already.
	Geocoded int `json:"geocoded_count"`
	// Total is the dataset size after the upload, or -1 when the size
	// could not be read back.
	Total int `json:"total_count"`
}

// Progress is called after each processed row.
type Progress func(done, total, geocoded int)

// Pipeline ingests rosters into a store, geocoding each new row that does
// not already carry coordinates.
type Pipeline struct {
	store    store.Store
	geocoder geocode.Client
	country  string
}

// New creates a Pipeline. country is passed through to every geocoding
// lookup; blank means the geocoder's default.
func New(st store.Store, gc geocode.Client, country string) *Pipeline {
	return &Pipeline{store: st, geocoder: gc, country: country}
}

// Ingest reads one roster file, normalizes and geocodes its rows, and
// appends them to the dataset. The format is decided by the filename
// extension before anything is read; an unsupported extension aborts with
// UnsupportedFormatError and no side effects. Geocoding is strictly
// sequential, one lookup at a time.
func (p *Pipeline) Ingest(ctx context.Context, filename string, r io.Reader, progress Progress) (*Result, error) {
	start := time.Now()
	logger := zap.L().With(
		zap.String("batch_id", uuid.NewString()),
		zap.String("file", filepath.Base(filename)),
	)

	header, rows, err := p.read(filename, r)
	if err != nil {
		monitoring.ObserveIngestBatch(monitoring.ResultError, time.Since(start))
		return nil, err
	}

	if len(rows) > 0 && len(normalize.RowMap(header, header)) == 0 {
		monitoring.ObserveIngestBatch(monitoring.ResultError, time.Since(start))
		return nil, &SchemaMismatchError{Header: header}
	}

	logger.Info("roster parsed", zap.Int("rows", len(rows)))

	records := make([]model.TeacherRecord, 0, len(rows))
	geocoded := 0
	for i, row := range rows {
		rec := normalize.Normalize(normalize.RowMap(header, row))

		if rec.HasCoordinates() {
			// Rows uploaded with coordinates count as already geocoded.
			geocoded++
		} else {
			ok, err := p.geocodeRecord(ctx, logger, &rec)
			if err != nil {
				monitoring.ObserveIngestBatch(monitoring.ResultError, time.Since(start))
				return nil, err
			}
			if ok {
				geocoded++
			}
		}

		records = append(records, rec)
		if progress != nil {
			progress(i+1, len(rows), geocoded)
		}
	}

	if err := p.store.Append(ctx, records); err != nil {
		monitoring.ObserveIngestBatch(monitoring.ResultError, time.Since(start))
		return nil, &PersistenceError{Err: err}
	}

	total, err := p.store.Count(ctx)
	if err != nil {
		logger.Warn("dataset count unavailable", zap.Error(err))
		total = -1
	} else {
		monitoring.SetDatasetRows(total)
	}

	monitoring.AddRowsIngested(len(records))
	monitoring.ObserveIngestBatch(monitoring.ResultSuccess, time.Since(start))
	logger.Info("roster ingested",
		zap.Int("added", len(records)),
		zap.Int("geocoded", geocoded),
		zap.Int("total", total),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{Added: len(records), Geocoded: geocoded, Total: total}, nil
}

// read parses the upload according to its filename extension.
func (p *Pipeline) read(filename string, r io.Reader) ([]string, [][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		header, rows, err := fetcher.ReadCSV(r, fetcher.CSVOptions{TrimSpace: true})
		if err != nil {
			return nil, nil, eris.Wrapf(err, "ingest: read %s", filepath.Base(filename))
		}
		return header, rows, nil
	case ".xlsx":
		header, rows, err := fetcher.ReadXLSX(r, fetcher.XLSXOptions{})
		if err != nil {
			return nil, nil, eris.Wrapf(err, "ingest: read %s", filepath.Base(filename))
		}
		return header, rows, nil
	default:
		return nil, nil, &UnsupportedFormatError{Ext: ext}
	}
}

// geocodeRecord performs one lookup and writes any match onto rec. A
// confirmed no-match and a transport failure both leave the record without
// coordinates; only context cancellation stops the batch. Returns whether
// the record gained coordinates.
func (p *Pipeline) geocodeRecord(ctx context.Context, logger *zap.Logger, rec *model.TeacherRecord) (bool, error) {
	addr := geocodeInput(rec, p.country)

	lookupStart := time.Now()
	res, err := p.geocoder.Geocode(ctx, addr)
	if err != nil {
		if ctx.Err() != nil {
			return false, eris.Wrap(ctx.Err(), "ingest: geocode batch canceled")
		}
		monitoring.ObserveGeocode(monitoring.ResultError, time.Since(lookupStart))
		logger.Warn("geocode lookup failed",
			zap.String("school", rec.SchoolName),
			zap.Error(err),
		)
		return false, nil
	}

	if !res.Matched {
		monitoring.ObserveGeocode(monitoring.ResultNotFound, time.Since(lookupStart))
		return false, nil
	}

	monitoring.ObserveGeocode(monitoring.ResultMatched, time.Since(lookupStart))
	rec.SetCoordinates(res.Latitude, res.Longitude, res.DisplayName)
	return true, nil
}

// geocodeInput builds a lookup from a record's address fields. The Unknown
// placeholder is a dataset convention, not an address component, so it maps
// back to blank here.
func geocodeInput(rec *model.TeacherRecord, country string) geocode.AddressInput {
	return geocode.AddressInput{
		Street:  blankIfUnknown(rec.SchoolAddress),
		City:    blankIfUnknown(rec.City),
		State:   blankIfUnknown(rec.State),
		ZipCode: blankIfUnknown(rec.Zip),
		Country: country,
	}
}

func blankIfUnknown(s string) string {
	if s == normalize.UnknownText {
		return ""
	}
	return s
}
