package ingest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/algae-foundation/teacher-analytics/internal/model"
	"github.com/algae-foundation/teacher-analytics/pkg/geocode"
)

// memStore is an in-memory Store with flat-file write semantics.
type memStore struct {
	records      []model.TeacherRecord
	appendCalls  int
	replaceCalls int
	appendErr    error
}

func (s *memStore) LoadAll(ctx context.Context) ([]model.TeacherRecord, error) {
	out := make([]model.TeacherRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *memStore) Append(ctx context.Context, records []model.TeacherRecord) error {
	s.appendCalls++
	if s.appendErr != nil {
		return s.appendErr
	}
	s.records = append(s.records, records...)
	return nil
}

func (s *memStore) ReplaceAll(ctx context.Context, records []model.TeacherRecord) error {
	s.replaceCalls++
	s.records = append([]model.TeacherRecord(nil), records...)
	return nil
}

func (s *memStore) Count(ctx context.Context) (int, error) { return len(s.records), nil }
func (s *memStore) Migrate(ctx context.Context) error      { return nil }
func (s *memStore) Close() error                           { return nil }

type coordUpdate struct {
	id       int64
	lat, lon float64
}

// relStore mimics a relational backend: rows get ids and coordinate writes
// go through UpdateCoordinates.
type relStore struct {
	memStore
	updates []coordUpdate
}

func (s *relStore) UpdateCoordinates(ctx context.Context, id int64, lat, lon float64, display string) error {
	s.updates = append(s.updates, coordUpdate{id: id, lat: lat, lon: lon})
	return nil
}

// stubGeocoder scripts lookup outcomes and records every call.
type stubGeocoder struct {
	calls []geocode.AddressInput
	fn    func(addr geocode.AddressInput) (*geocode.Result, error)
}

func (s *stubGeocoder) Geocode(ctx context.Context, addr geocode.AddressInput) (*geocode.Result, error) {
	s.calls = append(s.calls, addr)
	if s.fn != nil {
		return s.fn(addr)
	}
	return &geocode.Result{Matched: false}, nil
}

func matchByCity(known map[string][2]float64) func(geocode.AddressInput) (*geocode.Result, error) {
	return func(addr geocode.AddressInput) (*geocode.Result, error) {
		coords, ok := known[addr.City]
		if !ok {
			return &geocode.Result{Matched: false}, nil
		}
		return &geocode.Result{
			Latitude:    coords[0],
			Longitude:   coords[1],
			DisplayName: addr.Street + ", " + addr.City,
			Matched:     true,
		}, nil
	}
}

const rosterHeader = "Year,First Name,Last Name,School Name,School Address,City,State,Zip,Semester\n"

func TestIngest_CSVRoster(t *testing.T) {
	roster := rosterHeader +
		"2024,Ada,Lovelace,Lincoln Elementary,1437 Bannock St,Denver,CO,80202,Fall 2024\n" +
		"2024,Grace,Hopper,Arlington High,700 S Highland St,Arlington,VA,22204,Fall 2024\n" +
		"2024,Alan,Turing,Ghost School,1 Nowhere Ln,Brigadoon,ZZ,00000,Fall 2024\n"

	st := &memStore{}
	gc := &stubGeocoder{fn: matchByCity(map[string][2]float64{
		"Denver":    {39.7392, -104.9903},
		"Arlington": {38.8816, -77.0910},
	})}
	p := New(st, gc, "USA")

	res, err := p.Ingest(context.Background(), "roster.csv", strings.NewReader(roster), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 2, res.Geocoded)
	assert.Equal(t, 3, res.Total)

	require.Len(t, st.records, 3)
	assert.True(t, st.records[0].HasCoordinates())
	assert.True(t, st.records[1].HasCoordinates())
	assert.False(t, st.records[2].HasCoordinates(), "an unmatched row is still persisted")
	assert.Equal(t, "1437 Bannock St, Denver", st.records[0].GeocodedAddress)

	// One sequential lookup per row, in roster order.
	require.Len(t, gc.calls, 3)
	assert.Equal(t, "Denver", gc.calls[0].City)
	assert.Equal(t, "Brigadoon", gc.calls[2].City)
	assert.Equal(t, "USA", gc.calls[0].Country)
}

func TestIngest_AppendsToExistingDataset(t *testing.T) {
	st := &memStore{records: make([]model.TeacherRecord, 4)}
	p := New(st, &stubGeocoder{}, "")

	roster := rosterHeader + "2024,Ada,Lovelace,Lincoln Elementary,1437 Bannock St,Denver,CO,80202,Fall 2024\n"
	res, err := p.Ingest(context.Background(), "roster.csv", strings.NewReader(roster), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 5, res.Total)
	assert.Len(t, st.records, 5)
}

func TestIngest_XLSXRoster(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Roster")
	require.NoError(t, err)
	for _, row := range [][]string{
		{"First Name", "Last Name", "City", "State"},
		{"Ada", "Lovelace", "Denver", "CO"},
	} {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().Value = cell
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	st := &memStore{}
	gc := &stubGeocoder{fn: matchByCity(map[string][2]float64{"Denver": {39.7392, -104.9903}})}
	p := New(st, gc, "")

	res, err := p.Ingest(context.Background(), "roster.xlsx", &buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Geocoded)
	require.Len(t, st.records, 1)
	assert.Equal(t, "Ada", st.records[0].FirstName)
}

func TestIngest_UnsupportedFormatAbortsBeforePersistence(t *testing.T) {
	st := &memStore{}
	gc := &stubGeocoder{}
	p := New(st, gc, "")

	_, err := p.Ingest(context.Background(), "roster.txt", strings.NewReader("whatever"), nil)

	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, ".txt", ufe.Ext)
	assert.Zero(t, st.appendCalls, "nothing may be persisted")
	assert.Empty(t, gc.calls, "nothing may be geocoded")
}

func TestIngest_LegacyXLSRejected(t *testing.T) {
	// The legacy binary workbook format cannot be parsed, so it is refused
	// up front rather than failing mid-read.
	st := &memStore{}
	gc := &stubGeocoder{}
	p := New(st, gc, "")

	_, err := p.Ingest(context.Background(), "roster.xls", strings.NewReader("legacy"), nil)

	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, ".xls", ufe.Ext)
	assert.Zero(t, st.appendCalls)
	assert.Empty(t, gc.calls)
}

func TestIngest_SchemaMismatch(t *testing.T) {
	st := &memStore{}
	p := New(st, &stubGeocoder{}, "")

	_, err := p.Ingest(context.Background(), "roster.csv",
		strings.NewReader("foo,bar\n1,2\n"), nil)

	var sme *SchemaMismatchError
	require.ErrorAs(t, err, &sme)
	assert.Zero(t, st.appendCalls)
}

func TestIngest_RowsWithCoordinatesAreNotGeocoded(t *testing.T) {
	roster := "First Name,City,Latitude,Longitude,Geocoded Address\n" +
		"Ada,Denver,39.7392,-104.9903,already resolved\n"

	st := &memStore{}
	gc := &stubGeocoder{}
	p := New(st, gc, "")

	res, err := p.Ingest(context.Background(), "roster.csv", strings.NewReader(roster), nil)
	require.NoError(t, err)

	assert.Empty(t, gc.calls, "coordinated rows must never be re-geocoded")
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Geocoded, "a pre-coordinated row counts as geocoded")
	require.Len(t, st.records, 1)
	assert.True(t, st.records[0].HasCoordinates())
	assert.Equal(t, "already resolved", st.records[0].GeocodedAddress)
}

func TestIngest_GeocodedCountIncludesPreCoordinatedRows(t *testing.T) {
	roster := "First Name,School Address,City,State,Zip,Latitude,Longitude\n" +
		"Ada,1437 Bannock St,Denver,CO,80202,39.7392,-104.9903\n" +
		"Alan,,,,,,\n" +
		"Grace,700 S Highland St,Arlington,VA,22204,,\n"

	st := &memStore{}
	gc := &stubGeocoder{fn: matchByCity(map[string][2]float64{"Arlington": {38.8816, -77.0910}})}
	p := New(st, gc, "USA")

	res, err := p.Ingest(context.Background(), "roster.csv", strings.NewReader(roster), nil)
	require.NoError(t, err)

	require.Len(t, gc.calls, 2, "only the two uncoordinated rows are looked up")
	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 2, res.Geocoded, "the skipped row and the fresh match both count")
	require.Len(t, st.records, 3)
	assert.True(t, st.records[0].HasCoordinates())
	assert.False(t, st.records[1].HasCoordinates())
	assert.True(t, st.records[2].HasCoordinates())
}

func TestIngest_TransportErrorRowStillPersisted(t *testing.T) {
	st := &memStore{}
	gc := &stubGeocoder{fn: func(geocode.AddressInput) (*geocode.Result, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	p := New(st, gc, "")

	roster := rosterHeader + "2024,Ada,Lovelace,Lincoln Elementary,1437 Bannock St,Denver,CO,80202,Fall 2024\n"
	res, err := p.Ingest(context.Background(), "roster.csv", strings.NewReader(roster), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Added)
	assert.Zero(t, res.Geocoded)
	require.Len(t, st.records, 1)
	assert.False(t, st.records[0].HasCoordinates())
}

func TestIngest_CanceledContextStopsBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	st := &memStore{}
	gc := &stubGeocoder{fn: func(geocode.AddressInput) (*geocode.Result, error) {
		cancel()
		return nil, ctx.Err()
	}}
	p := New(st, gc, "")

	roster := rosterHeader +
		"2024,Ada,Lovelace,Lincoln Elementary,1437 Bannock St,Denver,CO,80202,Fall 2024\n" +
		"2024,Grace,Hopper,Arlington High,700 S Highland St,Arlington,VA,22204,Fall 2024\n"
	_, err := p.Ingest(ctx, "roster.csv", strings.NewReader(roster), nil)

	require.Error(t, err)
	assert.Len(t, gc.calls, 1, "cancellation stops further lookups")
	assert.Zero(t, st.appendCalls)
}

func TestIngest_PersistenceErrorReported(t *testing.T) {
	st := &memStore{appendErr: errors.New("disk full")}
	p := New(st, &stubGeocoder{}, "")

	roster := rosterHeader + "2024,Ada,Lovelace,Lincoln Elementary,1437 Bannock St,Denver,CO,80202,Fall 2024\n"
	_, err := p.Ingest(context.Background(), "roster.csv", strings.NewReader(roster), nil)

	require.Error(t, err)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "persist batch")
	assert.Equal(t, 1, st.appendCalls, "the failed write is reported, not retried")
}

func TestIngest_UnknownPlaceholderNotSentUpstream(t *testing.T) {
	// A row with no address fields normalizes to the Unknown placeholder,
	// which must not leak into geocoding lookups.
	st := &memStore{}
	gc := &stubGeocoder{}
	p := New(st, gc, "")

	_, err := p.Ingest(context.Background(), "roster.csv",
		strings.NewReader("First Name,Last Name\nAda,Lovelace\n"), nil)
	require.NoError(t, err)

	require.Len(t, gc.calls, 1)
	assert.Empty(t, gc.calls[0].Street)
	assert.Empty(t, gc.calls[0].City)
	assert.Empty(t, gc.calls[0].State)
	assert.Empty(t, gc.calls[0].ZipCode)
	assert.Equal(t, "Unknown", st.records[0].City)
}

func TestIngest_ProgressCallback(t *testing.T) {
	st := &memStore{}
	gc := &stubGeocoder{fn: matchByCity(map[string][2]float64{"Denver": {1, 2}})}
	p := New(st, gc, "")

	roster := rosterHeader +
		"2024,Ada,Lovelace,Lincoln Elementary,1437 Bannock St,Denver,CO,80202,Fall 2024\n" +
		"2024,Grace,Hopper,Arlington High,700 S Highland St,Arlington,VA,22204,Fall 2024\n"

	var dones []int
	lastGeocoded := -1
	_, err := p.Ingest(context.Background(), "roster.csv", strings.NewReader(roster),
		func(done, total, geocoded int) {
			dones = append(dones, done)
			assert.Equal(t, 2, total)
			lastGeocoded = geocoded
		})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, dones)
	assert.Equal(t, 1, lastGeocoded)
}
