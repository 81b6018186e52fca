package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algae-foundation/teacher-analytics/internal/model"
)

func rec(year, state, semester string, mutate func(*model.TeacherRecord)) model.TeacherRecord {
	r := model.TeacherRecord{
		Year:       year,
		State:      state,
		Semester:   semester,
		SchoolType: model.SchoolUnknown,
	}
	if mutate != nil {
		mutate(&r)
	}
	return r
}

func sampleDataset() []model.TeacherRecord {
	pct40, pct97 := 40, 97
	return []model.TeacherRecord{
		rec("2023", "CO", "Fall 2023", func(r *model.TeacherRecord) {
			r.Title1 = model.FlagYes
			r.ELLStudents = model.FlagYes
			r.Returning = model.FlagNo
			r.SchoolType = model.SchoolPublic
			r.FreeLunchPct = &pct40
			r.TotalStudents = 25
			r.SetCoordinates(39.7, -104.9, "Denver")
		}),
		rec("2024", "CO", "Spring 2024", func(r *model.TeacherRecord) {
			r.Title1 = model.FlagNo
			r.SchoolType = model.SchoolPublic
			r.TotalStudents = 30
		}),
		rec("2024", "VA", "Spring 2024", func(r *model.TeacherRecord) {
			r.Title1 = model.FlagYes
			r.SchoolType = model.SchoolPrivate
			r.FreeLunchPct = &pct97
			r.TotalStudents = 20
		}),
		rec("2024", "Unknown", "Spring 2024", nil),
	}
}

func TestApply_EmptyFilterReturnsAll(t *testing.T) {
	ds := sampleDataset()
	assert.Len(t, Apply(ds, Filter{}), 4)
}

func TestApply_Filters(t *testing.T) {
	ds := sampleDataset()

	assert.Len(t, Apply(ds, Filter{State: "CO"}), 2)
	assert.Len(t, Apply(ds, Filter{State: "co"}), 2, "state match is case-insensitive")
	assert.Len(t, Apply(ds, Filter{Year: "2024", State: "CO"}), 1)
	assert.Len(t, Apply(ds, Filter{SchoolType: "Private"}), 1)
	assert.Len(t, Apply(ds, Filter{Semester: "Fall 2023"}), 1)
	assert.Empty(t, Apply(ds, Filter{State: "TX"}))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleDataset())

	assert.Equal(t, 4, s.TotalTeachers)
	assert.Equal(t, 75, s.TotalStudents)
	assert.Equal(t, 2, s.StatesReached, "Unknown is not a state")
	assert.Equal(t, 1, s.GeocodedRows)

	assert.Equal(t, FlagTally{Yes: 2, No: 1, Unknown: 1}, s.Title1)
	assert.Equal(t, FlagTally{Yes: 1, Unknown: 3}, s.ELL)
	assert.Equal(t, FlagTally{No: 1, Unknown: 3}, s.Returning)

	assert.Equal(t, 2, s.SchoolTypes["Public"])
	assert.Equal(t, 1, s.SchoolTypes["Private"])
	assert.Equal(t, 1, s.SchoolTypes["Unknown"])

	require.NotNil(t, s.AvgFreeLunchPct)
	assert.InDelta(t, 68.5, *s.AvgFreeLunchPct, 0.001, "average covers known values only")
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.TotalTeachers)
	assert.Nil(t, s.AvgFreeLunchPct)
}

func TestCountByState(t *testing.T) {
	counts := CountByState(sampleDataset())
	assert.Equal(t, 2, counts["CO"])
	assert.Equal(t, 1, counts["VA"])
	assert.Equal(t, 1, counts["Unknown"])
}

func TestFreeLunchHistogram(t *testing.T) {
	pct0, pct4, pct5, pct100 := 0, 4, 5, 100
	ds := []model.TeacherRecord{
		{FreeLunchPct: &pct0},
		{FreeLunchPct: &pct4},
		{FreeLunchPct: &pct5},
		{FreeLunchPct: &pct100},
		{}, // unknown, excluded
	}

	bins := FreeLunchHistogram(ds)
	require.Len(t, bins, 20)

	assert.Equal(t, HistBin{Low: 0, High: 5, Count: 2}, bins[0])
	assert.Equal(t, HistBin{Low: 5, High: 10, Count: 1}, bins[1])
	assert.Equal(t, 1, bins[19].Count, "100 lands in the top bin")

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 4, total)
}

func TestTopN(t *testing.T) {
	counts := map[string]int{"CO": 5, "VA": 2, "TX": 5, "NM": 1}

	top := TopN(counts, 3)
	require.Len(t, top, 3)
	assert.Equal(t, Count{Label: "CO", Count: 5}, top[0], "ties break alphabetically")
	assert.Equal(t, Count{Label: "TX", Count: 5}, top[1])
	assert.Equal(t, Count{Label: "VA", Count: 2}, top[2])

	assert.Len(t, TopN(counts, 0), 4, "n of zero means no limit")
}
