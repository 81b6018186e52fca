// Package analytics computes read-side aggregates over the participation
// dataset. All computations work on in-memory snapshots; the dataset is
// small enough that a full scan per question is fine.
package analytics

import (
	"sort"
	"strings"

	"github.com/algae-foundation/teacher-analytics/internal/model"
	"github.com/algae-foundation/teacher-analytics/internal/normalize"
)

// Filter narrows a dataset snapshot. Empty fields match everything. String
// matches are case-insensitive exact matches.
type Filter struct {
	Year       string `json:"year,omitempty"`
	Semester   string `json:"semester,omitempty"`
	State      string `json:"state,omitempty"`
	County     string `json:"county,omitempty"`
	SchoolType string `json:"school_type,omitempty"`
}

// Apply returns the records matching the filter, preserving order.
func Apply(records []model.TeacherRecord, f Filter) []model.TeacherRecord {
	if f == (Filter{}) {
		return records
	}
	var out []model.TeacherRecord
	for _, r := range records {
		if !matches(f.Year, r.Year) ||
			!matches(f.Semester, r.Semester) ||
			!matches(f.State, r.State) ||
			!matches(f.County, r.County) ||
			!matches(f.SchoolType, string(r.SchoolType)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(want, have string) bool {
	return want == "" || strings.EqualFold(want, have)
}

// FlagTally counts the three states of a tri-state flag. Unknown is its own
// bucket and is never folded into No.
type FlagTally struct {
	Yes     int `json:"yes"`
	No      int `json:"no"`
	Unknown int `json:"unknown"`
}

func (t *FlagTally) add(f model.Flag) {
	switch f {
	case model.FlagYes:
		t.Yes++
	case model.FlagNo:
		t.No++
	default:
		t.Unknown++
	}
}

// Summary is the KPI block shown at the top of the dashboard.
type Summary struct {
	TotalTeachers int `json:"total_teachers"`
	TotalStudents int `json:"total_students"`
	// StatesReached counts distinct known states.
	StatesReached int `json:"states_reached"`
	GeocodedRows  int `json:"geocoded_rows"`

	Title1    FlagTally `json:"title_1"`
	ELL       FlagTally `json:"ell_students"`
	Returning FlagTally `json:"returning_teachers"`

	SchoolTypes map[string]int `json:"school_types"`

	// AvgFreeLunchPct averages the known values only; nil when none are
	// known.
	AvgFreeLunchPct *float64 `json:"avg_free_lunch_pct,omitempty"`
}

// Summarize computes the KPI block for a snapshot.
func Summarize(records []model.TeacherRecord) Summary {
	s := Summary{
		TotalTeachers: len(records),
		SchoolTypes:   make(map[string]int),
	}

	states := make(map[string]struct{})
	lunchSum, lunchN := 0, 0
	for _, r := range records {
		s.TotalStudents += r.TotalStudents
		if r.State != normalize.UnknownText && r.State != "" {
			states[strings.ToUpper(r.State)] = struct{}{}
		}
		if r.HasCoordinates() {
			s.GeocodedRows++
		}
		s.Title1.add(r.Title1)
		s.ELL.add(r.ELLStudents)
		s.Returning.add(r.Returning)
		s.SchoolTypes[string(r.SchoolType)]++
		if r.FreeLunchPct != nil {
			lunchSum += *r.FreeLunchPct
			lunchN++
		}
	}
	s.StatesReached = len(states)
	if lunchN > 0 {
		avg := float64(lunchSum) / float64(lunchN)
		s.AvgFreeLunchPct = &avg
	}
	return s
}

// CountByState groups records by state.
func CountByState(records []model.TeacherRecord) map[string]int {
	return countBy(records, func(r *model.TeacherRecord) string { return r.State })
}

// CountByYear groups records by program year.
func CountByYear(records []model.TeacherRecord) map[string]int {
	return countBy(records, func(r *model.TeacherRecord) string { return r.Year })
}

// CountBySemester groups records by semester.
func CountBySemester(records []model.TeacherRecord) map[string]int {
	return countBy(records, func(r *model.TeacherRecord) string { return r.Semester })
}

// CountByDistrict groups records by school district.
func CountByDistrict(records []model.TeacherRecord) map[string]int {
	return countBy(records, func(r *model.TeacherRecord) string { return r.SchoolDistrict })
}

func countBy(records []model.TeacherRecord, key func(*model.TeacherRecord) string) map[string]int {
	out := make(map[string]int)
	for i := range records {
		out[key(&records[i])]++
	}
	return out
}

// HistBin is one bucket of the free/reduced lunch histogram.
type HistBin struct {
	Low   int `json:"low"`
	High  int `json:"high"`
	Count int `json:"count"`
}

// FreeLunchHistogram buckets known free/reduced lunch percentages into
// five-point bins. 100 lands in the top bin. Unknowns are excluded and
// reported separately by Summarize.
func FreeLunchHistogram(records []model.TeacherRecord) []HistBin {
	const width = 5
	bins := make([]HistBin, 100/width)
	for i := range bins {
		bins[i] = HistBin{Low: i * width, High: i*width + width}
	}
	for _, r := range records {
		if r.FreeLunchPct == nil {
			continue
		}
		idx := *r.FreeLunchPct / width
		if idx >= len(bins) {
			idx = len(bins) - 1
		}
		bins[idx].Count++
	}
	return bins
}

// Count is one label and its record count.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopN returns the n largest entries, largest first. Ties break
// alphabetically so output is stable.
func TopN(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for label, c := range counts {
		out = append(out, Count{Label: label, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
