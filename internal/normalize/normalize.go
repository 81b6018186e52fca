// Package normalize converts raw roster rows into canonical TeacherRecords.
// Every function here is total: malformed input degrades to a defined
// fallback, never an error.
package normalize

import (
	"strconv"
	"strings"

	"github.com/algae-foundation/teacher-analytics/internal/model"
)

// UnknownText is the placeholder stored for missing free-text fields.
// Downstream grouping treats a literal "Unknown" bucket differently from a
// null, and the dataset standardizes on the literal.
const UnknownText = "Unknown"

// truthy is the set of raw values that normalize to yes. Anything else
// non-blank is a no; blank is unknown.
var truthy = map[string]bool{
	"yes":  true,
	"y":    true,
	"true": true,
	"1":    true,
}

// ParseFlag normalizes a boolean-like raw value into a tri-state flag.
func ParseFlag(raw string) model.Flag {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.FlagUnknown
	}
	if truthy[strings.ToLower(raw)] {
		return model.FlagYes
	}
	return model.FlagNo
}

// ParsePercent normalizes a percentage raw value. Float strings are accepted
// and truncated toward zero. Parse failures and out-of-range values are
// unknown (nil), never zero.
func ParsePercent(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	if n < 0 || n > 100 {
		return nil
	}
	return &n
}

// ParseCount normalizes a non-negative integer count. Float strings are
// truncated; parse failures and negatives become zero.
func ParseCount(raw string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

// ClassifySchoolType classifies by case-insensitive substring match.
// "public" wins over "private" when both somehow appear.
func ClassifySchoolType(raw string) model.SchoolType {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.SchoolUnknown
	}
	lower := strings.ToLower(raw)
	switch {
	case lower == "unknown":
		return model.SchoolUnknown
	case strings.Contains(lower, "public"):
		return model.SchoolPublic
	case strings.Contains(lower, "private"):
		return model.SchoolPrivate
	default:
		return model.SchoolOther
	}
}

// textOrUnknown fills missing free-text values with the Unknown placeholder.
func textOrUnknown(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownText
	}
	return raw
}

// RowMap pairs a header with one data row, keyed by canonical column name.
// Header cells are matched case-insensitively against the canonical schema;
// columns outside the schema are dropped. Short rows yield missing keys,
// which Normalize treats as blank.
func RowMap(header, row []string) map[string]string {
	canonical := make(map[string]string, len(model.Columns()))
	for _, col := range model.Columns() {
		canonical[strings.ToLower(col)] = col
	}

	m := make(map[string]string, len(header))
	for i, cell := range header {
		col, ok := canonical[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}
		if i < len(row) {
			m[col] = row[i]
		}
	}
	return m
}

// Normalize converts one raw row into a canonical TeacherRecord. Missing
// columns behave exactly like blank cells, so batches with differing column
// sets concatenate into the full schema with defined-missing markers.
func Normalize(raw map[string]string) model.TeacherRecord {
	rec := model.TeacherRecord{
		Year:           textOrUnknown(raw[model.ColYear]),
		FirstName:      textOrUnknown(raw[model.ColFirstName]),
		LastName:       textOrUnknown(raw[model.ColLastName]),
		SchoolName:     textOrUnknown(raw[model.ColSchoolName]),
		SchoolDistrict: textOrUnknown(raw[model.ColSchoolDistrict]),
		SchoolAddress:  textOrUnknown(raw[model.ColSchoolAddress]),
		City:           textOrUnknown(raw[model.ColCity]),
		State:          textOrUnknown(raw[model.ColState]),
		Zip:            textOrUnknown(raw[model.ColZip]),
		County:         textOrUnknown(raw[model.ColCounty]),
		Email:          textOrUnknown(raw[model.ColEmail]),
		Semester:       textOrUnknown(raw[model.ColSemester]),
		Title1:         ParseFlag(raw[model.ColTitle1]),
		ELLStudents:    ParseFlag(raw[model.ColELLStudents]),
		Returning:      ParseFlag(raw[model.ColReturning]),
		SchoolType:     ClassifySchoolType(raw[model.ColSchoolType]),
		FreeLunchPct:   ParsePercent(raw[model.ColFreeLunchPct]),
		TotalStudents:  ParseCount(raw[model.ColTotalStudents]),
	}

	// Coordinates are kept only as a complete pair.
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(raw[model.ColLatitude]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(raw[model.ColLongitude]), 64)
	if latErr == nil && lonErr == nil {
		rec.SetCoordinates(lat, lon, strings.TrimSpace(raw[model.ColGeocodedAddress]))
	}

	return rec
}
