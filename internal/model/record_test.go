package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagString(t *testing.T) {
	assert.Equal(t, "Yes", FlagYes.String())
	assert.Equal(t, "No", FlagNo.String())
	assert.Equal(t, "", FlagUnknown.String())
	assert.False(t, FlagUnknown.Known())
	assert.True(t, FlagNo.Known())
}

func TestHasCoordinates(t *testing.T) {
	var r TeacherRecord
	assert.False(t, r.HasCoordinates())

	lat := 39.7
	r.Latitude = &lat
	assert.False(t, r.HasCoordinates(), "a lone latitude is not a coordinate pair")

	r.SetCoordinates(39.7, -104.9, "Denver")
	assert.True(t, r.HasCoordinates())
	assert.Equal(t, "Denver", r.GeocodedAddress)
}

func TestRow_BlankCellsForUnknowns(t *testing.T) {
	r := TeacherRecord{FirstName: "Ada", SchoolType: SchoolUnknown}
	row := r.Row()

	assert.Len(t, row, len(Columns()))
	assert.Equal(t, "Ada", row[1])
	assert.Equal(t, "", row[11], "unknown flag renders blank")
	assert.Equal(t, "", row[13], "unknown percentage renders blank")
	assert.Equal(t, "", row[18], "missing coordinates render blank")
}
