package model

import "strconv"

// Row renders the record as canonical column values in Columns() order, for
// the flat-file backend and CSV export. Unknown values render as blank cells
// so they re-normalize to unknown on load.
func (r *TeacherRecord) Row() []string {
	flp := ""
	if r.FreeLunchPct != nil {
		flp = strconv.Itoa(*r.FreeLunchPct)
	}
	lat, lon := "", ""
	if r.HasCoordinates() {
		lat = strconv.FormatFloat(*r.Latitude, 'f', -1, 64)
		lon = strconv.FormatFloat(*r.Longitude, 'f', -1, 64)
	}
	return []string{
		r.Year, r.FirstName, r.LastName, r.SchoolName, r.SchoolDistrict,
		r.SchoolAddress, r.City, r.State, r.Zip, r.County, r.Email,
		r.Title1.String(), string(r.SchoolType), flp, r.ELLStudents.String(),
		r.Returning.String(), strconv.Itoa(r.TotalStudents), r.Semester,
		lat, lon, r.GeocodedAddress,
	}
}
