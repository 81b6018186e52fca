package model

// Canonical upload/flat-file column names, in persisted order. These match
// the roster spreadsheets the program office distributes; the relational
// backends map them to snake_case columns via ColumnToDB.
const (
	ColYear            = "Year"
	ColFirstName       = "First Name"
	ColLastName        = "Last Name"
	ColSchoolName      = "School Name"
	ColSchoolDistrict  = "School District"
	ColSchoolAddress   = "School Address"
	ColCity            = "City"
	ColState           = "State"
	ColZip             = "Zip"
	ColCounty          = "County"
	ColEmail           = "Email"
	ColTitle1          = "Title 1"
	ColSchoolType      = "PublicPrivate"
	ColFreeLunchPct    = "Students Receiving Free_Reduced Lunch"
	ColELLStudents     = "ELL Students in Class"
	ColReturning       = "Returning Teacher"
	ColTotalStudents   = "Total Students"
	ColSemester        = "Semester"
	ColLatitude        = "Latitude"
	ColLongitude       = "Longitude"
	ColGeocodedAddress = "Geocoded Address"
)

// Columns returns the canonical header in persisted order.
func Columns() []string {
	return []string{
		ColYear, ColFirstName, ColLastName, ColSchoolName, ColSchoolDistrict,
		ColSchoolAddress, ColCity, ColState, ColZip, ColCounty, ColEmail,
		ColTitle1, ColSchoolType, ColFreeLunchPct, ColELLStudents,
		ColReturning, ColTotalStudents, ColSemester,
		ColLatitude, ColLongitude, ColGeocodedAddress,
	}
}

// ColumnToDB maps canonical column names to relational column names.
var ColumnToDB = map[string]string{
	ColYear:            "year",
	ColFirstName:       "first_name",
	ColLastName:        "last_name",
	ColSchoolName:      "school_name",
	ColSchoolDistrict:  "school_district",
	ColSchoolAddress:   "school_address",
	ColCity:            "city",
	ColState:           "state",
	ColZip:             "zip",
	ColCounty:          "county",
	ColEmail:           "email",
	ColTitle1:          "title_1",
	ColSchoolType:      "public_private",
	ColFreeLunchPct:    "students_receiving_free_reduced_lunch",
	ColELLStudents:     "ell_students_in_class",
	ColReturning:       "returning_teacher",
	ColTotalStudents:   "total_students",
	ColSemester:        "semester",
	ColLatitude:        "latitude",
	ColLongitude:       "longitude",
	ColGeocodedAddress: "geocoded_address",
}
