package model

// Flag is a tri-state boolean. Roster fields like "Title 1" arrive as
// free-form yes/no text and are frequently blank; a blank answer is not the
// same as "no" in reporting, so unknown is a first-class value.
type Flag int

const (
	FlagUnknown Flag = iota
	FlagNo
	FlagYes
)

// String renders the flag using the roster's own vocabulary. Unknown renders
// as the empty string so it round-trips through the flat-file backend as a
// blank cell.
func (f Flag) String() string {
	switch f {
	case FlagYes:
		return "Yes"
	case FlagNo:
		return "No"
	default:
		return ""
	}
}

// Known reports whether the flag carries an actual answer.
func (f Flag) Known() bool {
	return f != FlagUnknown
}

// SchoolType classifies a school as public, private, or other.
type SchoolType string

const (
	SchoolPublic  SchoolType = "Public"
	SchoolPrivate SchoolType = "Private"
	SchoolOther   SchoolType = "Other"
	SchoolUnknown SchoolType = "Unknown"
)

// TeacherRecord is one row of the participation dataset: one teacher at one
// school in one program semester. Records are created by the normalizer,
// enriched in place by the geocoder, and immutable once appended to a store.
type TeacherRecord struct {
	// ID is the server-generated identifier from relational backends.
	// Zero for records that have not been persisted there.
	ID int64 `json:"id,omitempty"`

	Year           string     `json:"year"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	SchoolName     string     `json:"school_name"`
	SchoolDistrict string     `json:"school_district"`
	SchoolAddress  string     `json:"school_address"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Zip            string     `json:"zip"`
	County         string     `json:"county"`
	Email          string     `json:"email"`
	Title1         Flag       `json:"title_1"`
	SchoolType     SchoolType `json:"public_private"`
	FreeLunchPct   *int       `json:"students_receiving_free_reduced_lunch,omitempty"`
	ELLStudents    Flag       `json:"ell_students_in_class"`
	Returning      Flag       `json:"returning_teacher"`
	TotalStudents  int        `json:"total_students"`
	Semester       string     `json:"semester"`

	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	GeocodedAddress string   `json:"geocoded_address,omitempty"`
}

// HasCoordinates reports whether the record carries a complete coordinate
// pair. Latitude and longitude are always both set or both nil.
func (r *TeacherRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// SetCoordinates populates the geocoding output fields.
func (r *TeacherRecord) SetCoordinates(lat, lon float64, display string) {
	r.Latitude = &lat
	r.Longitude = &lon
	r.GeocodedAddress = display
}
