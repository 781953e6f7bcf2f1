package dataset

import (
	"strconv"
	"strings"
)

// Column names of the enrollment dataset header.
const (
	FieldStatus          = "Status"
	FieldCourse          = "Course"
	FieldGender          = "Gender"
	FieldScholarship     = "Scholarship_holder"
	FieldDebtor          = "Debtor"
	FieldTuitionUpToDate = "Tuition_fees_up_to_date"
	FieldAdmissionGrade  = "Admission_grade"
	FieldSem1Grade       = "Curricular_units_1st_sem_grade"
	FieldSem2Grade       = "Curricular_units_2nd_sem_grade"
	FieldSem1Approved    = "Curricular_units_1st_sem_approved"
	FieldSem2Approved    = "Curricular_units_2nd_sem_approved"
	FieldAge             = "Age_at_enrollment"
)

// RequiredFields lists the columns every source must provide.
var RequiredFields = []string{
	FieldStatus, FieldCourse, FieldGender,
	FieldScholarship, FieldDebtor, FieldTuitionUpToDate,
	FieldAdmissionGrade, FieldSem1Grade, FieldSem2Grade,
	FieldSem1Approved, FieldSem2Approved, FieldAge,
}

// Enrollment status values found in the dataset.
const (
	StatusGraduate = "Graduate"
	StatusDropout  = "Dropout"
	StatusEnrolled = "Enrolled"
)

// Statuses is the closed domain of Status values, in display order.
var Statuses = []string{StatusGraduate, StatusDropout, StatusEnrolled}

// Gender is the two-variant encoding of the Gender column (1 = male, 0 = female).
type Gender uint8

const (
	Female Gender = iota
	Male
)

func (g Gender) String() string {
	if g == Male {
		return "male"
	}
	return "female"
}

// ParseGender decodes the raw 0/1 column value.
func ParseGender(raw string) (Gender, bool) {
	switch strings.TrimSpace(raw) {
	case "1", "1.0":
		return Male, true
	case "0", "0.0":
		return Female, true
	}
	return Female, false
}

// Record is one student row. Records are values and must be treated as read-only
// once loaded; Extra is shared with the dataset and must not be written.
type Record struct {
	Status            string
	Course            int
	Gender            Gender
	ScholarshipHolder bool
	Debtor            bool
	TuitionUpToDate   bool

	AdmissionGrade float64
	Sem1Grade      float64
	Sem2Grade      float64
	Sem1Approved   float64
	Sem2Approved   float64
	Age            float64

	// Extra holds the columns outside the known schema, keyed by header name.
	Extra map[string]string
}

// Category returns the categorical label of a field. Boolean flags render as
// "1"/"0" like the source column; numeric fields render in their shortest form.
func (r Record) Category(field string) (string, bool) {
	switch field {
	case FieldStatus:
		return r.Status, true
	case FieldCourse:
		return strconv.Itoa(r.Course), true
	case FieldGender:
		return r.Gender.String(), true
	case FieldScholarship:
		return flag(r.ScholarshipHolder), true
	case FieldDebtor:
		return flag(r.Debtor), true
	case FieldTuitionUpToDate:
		return flag(r.TuitionUpToDate), true
	}
	if x, ok := r.number(field); ok {
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	v, ok := r.Extra[field]
	return v, ok
}

// Raw returns a field as it appears in the source file. It differs from
// Category only for Gender, which is stored as 1/0.
func (r Record) Raw(field string) string {
	if field == FieldGender {
		return strconv.Itoa(int(r.Gender))
	}
	v, _ := r.Category(field)
	return v
}

// Number returns the numeric value of a field. Flags and gender map to 1/0.
func (r Record) Number(field string) (float64, bool) {
	if x, ok := r.number(field); ok {
		return x, true
	}
	switch field {
	case FieldCourse:
		return float64(r.Course), true
	case FieldGender:
		return float64(r.Gender), true
	case FieldScholarship:
		return bit(r.ScholarshipHolder), true
	case FieldDebtor:
		return bit(r.Debtor), true
	case FieldTuitionUpToDate:
		return bit(r.TuitionUpToDate), true
	}
	v, ok := r.Extra[field]
	if !ok {
		return 0, false
	}
	return parseNumeric(v, 0)
}

func (r Record) number(field string) (float64, bool) {
	switch field {
	case FieldAdmissionGrade:
		return r.AdmissionGrade, true
	case FieldSem1Grade:
		return r.Sem1Grade, true
	case FieldSem2Grade:
		return r.Sem2Grade, true
	case FieldSem1Approved:
		return r.Sem1Approved, true
	case FieldSem2Approved:
		return r.Sem2Approved, true
	case FieldAge:
		return r.Age, true
	}
	return 0, false
}

// Vars exposes the record as a flat map for expression evaluation.
func (r Record) Vars() map[string]any {
	m := make(map[string]any, len(RequiredFields)+len(r.Extra))
	for k, v := range r.Extra {
		m[k] = v
	}
	m[FieldStatus] = r.Status
	m[FieldCourse] = r.Course
	m[FieldGender] = r.Gender.String()
	m[FieldScholarship] = r.ScholarshipHolder
	m[FieldDebtor] = r.Debtor
	m[FieldTuitionUpToDate] = r.TuitionUpToDate
	m[FieldAdmissionGrade] = r.AdmissionGrade
	m[FieldSem1Grade] = r.Sem1Grade
	m[FieldSem2Grade] = r.Sem2Grade
	m[FieldSem1Approved] = r.Sem1Approved
	m[FieldSem2Approved] = r.Sem2Approved
	m[FieldAge] = r.Age
	return m
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func bit(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
