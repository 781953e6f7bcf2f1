// Package dashboard composes the filter and aggregate engines into the set
// of tables a student-performance dashboard renders.
package dashboard

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/studash/internal/aggregate"
	"github.com/KaramelBytes/studash/internal/catalog"
	"github.com/KaramelBytes/studash/internal/dataset"
	"github.com/KaramelBytes/studash/internal/filter"
	"github.com/google/uuid"
)

// Section names, used as keys of Dashboard.Errors.
const (
	SectionSummary     = "summary"
	SectionStatus      = "status"
	SectionCourses     = "courses"
	SectionGrades      = "grades"
	SectionCorrelation = "correlation"
	SectionRisk        = "risk"
)

// Options controls which aggregates are computed.
type Options struct {
	// TopCourses bounds the course-by-status table.
	TopCourses int
	// GradeFields are averaged per status.
	GradeFields []string
	// CorrFields enter the correlation matrix.
	CorrFields []string
	// RiskFields are each counted against Status.
	RiskFields []string
}

// DefaultOptions returns the standard dashboard layout.
func DefaultOptions() Options {
	return Options{
		TopCourses:  10,
		GradeFields: []string{dataset.FieldSem1Grade, dataset.FieldSem2Grade},
		CorrFields: []string{
			dataset.FieldAdmissionGrade,
			dataset.FieldSem1Grade,
			dataset.FieldSem2Grade,
			dataset.FieldSem1Approved,
			dataset.FieldSem2Approved,
		},
		RiskFields: []string{dataset.FieldScholarship, dataset.FieldDebtor, dataset.FieldTuitionUpToDate},
	}
}

// RiskTable is the status distribution over one risk flag.
type RiskTable struct {
	Field  string                `json:"field"`
	Counts *aggregate.CountTable `json:"counts"`
}

// Dashboard is one full recomputation for a selection.
type Dashboard struct {
	ID        string           `json:"id"`
	Source    string           `json:"source"`
	Generated time.Time        `json:"generated"`
	Selection filter.Selection `json:"selection"`
	Rows      int              `json:"rows"`
	Filtered  int              `json:"filtered"`

	Summary      aggregate.Summary     `json:"summary"`
	Status       *aggregate.CountTable `json:"status,omitempty"`
	CourseStatus *aggregate.CountTable `json:"course_status,omitempty"`
	TopCourses   []aggregate.CountRow  `json:"top_courses,omitempty"`
	Grades       *aggregate.MeanTable  `json:"grades,omitempty"`
	Correlation  *aggregate.CorrMatrix `json:"correlation,omitempty"`
	Risk         []RiskTable           `json:"risk,omitempty"`
	Errors       map[string]error      `json:"-"`
	Warnings     []string              `json:"warnings,omitempty"`

	catalog *catalog.Catalog
}

// Build filters ds with sel and computes every section. A selection that
// fails to compile is returned as an error; a failing section is recorded in
// Errors and the remaining sections are still computed.
func Build(ds *dataset.Dataset, sel filter.Selection, cat *catalog.Catalog, opt Options) (*Dashboard, error) {
	if cat == nil {
		cat = catalog.Default()
	}
	filtered, err := filter.Apply(ds.Records, sel, cat)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		ID:        uuid.NewString(),
		Source:    ds.Name,
		Generated: time.Now(),
		Selection: sel,
		Rows:      ds.Len(),
		Filtered:  len(filtered),
		Errors:    map[string]error{},
		Warnings:  append([]string(nil), ds.Warnings...),
		catalog:   cat,
	}
	if codes := cat.Unmapped(filtered); len(codes) > 0 {
		d.Warnings = append(d.Warnings, fmt.Sprintf("course codes without a catalog entry: %v", codes))
	}

	d.Summary, err = aggregate.Summarize(filtered)
	d.record(SectionSummary, err)

	d.Status, err = aggregate.CountBy(filtered, dataset.FieldStatus)
	d.record(SectionStatus, err)

	d.CourseStatus, d.TopCourses, err = aggregate.TopGroups(filtered, dataset.FieldCourse, dataset.FieldStatus, opt.TopCourses)
	d.record(SectionCourses, err)

	d.Grades, err = aggregate.MeanBy(filtered, dataset.FieldStatus, opt.GradeFields)
	d.record(SectionGrades, err)

	d.Correlation, err = aggregate.Correlation(filtered, opt.CorrFields)
	d.record(SectionCorrelation, err)

	for _, f := range opt.RiskFields {
		t, err := aggregate.CountBy(filtered, f, dataset.FieldStatus)
		if err != nil {
			d.record(SectionRisk, fmt.Errorf("%s: %w", f, err))
			continue
		}
		d.Risk = append(d.Risk, RiskTable{Field: f, Counts: t})
	}
	return d, nil
}

func (d *Dashboard) record(section string, err error) {
	if err != nil {
		d.Errors[section] = err
	}
}

// Err returns the failure of a section, if any.
func (d *Dashboard) Err(section string) error { return d.Errors[section] }

// CourseLabel resolves a course code key to its catalog display name.
func (d *Dashboard) CourseLabel(key string) string {
	var code int
	if _, err := fmt.Sscanf(key, "%d", &code); err != nil {
		return key
	}
	cat := d.catalog
	if cat == nil {
		cat = catalog.Default()
	}
	return cat.Label(code)
}
