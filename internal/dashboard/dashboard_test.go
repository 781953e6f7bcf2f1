package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/studash/internal/aggregate"
	"github.com/KaramelBytes/studash/internal/dataset"
	"github.com/KaramelBytes/studash/internal/filter"
	"github.com/fatih/color"
)

func init() { color.NoColor = true }

func fixture() *dataset.Dataset {
	mk := func(status string, course int, g dataset.Gender, debtor bool, s1, s2, age float64) dataset.Record {
		return dataset.Record{
			Status: status, Course: course, Gender: g, Debtor: debtor,
			TuitionUpToDate: !debtor,
			AdmissionGrade:  110 + s1, Sem1Grade: s1, Sem2Grade: s2,
			Sem1Approved: s1 / 3, Sem2Approved: s2 / 4, Age: age,
		}
	}
	return &dataset.Dataset{
		Name: "data.csv",
		Records: []dataset.Record{
			mk("Graduate", 9500, dataset.Female, false, 14, 13.5, 19),
			mk("Dropout", 33, dataset.Male, true, 0, 0, 31),
			mk("Graduate", 9500, dataset.Female, false, 13, 14, 20),
			mk("Enrolled", 9119, dataset.Male, false, 11, 10, 22),
			mk("Dropout", 9119, dataset.Male, true, 7, 2, 26),
			mk("Graduate", 4242, dataset.Female, false, 15, 15, 18),
		},
	}
}

func TestBuildComputesEverySection(t *testing.T) {
	d, err := Build(fixture(), filter.Selection{}, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(d.Errors) != 0 {
		t.Fatalf("unexpected section errors: %v", d.Errors)
	}
	if d.ID == "" || d.Rows != 6 || d.Filtered != 6 {
		t.Fatalf("header = %+v", d)
	}
	if d.Summary.Students != 6 || !d.Summary.Defined {
		t.Fatalf("summary = %+v", d.Summary)
	}
	if got := d.Status.Get("Graduate"); got != 3 {
		t.Fatalf("graduates = %d", got)
	}
	if len(d.TopCourses) != 4 || d.TopCourses[0].Key[0] != "9500" {
		t.Fatalf("top courses = %+v", d.TopCourses)
	}
	if total, ok := d.Grades.Total(); !ok || total.Count != 6 {
		t.Fatalf("grades total = %+v %v", total, ok)
	}
	if len(d.Correlation.Fields) != 5 {
		t.Fatalf("corr fields = %v", d.Correlation.Fields)
	}
	if len(d.Risk) != 3 || d.Risk[1].Field != dataset.FieldDebtor || d.Risk[1].Counts.Get("1", "Dropout") != 2 {
		t.Fatalf("risk = %+v", d.Risk)
	}
	if len(d.Warnings) != 1 || !strings.Contains(d.Warnings[0], "4242") {
		t.Fatalf("warnings = %v", d.Warnings)
	}
}

func TestBuildTopCoursesBound(t *testing.T) {
	opt := DefaultOptions()
	opt.TopCourses = 1
	d, err := Build(fixture(), filter.Selection{}, nil, opt)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(d.TopCourses) != 1 {
		t.Fatalf("top = %+v", d.TopCourses)
	}
	if vals := d.CourseStatus.Values(0); len(vals) != 1 || vals[0] != "9500" {
		t.Fatalf("course status restricted to %v", vals)
	}
}

func TestBuildEmptySelectionResult(t *testing.T) {
	sel := filter.Selection{Statuses: []string{"Enrolled"}, Gender: "female"}
	d, err := Build(fixture(), sel, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if d.Filtered != 0 || d.Summary.Defined {
		t.Fatalf("expected empty view, got %+v", d.Summary)
	}
	if !d.Grades.Empty() {
		t.Fatalf("grades should be empty")
	}
	if !errors.Is(d.Err(SectionCorrelation), aggregate.ErrEmptyGroup) {
		t.Fatalf("correlation err = %v", d.Err(SectionCorrelation))
	}
	// other sections are unaffected by the failed correlation
	if d.Err(SectionStatus) != nil || d.Status.Len() != 0 {
		t.Fatalf("status section = %+v, %v", d.Status, d.Err(SectionStatus))
	}
	md := d.Markdown()
	if !strings.Contains(md, "Mean grade semester 1: n/a") {
		t.Fatalf("markdown should flag undefined metrics: %s", md)
	}
	if !strings.Contains(md, "[CORRELATIONS]\n- unavailable:") {
		t.Fatalf("markdown should report correlation failure: %s", md)
	}
}

func TestBuildLookupError(t *testing.T) {
	_, err := Build(fixture(), filter.Selection{Courses: []string{"Astrophysics"}}, nil, DefaultOptions())
	if !errors.Is(err, filter.ErrLookup) {
		t.Fatalf("err = %v, want lookup error", err)
	}
}

func TestBuildRecordsSectionFailure(t *testing.T) {
	opt := DefaultOptions()
	opt.RiskFields = []string{"Nope", dataset.FieldDebtor}
	d, err := Build(fixture(), filter.Selection{}, nil, opt)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !errors.Is(d.Err(SectionRisk), aggregate.ErrUnknownField) {
		t.Fatalf("risk err = %v", d.Err(SectionRisk))
	}
	if len(d.Risk) != 1 || d.Risk[0].Field != dataset.FieldDebtor {
		t.Fatalf("surviving risk tables = %+v", d.Risk)
	}
}

func TestRenderers(t *testing.T) {
	sel := filter.Selection{Gender: "female"}
	d, err := Build(fixture(), sel, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	md := d.Markdown()
	for _, want := range []string{
		"[STUDENT PERFORMANCE]",
		"Selection: gender = female",
		"Rows: 6 (filtered 3)",
		"- Total students: 3",
		"- Graduate: 3 (100.0%)",
		"- Nursing (n=2): Graduate 2",
		"- course 4242 (n=1)",
		"- Total (n=3):",
		"[RISK FACTORS]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	var buf bytes.Buffer
	d.RenderTable(&buf)
	out := buf.String()
	for _, want := range []string{"Status Distribution", "Nursing", "Correlation Matrix", "Grade S1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}

	raw, err := d.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["filtered"] != float64(3) || decoded["id"] != d.ID {
		t.Fatalf("json = %s", raw)
	}
}
