package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/studash/internal/aggregate"
	"github.com/KaramelBytes/studash/internal/dataset"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Markdown renders a compact, sectioned report.
func (d *Dashboard) Markdown() string {
	var b strings.Builder
	b.WriteString("[STUDENT PERFORMANCE]\n")
	b.WriteString(fmt.Sprintf("Report: %s\n", d.ID))
	if d.Source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", d.Source))
	}
	b.WriteString(fmt.Sprintf("Selection: %s\n", describeSelection(d)))
	b.WriteString(fmt.Sprintf("Rows: %d (filtered %d)\n", d.Rows, d.Filtered))

	b.WriteString("\n[METRICS]\n")
	if err := d.Err(SectionSummary); err != nil {
		b.WriteString(fmt.Sprintf("- unavailable: %v\n", err))
	} else {
		s := d.Summary
		b.WriteString(fmt.Sprintf("- Total students: %d\n", s.Students))
		b.WriteString(fmt.Sprintf("- Mean grade semester 1: %s\n", metric(s, s.MeanSem1Grade, "%.2f")))
		b.WriteString(fmt.Sprintf("- Mean grade semester 2: %s\n", metric(s, s.MeanSem2Grade, "%.2f")))
		b.WriteString(fmt.Sprintf("- Mean age at enrollment: %s\n", metric(s, s.MeanAge, "%.1f")))
	}

	b.WriteString("\n[STATUS DISTRIBUTION]\n")
	if err := d.Err(SectionStatus); err != nil {
		b.WriteString(fmt.Sprintf("- unavailable: %v\n", err))
	} else if d.Status.Len() == 0 {
		b.WriteString("(no records)\n")
	} else {
		for _, r := range d.Status.Rows {
			b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", r.Key[0], r.Count, pct(r.Count, d.Status.Total)))
		}
	}

	b.WriteString(fmt.Sprintf("\n[STATUS BY COURSE] (top %d)\n", len(d.TopCourses)))
	if err := d.Err(SectionCourses); err != nil {
		b.WriteString(fmt.Sprintf("- unavailable: %v\n", err))
	} else if len(d.TopCourses) == 0 {
		b.WriteString("(no records)\n")
	} else {
		for _, top := range d.TopCourses {
			code := top.Key[0]
			b.WriteString(fmt.Sprintf("- %s (n=%d):", d.CourseLabel(code), top.Count))
			for i, st := range d.CourseStatus.Values(1) {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString(fmt.Sprintf(" %s %d", st, d.CourseStatus.Get(code, st)))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n[MEAN GRADES BY STATUS]\n")
	if err := d.Err(SectionGrades); err != nil {
		b.WriteString(fmt.Sprintf("- unavailable: %v\n", err))
	} else if d.Grades.Empty() {
		b.WriteString("(no records)\n")
	} else {
		for _, r := range d.Grades.Rows {
			b.WriteString(fmt.Sprintf("- %s (n=%d):", r.Group, r.Count))
			for j, f := range d.Grades.Fields {
				if j > 0 {
					b.WriteString(",")
				}
				b.WriteString(fmt.Sprintf(" %s %.2f", shortField(f), r.Means[j]))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n[CORRELATIONS]\n")
	if err := d.Err(SectionCorrelation); err != nil {
		b.WriteString(fmt.Sprintf("- unavailable: %v\n", err))
	} else {
		pairs := d.Correlation.Pairs()
		sort.SliceStable(pairs, func(i, j int) bool { return abs(pairs[i].R) > abs(pairs[j].R) })
		if len(pairs) == 0 {
			b.WriteString("(no defined correlations)\n")
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", shortField(p.A), shortField(p.B), p.R))
		}
	}

	b.WriteString("\n[RISK FACTORS]\n")
	if err := d.Err(SectionRisk); err != nil {
		b.WriteString(fmt.Sprintf("- unavailable: %v\n", err))
	}
	for _, rt := range d.Risk {
		b.WriteString(fmt.Sprintf("- %s:\n", rt.Field))
		for _, v := range rt.Counts.Values(0) {
			b.WriteString(fmt.Sprintf("  • %s=%s:", rt.Field, v))
			for i, st := range rt.Counts.Values(1) {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString(fmt.Sprintf(" %s %d", st, rt.Counts.Get(v, st)))
			}
			b.WriteString("\n")
		}
	}

	if len(d.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range d.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderTable writes the dashboard as terminal tables.
func (d *Dashboard) RenderTable(w io.Writer) {
	heading := color.New(color.FgYellow, color.Bold)
	warn := color.New(color.FgRed)

	heading.Fprintf(w, "\nStudent Performance (%d of %d students)\n", d.Filtered, d.Rows)
	fmt.Fprintf(w, "Selection: %s\n", describeSelection(d))

	heading.Fprintln(w, "\nMetrics")
	if err := d.Err(SectionSummary); err != nil {
		warn.Fprintf(w, "unavailable: %v\n", err)
	} else {
		s := d.Summary
		t := newTable(w, []string{"Total Students", "Mean Grade Sem 1", "Mean Grade Sem 2", "Mean Age"})
		t.Append([]string{
			strconv.Itoa(s.Students),
			metric(s, s.MeanSem1Grade, "%.2f"),
			metric(s, s.MeanSem2Grade, "%.2f"),
			metric(s, s.MeanAge, "%.1f"),
		})
		t.Render()
	}

	heading.Fprintln(w, "\nStatus Distribution")
	if err := d.Err(SectionStatus); err != nil {
		warn.Fprintf(w, "unavailable: %v\n", err)
	} else {
		t := newTable(w, []string{"Status", "Count", "Share"})
		for _, r := range d.Status.Rows {
			t.Append([]string{r.Key[0], strconv.Itoa(r.Count), fmt.Sprintf("%.1f%%", pct(r.Count, d.Status.Total))})
		}
		t.Render()
	}

	heading.Fprintf(w, "\nTop %d Courses by Status\n", len(d.TopCourses))
	if err := d.Err(SectionCourses); err != nil {
		warn.Fprintf(w, "unavailable: %v\n", err)
	} else {
		statuses := d.CourseStatus.Values(1)
		t := newTable(w, append([]string{"Rank", "Course", "Total"}, statuses...))
		for i, top := range d.TopCourses {
			row := []string{strconv.Itoa(i + 1), d.CourseLabel(top.Key[0]), strconv.Itoa(top.Count)}
			for _, st := range statuses {
				row = append(row, strconv.Itoa(d.CourseStatus.Get(top.Key[0], st)))
			}
			t.Append(row)
		}
		t.Render()
	}

	heading.Fprintln(w, "\nMean Grades by Status")
	if err := d.Err(SectionGrades); err != nil {
		warn.Fprintf(w, "unavailable: %v\n", err)
	} else {
		RenderMeans(w, d.Grades)
	}

	heading.Fprintln(w, "\nCorrelation Matrix")
	if err := d.Err(SectionCorrelation); err != nil {
		warn.Fprintf(w, "unavailable: %v\n", err)
	} else {
		RenderCorrelation(w, d.Correlation)
	}

	heading.Fprintln(w, "\nRisk Factors")
	if err := d.Err(SectionRisk); err != nil {
		warn.Fprintf(w, "unavailable: %v\n", err)
	}
	for _, rt := range d.Risk {
		statuses := rt.Counts.Values(1)
		t := newTable(w, append([]string{rt.Field}, statuses...))
		for _, v := range rt.Counts.Values(0) {
			row := []string{v}
			for _, st := range statuses {
				row = append(row, strconv.Itoa(rt.Counts.Get(v, st)))
			}
			t.Append(row)
		}
		t.Render()
	}

	for _, msg := range d.Warnings {
		warn.Fprintf(w, "⚠ %s\n", msg)
	}
}

// JSON encodes the dashboard with section errors as strings.
func (d *Dashboard) JSON() ([]byte, error) {
	type alias Dashboard
	errs := make(map[string]string, len(d.Errors))
	for k, err := range d.Errors {
		errs[k] = err.Error()
	}
	return json.MarshalIndent(struct {
		*alias
		SectionErrors map[string]string `json:"errors,omitempty"`
	}{(*alias)(d), errs}, "", "  ")
}

// RenderCounts writes a count table, labelling course codes when present.
func RenderCounts(w io.Writer, t *aggregate.CountTable, label func(field, v string) string) {
	tw := newTable(w, append(append([]string(nil), t.Fields...), "Count"))
	for _, r := range t.Rows {
		row := make([]string, 0, len(r.Key)+1)
		for i, k := range r.Key {
			row = append(row, label(t.Fields[i], k))
		}
		tw.Append(append(row, strconv.Itoa(r.Count)))
	}
	tw.Render()
}

// RenderMeans writes a grouped-mean table, Total row last.
func RenderMeans(w io.Writer, t *aggregate.MeanTable) {
	hdr := []string{t.GroupKey, "N"}
	for _, f := range t.Fields {
		hdr = append(hdr, shortField(f))
	}
	tw := newTable(w, hdr)
	for _, r := range t.Rows {
		row := []string{r.Group, strconv.Itoa(r.Count)}
		for _, m := range r.Means {
			row = append(row, fmt.Sprintf("%.2f", m))
		}
		tw.Append(row)
	}
	tw.Render()
}

// RenderCorrelation writes the matrix, marking undefined cells n/a.
func RenderCorrelation(w io.Writer, m *aggregate.CorrMatrix) {
	hdr := []string{""}
	for _, f := range m.Fields {
		hdr = append(hdr, shortField(f))
	}
	tw := newTable(w, hdr)
	for i, f := range m.Fields {
		row := []string{shortField(f)}
		for j := range m.Fields {
			if !m.Defined(i, j) {
				row = append(row, "n/a")
				continue
			}
			row = append(row, fmt.Sprintf("%.2f", m.Values[i][j]))
		}
		tw.Append(row)
	}
	tw.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	return t
}

func describeSelection(d *Dashboard) string {
	sel := d.Selection
	if sel.IsEmpty() {
		return "all records"
	}
	var parts []string
	if len(sel.Statuses) > 0 {
		parts = append(parts, "status in ["+strings.Join(sel.Statuses, ", ")+"]")
	}
	if g := strings.TrimSpace(sel.Gender); g != "" && !strings.EqualFold(g, "all") && !strings.EqualFold(g, "semua") {
		parts = append(parts, "gender = "+g)
	}
	if len(sel.Courses) > 0 {
		parts = append(parts, "course in ["+strings.Join(sel.Courses, ", ")+"]")
	}
	if w := strings.TrimSpace(sel.Where); w != "" {
		parts = append(parts, "where "+w)
	}
	return strings.Join(parts, " and ")
}

func metric(s aggregate.Summary, v float64, format string) string {
	if !s.Defined {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

var shortNames = map[string]string{
	dataset.FieldAdmissionGrade: "Admission",
	dataset.FieldSem1Grade:      "Grade S1",
	dataset.FieldSem2Grade:      "Grade S2",
	dataset.FieldSem1Approved:   "Approved S1",
	dataset.FieldSem2Approved:   "Approved S2",
	dataset.FieldAge:            "Age",
}

func shortField(f string) string {
	if s, ok := shortNames[f]; ok {
		return s
	}
	return f
}
