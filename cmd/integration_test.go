package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const enrollmentCSV = `Marital_status,Course,Gender,Scholarship_holder,Debtor,Tuition_fees_up_to_date,Admission_grade,Curricular_units_1st_sem_grade,Curricular_units_2nd_sem_grade,Curricular_units_1st_sem_approved,Curricular_units_2nd_sem_approved,Age_at_enrollment,Status
1,9500,0,1,0,1,142.5,14,13.5,6,6,19,Graduate
1,33,1,0,1,0,120,0,0,0,0,31,Dropout
1,9500,0,0,0,1,130,13,14,6,5,20,Graduate
2,9119,1,0,0,1,125,11,10,5,4,22,Enrolled
1,9119,1,0,1,0,118,7,2,2,1,26,Dropout
1,9254,0,0,0,1,135,15,15,6,6,18,Graduate
`

// setup isolates HOME and writes the enrollment fixture.
func setup(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "data.csv")
	if err := os.WriteFile(path, []byte(enrollmentCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

// resetFlags restores every flag to its default so state from a previous
// invocation does not leak into the next one.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			var def []string
			if s := strings.Trim(fl.DefValue, "[]"); s != "" {
				def = strings.Split(s, ",")
			}
			_ = sv.Replace(def)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd executes the root command with args and returns its output.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func TestCLI_ReportMarkdownAndJSON(t *testing.T) {
	data := setup(t)

	out := runCmd(t, "report", "--data", data, "--gender", "female")
	for _, want := range []string{"[STUDENT PERFORMANCE]", "Rows: 6 (filtered 3)", "- Graduate: 3 (100.0%)", "- Nursing (n=2)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}

	outPath := filepath.Join(filepath.Dir(data), "reports", "all.json")
	out = runCmd(t, "report", "--data", data, "--format", "json", "-o", outPath)
	if !strings.Contains(out, "✓ Wrote report to") {
		t.Fatalf("unexpected output: %s", out)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded["filtered"] != float64(6) {
		t.Fatalf("filtered = %v", decoded["filtered"])
	}
}

func TestCLI_ReportTableFormat(t *testing.T) {
	data := setup(t)
	out := runCmd(t, "report", "--data", data, "--format", "table", "--top", "1")
	for _, want := range []string{"Status Distribution", "Top 1 Courses by Status", "Correlation Matrix"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table report missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_ReportUnknownCourse(t *testing.T) {
	data := setup(t)
	if _, err := execute("report", "--data", data, "--course", "Astrophysics"); err == nil {
		t.Fatalf("expected lookup error for unknown course")
	}
	if _, err := execute("report", "--data", data, "--format", "pdf"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestCLI_FilterWritesMatchingRows(t *testing.T) {
	data := setup(t)

	out := runCmd(t, "filter", "--data", data, "--status", "Dropout")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got:\n%s", out)
	}
	for _, l := range lines[1:] {
		if !strings.HasSuffix(l, ",Dropout") {
			t.Fatalf("non-matching row %q", l)
		}
	}

	out = runCmd(t, "filter", "--data", data, "--course", "Nursing", "--count")
	if !strings.Contains(out, "2 of 6 records match") {
		t.Fatalf("count output: %s", out)
	}

	out = runCmd(t, "filter", "--data", data, "--where", "Debtor == true", "--count")
	if !strings.Contains(out, "2 of 6 records match") {
		t.Fatalf("where output: %s", out)
	}
}

func TestCLI_CountMeanCorr(t *testing.T) {
	data := setup(t)

	out := runCmd(t, "count", "--data", data, "--by", "Course,Status", "--top", "1")
	if !strings.Contains(out, "Nursing") || !strings.Contains(out, "Total: 2") {
		t.Fatalf("count output:\n%s", out)
	}

	out = runCmd(t, "mean", "--data", data)
	for _, want := range []string{"Grade S1", "Graduate", "Total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("mean output missing %q:\n%s", want, out)
		}
	}

	out = runCmd(t, "corr", "--data", data, "--pairs")
	if !strings.Contains(out, " ~ ") {
		t.Fatalf("corr output:\n%s", out)
	}
}

func TestCLI_CoursesWithCounts(t *testing.T) {
	data := setup(t)
	out := runCmd(t, "courses", "--data", data, "--counts")
	if !strings.Contains(out, "Nursing") || !strings.Contains(out, "Informatics Engineering") {
		t.Fatalf("courses output:\n%s", out)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	setup(t)
	runCmd(t, "config", "set", "top_n", "3")
	runCmd(t, "config", "set", "output_format", "table")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "top_n: 3") || !strings.Contains(out, "output_format: table") {
		t.Fatalf("config show:\n%s", out)
	}
	if _, err := execute("config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
