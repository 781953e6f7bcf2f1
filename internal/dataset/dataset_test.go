package dataset

import (
	"archive/zip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var header = []string{
	"Marital_status", "Course", "Gender", "Scholarship_holder", "Debtor", "Tuition_fees_up_to_date",
	"Admission_grade", "Curricular_units_1st_sem_grade", "Curricular_units_2nd_sem_grade",
	"Curricular_units_1st_sem_approved", "Curricular_units_2nd_sem_approved", "Age_at_enrollment", "Status",
}

var rows = [][]string{
	{"1", "33", "1", "0", "0", "1", "127.3", "0", "0", "0", "0", "20", "Dropout"},
	{"1", "9500", "0", "1", "0", "1", "142.5", "14", "13.666667", "6", "6", "19", "Graduate"},
	{"2", "9147", "1", "0", "1", "0", "124.8", "0", "0", "0", "0", "45", "Dropout"},
	{"1", "9500", "0", "0", "0", "1", "119.6", "13.428571", "12.4", "6", "5", "20", "Enrolled"},
}

func joinRows(sep string) string {
	lines := []string{strings.Join(header, sep)}
	for _, r := range rows {
		lines = append(lines, strings.Join(r, sep))
	}
	return strings.Join(lines, "\n") + "\n"
}

func assertFixture(t *testing.T, ds *Dataset) {
	t.Helper()
	if ds.Len() != 4 {
		t.Fatalf("records = %d, want 4", ds.Len())
	}
	r := ds.Records[1]
	if r.Status != StatusGraduate || r.Course != 9500 || r.Gender != Female {
		t.Fatalf("record 1 = %+v", r)
	}
	if !r.ScholarshipHolder || r.Debtor || !r.TuitionUpToDate {
		t.Fatalf("record 1 flags = %+v", r)
	}
	if r.Sem2Grade != 13.666667 || r.Age != 19 || r.AdmissionGrade != 142.5 {
		t.Fatalf("record 1 numbers = %+v", r)
	}
	if got := r.Extra["Marital_status"]; got != "1" {
		t.Fatalf("extra Marital_status = %q", got)
	}
	if ds.Records[2].Gender != Male || !ds.Records[2].Debtor {
		t.Fatalf("record 2 = %+v", ds.Records[2])
	}
	for i, want := range []string{"Dropout", "Graduate", "Dropout", "Enrolled"} {
		if ds.Records[i].Status != want {
			t.Fatalf("order broken at %d: %q", i, ds.Records[i].Status)
		}
	}
}

func TestLoadCSVSniffsSemicolon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(joinRows(";")), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	ds, err := LoadCSV(path, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if ds.Name != "data.csv" {
		t.Fatalf("name = %q", ds.Name)
	}
	assertFixture(t, ds)
}

func TestReadCSVCommaAndBlankLines(t *testing.T) {
	body := joinRows(",") + "\n\n"
	ds, err := ReadCSV("inline", strings.NewReader(body), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	assertFixture(t, ds)
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV("bad", strings.NewReader("Course,Status\n33,Dropout\n"), DefaultOptions())
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
	if !strings.Contains(err.Error(), "Gender") {
		t.Fatalf("err should name the missing column: %v", err)
	}
}

func TestReadCSVInvalidGender(t *testing.T) {
	bad := append([]string(nil), rows[0]...)
	bad[2] = "2"
	body := strings.Join(header, ",") + "\n" + strings.Join(bad, ",") + "\n"
	_, err := ReadCSV("bad", strings.NewReader(body), DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected row 2 gender error, got %v", err)
	}
}

func TestWriteCSVReadsBack(t *testing.T) {
	ds, err := ReadCSV("inline", strings.NewReader(joinRows(",")), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	var buf strings.Builder
	if err := WriteCSV(&buf, ds.Header, ds.Records[1:3]); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != strings.Join(header, ",") {
		t.Fatalf("output = %q", buf.String())
	}
	if lines[1] != "1,9500,0,1,0,1,142.5,14,13.666667,6,6,19,Graduate" {
		t.Fatalf("row = %q", lines[1])
	}
	back, err := ReadCSV("back", strings.NewReader(buf.String()), DefaultOptions())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if back.Len() != 2 || back.Records[1].Gender != Male || !back.Records[1].Debtor {
		t.Fatalf("read back = %+v", back.Records)
	}
}

func TestRecordAccessors(t *testing.T) {
	ds, err := ReadCSV("inline", strings.NewReader(joinRows(",")), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	r := ds.Records[0]
	cases := map[string]string{
		FieldStatus:      "Dropout",
		FieldCourse:      "33",
		FieldGender:      "male",
		FieldDebtor:      "0",
		FieldAge:         "20",
		"Marital_status": "1",
	}
	for field, want := range cases {
		got, ok := r.Category(field)
		if !ok || got != want {
			t.Fatalf("Category(%s) = %q,%v want %q", field, got, ok, want)
		}
	}
	if _, ok := r.Category("Nope"); ok {
		t.Fatalf("unknown field should not resolve")
	}
	if x, ok := r.Number(FieldTuitionUpToDate); !ok || x != 1 {
		t.Fatalf("Number(tuition) = %v,%v", x, ok)
	}
	if x, ok := r.Number("Marital_status"); !ok || x != 1 {
		t.Fatalf("Number(extra) = %v,%v", x, ok)
	}
	vars := r.Vars()
	if vars[FieldStatus] != "Dropout" || vars[FieldCourse] != 33 || vars[FieldGender] != "male" {
		t.Fatalf("vars = %#v", vars)
	}
}

func TestParseNumericSeparators(t *testing.T) {
	cases := []struct {
		in   string
		dec  rune
		want float64
	}{
		{"12.5", 0, 12.5},
		{"12,5", 0, 12.5},
		{"1.234,5", 0, 1234.5},
		{"1,234.5", 0, 1234.5},
		{"1.234", ',', 1234},
	}
	for _, c := range cases {
		got, ok := parseNumeric(c.in, c.dec)
		if !ok || got != c.want {
			t.Fatalf("parseNumeric(%q,%q) = %v,%v want %v", c.in, c.dec, got, ok, c.want)
		}
	}
	if _, ok := parseNumeric("abc", 0); ok {
		t.Fatalf("expected failure for non-numeric input")
	}
}

func TestCacheLoadsOnce(t *testing.T) {
	calls := 0
	c := NewCache(func() (*Dataset, error) {
		calls++
		return &Dataset{Name: "x"}, nil
	})
	for i := 0; i < 3; i++ {
		ds, err := c.Get()
		if err != nil || ds.Name != "x" {
			t.Fatalf("Get = %v, %v", ds, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}
}

func TestLoadXLSX(t *testing.T) {
	path := writeWorkbook(t)
	opt := DefaultOptions()
	opt.SheetName = "Students"
	ds, err := Load(context.Background(), path, opt)
	if err != nil {
		t.Fatalf("LoadXLSX by name: %v", err)
	}
	assertFixture(t, ds)

	opt = DefaultOptions()
	opt.SheetIndex = 1
	ds, err = LoadXLSX(path, opt)
	if err != nil {
		t.Fatalf("LoadXLSX by index: %v", err)
	}
	assertFixture(t, ds)

	opt.SheetName = "Missing"
	if _, err := LoadXLSX(path, opt); err == nil || !strings.Contains(err.Error(), "Available sheets: Students") {
		t.Fatalf("expected sheet-not-found error, got %v", err)
	}
}

// writeWorkbook builds a minimal single-sheet workbook. Header cells use the
// shared string table, data cells use inline strings or plain values.
func writeWorkbook(t *testing.T) string {
	t.Helper()
	var shared strings.Builder
	shared.WriteString(`<?xml version="1.0" encoding="UTF-8"?><sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">`)
	for _, h := range header {
		shared.WriteString("<si><t>" + h + "</t></si>")
	}
	shared.WriteString("</sst>")

	var sheet strings.Builder
	sheet.WriteString(`<?xml version="1.0" encoding="UTF-8"?><worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`)
	sheet.WriteString(`<row r="1">`)
	for i := range header {
		fmt.Fprintf(&sheet, `<c r="%s1" t="s"><v>%d</v></c>`, colName(i), i)
	}
	sheet.WriteString(`</row>`)
	for ri, r := range rows {
		fmt.Fprintf(&sheet, `<row r="%d">`, ri+2)
		for ci, v := range r {
			ref := fmt.Sprintf("%s%d", colName(ci), ri+2)
			if header[ci] == FieldStatus {
				fmt.Fprintf(&sheet, `<c r="%s" t="inlineStr"><is><t>%s</t></is></c>`, ref, v)
				continue
			}
			fmt.Fprintf(&sheet, `<c r="%s"><v>%s</v></c>`, ref, v)
		}
		sheet.WriteString(`</row>`)
	}
	sheet.WriteString(`</sheetData></worksheet>`)

	files := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0" encoding="UTF-8"?><workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="Students" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/sharedStrings.xml":     shared.String(),
		"xl/worksheets/sheet1.xml": sheet.String(),
	}
	path := filepath.Join(t.TempDir(), "students.xlsx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create xlsx: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close xlsx: %v", err)
	}
	return path
}

func colName(i int) string {
	name := ""
	for i++; i > 0; i = (i - 1) / 26 {
		name = string(rune('A'+(i-1)%26)) + name
	}
	return name
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	cols := make([]string, len(header))
	marks := make([]string, len(header))
	for i, h := range header {
		typ := "REAL"
		if h == FieldStatus {
			typ = "TEXT"
		}
		cols[i] = fmt.Sprintf("%q %s", h, typ)
		marks[i] = "?"
	}
	if _, err := db.Exec("CREATE TABLE students (" + strings.Join(cols, ", ") + ")"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	ins := "INSERT INTO students VALUES (" + strings.Join(marks, ", ") + ")"
	for _, r := range rows {
		args := make([]any, len(r))
		for i, v := range r {
			args[i] = v
		}
		if _, err := db.Exec(ins, args...); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ds, err := Load(context.Background(), path, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadSQLite: %v", err)
	}
	if ds.Name != "students.db:students" {
		t.Fatalf("name = %q", ds.Name)
	}
	assertFixture(t, ds)

	opt := DefaultOptions()
	opt.Table = "nope"
	if _, err := LoadSQLite(context.Background(), path, opt); err == nil {
		t.Fatalf("expected error for missing table")
	}
}
