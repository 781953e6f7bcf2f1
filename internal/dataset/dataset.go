package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Options controls how a dataset source is read.
type Options struct {
	// Delimiter for CSV. If 0, sniffs the header line among ',', ';', '\t'.
	Delimiter rune
	// DecimalSeparator for numeric columns. If 0, auto-detect per value.
	DecimalSeparator rune
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
	// Table is the SQLite table holding the records.
	Table string
}

// DefaultOptions returns reasonable defaults for loading a dataset.
func DefaultOptions() Options {
	return Options{SheetIndex: 1, Table: "students"}
}

// Dataset is an insertion-ordered, read-only sequence of records.
type Dataset struct {
	Name    string
	Header  []string
	Records []Record
	// Warnings collects non-fatal ingestion notes.
	Warnings []string
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// ErrMissingColumn is returned when a source lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Load reads a dataset, choosing the reader by file extension.
func Load(ctx context.Context, path string, opt Options) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return LoadXLSX(path, opt)
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(ctx, path, opt)
	default:
		return LoadCSV(path, opt)
	}
}

// rowSource yields raw rows; it returns io.EOF when exhausted.
type rowSource func() ([]string, error)

// decode builds a Dataset from a header and a stream of raw rows.
func decode(name string, header []string, next rowSource, opt Options) (*Dataset, error) {
	idx := make(map[string]int, len(header))
	clean := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		clean[i] = h
		idx[strings.ToLower(h)] = i
	}
	pos := make(map[string]int, len(RequiredFields))
	var missing []string
	for _, f := range RequiredFields {
		i, ok := idx[strings.ToLower(f)]
		if !ok {
			missing = append(missing, f)
			continue
		}
		pos[f] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	known := make(map[int]bool, len(pos))
	for _, i := range pos {
		known[i] = true
	}

	ds := &Dataset{Name: name, Header: clean}
	for line := 2; ; line++ {
		row, err := next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(row) {
			continue
		}
		rec, err := decodeRow(row, pos, opt)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		for i, v := range row {
			if known[i] || i >= len(clean) {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = make(map[string]string, len(clean)-len(pos))
			}
			rec.Extra[clean[i]] = strings.TrimSpace(v)
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

func decodeRow(row []string, pos map[string]int, opt Options) (Record, error) {
	cell := func(f string) string {
		i := pos[f]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	var r Record
	r.Status = cell(FieldStatus)

	course, ok := parseNumeric(cell(FieldCourse), opt.DecimalSeparator)
	if !ok {
		return r, fmt.Errorf("%s: invalid course code %q", FieldCourse, cell(FieldCourse))
	}
	r.Course = int(course)

	g, ok := ParseGender(cell(FieldGender))
	if !ok {
		return r, fmt.Errorf("%s: invalid value %q (want 0 or 1)", FieldGender, cell(FieldGender))
	}
	r.Gender = g

	flags := []struct {
		field string
		dst   *bool
	}{
		{FieldScholarship, &r.ScholarshipHolder},
		{FieldDebtor, &r.Debtor},
		{FieldTuitionUpToDate, &r.TuitionUpToDate},
	}
	for _, f := range flags {
		b, err := parseFlag(cell(f.field))
		if err != nil {
			return r, fmt.Errorf("%s: %w", f.field, err)
		}
		*f.dst = b
	}

	nums := []struct {
		field string
		dst   *float64
	}{
		{FieldAdmissionGrade, &r.AdmissionGrade},
		{FieldSem1Grade, &r.Sem1Grade},
		{FieldSem2Grade, &r.Sem2Grade},
		{FieldSem1Approved, &r.Sem1Approved},
		{FieldSem2Approved, &r.Sem2Approved},
		{FieldAge, &r.Age},
	}
	for _, n := range nums {
		x, ok := parseNumeric(cell(n.field), opt.DecimalSeparator)
		if !ok {
			return r, fmt.Errorf("%s: invalid number %q", n.field, cell(n.field))
		}
		*n.dst = x
	}
	return r, nil
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "1.0", "true", "yes":
		return true, nil
	case "0", "0.0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid flag %q (want 0 or 1)", s)
}

// parseNumeric accepts '.' or ',' decimals. If dec is 0 the separator is
// inferred from the last one present.
func parseNumeric(s string, dec rune) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" {
		return 0, false
	}
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos > dpos {
			dec = ','
		} else {
			dec = '.'
		}
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Cache loads a dataset once per process and hands out the same value afterwards.
type Cache struct {
	once sync.Once
	load func() (*Dataset, error)
	ds   *Dataset
	err  error
}

// NewCache wraps a loader.
func NewCache(load func() (*Dataset, error)) *Cache {
	return &Cache{load: load}
}

// Get returns the memoized dataset, loading it on first use.
func (c *Cache) Get() (*Dataset, error) {
	c.once.Do(func() {
		c.ds, c.err = c.load()
	})
	return c.ds, c.err
}
