package aggregate

import (
	"fmt"

	"github.com/KaramelBytes/studash/internal/dataset"
)

// TotalLabel names the pseudo-group holding the ungrouped means.
const TotalLabel = "Total"

// MeanRow holds the means of each value field for one group.
type MeanRow struct {
	Group   string    `json:"group"`
	Count   int       `json:"count"`
	Means   []float64 `json:"means"`
	IsTotal bool      `json:"is_total,omitempty"`
}

// MeanTable is the result of MeanBy. Groups only exist when they hold at
// least one record, so no cell is ever undefined. An empty input yields a
// table with no rows at all.
type MeanTable struct {
	GroupKey string    `json:"group_key"`
	Fields   []string  `json:"fields"`
	Rows     []MeanRow `json:"rows"`
}

// Empty reports whether the table was computed over zero records.
func (t *MeanTable) Empty() bool { return t == nil || len(t.Rows) == 0 }

// Total returns the pseudo-group row.
func (t *MeanTable) Total() (MeanRow, bool) {
	if t.Empty() {
		return MeanRow{}, false
	}
	last := t.Rows[len(t.Rows)-1]
	return last, last.IsTotal
}

// Groups returns the real groups, without the Total row.
func (t *MeanTable) Groups() []MeanRow {
	if t.Empty() {
		return nil
	}
	if _, ok := t.Total(); ok {
		return t.Rows[:len(t.Rows)-1]
	}
	return t.Rows
}

// Get returns the mean of field for group.
func (t *MeanTable) Get(group, field string) (float64, bool) {
	col := indexOf(t.Fields, field)
	if col < 0 {
		return 0, false
	}
	for _, r := range t.Rows {
		if r.Group == group && !r.IsTotal {
			return r.Means[col], true
		}
	}
	return 0, false
}

// LongRow is one (group, field, mean) cell.
type LongRow struct {
	Group string  `json:"group"`
	Field string  `json:"field"`
	Mean  float64 `json:"mean"`
}

// Long unpivots the table into one row per group and field, the shape a
// line chart of "mean per semester, one line per group" consumes.
func (t *MeanTable) Long() []LongRow {
	if t.Empty() {
		return nil
	}
	out := make([]LongRow, 0, len(t.Rows)*len(t.Fields))
	for j, f := range t.Fields {
		for _, r := range t.Rows {
			if r.IsTotal {
				continue
			}
			out = append(out, LongRow{Group: r.Group, Field: f, Mean: r.Means[j]})
		}
	}
	return out
}

// MeanBy groups records by groupKey and averages each value field, appending
// a TotalLabel row with the means over all records. Every value field must be
// numeric on every record.
func MeanBy(records []dataset.Record, groupKey string, valueFields []string) (*MeanTable, error) {
	if len(valueFields) == 0 {
		return nil, fmt.Errorf("mean by: no value fields")
	}
	t := &MeanTable{GroupKey: groupKey, Fields: append([]string(nil), valueFields...)}
	if len(records) == 0 {
		return t, nil
	}
	type acc struct {
		n   int
		sum []float64
	}
	var order []string
	groups := map[string]*acc{}
	total := &acc{sum: make([]float64, len(valueFields))}
	for i, r := range records {
		g, ok := r.Category(groupKey)
		if !ok {
			return nil, fmt.Errorf("mean by: record %d: %w: %s", i, ErrUnknownField, groupKey)
		}
		a := groups[g]
		if a == nil {
			a = &acc{sum: make([]float64, len(valueFields))}
			groups[g] = a
			order = append(order, g)
		}
		for j, f := range valueFields {
			x, ok := r.Number(f)
			if !ok {
				return nil, fmt.Errorf("mean by: record %d: %w: %s is not numeric", i, ErrUnknownField, f)
			}
			a.sum[j] += x
			total.sum[j] += x
		}
		a.n++
		total.n++
	}
	row := func(name string, a *acc, isTotal bool) MeanRow {
		means := make([]float64, len(a.sum))
		for j, s := range a.sum {
			means[j] = s / float64(a.n)
		}
		return MeanRow{Group: name, Count: a.n, Means: means, IsTotal: isTotal}
	}
	for _, g := range order {
		t.Rows = append(t.Rows, row(g, groups[g], false))
	}
	t.Rows = append(t.Rows, row(TotalLabel, total, true))
	return t, nil
}

// Mean averages one numeric field. It returns ErrEmptyGroup for no records.
func Mean(records []dataset.Record, field string) (float64, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("mean of %s: %w", field, ErrEmptyGroup)
	}
	var sum float64
	for i, r := range records {
		x, ok := r.Number(field)
		if !ok {
			return 0, fmt.Errorf("mean of %s: record %d: %w", field, i, ErrUnknownField)
		}
		sum += x
	}
	return sum / float64(len(records)), nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
