package aggregate

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/studash/internal/dataset"
)

// TopN returns the n rows with the largest counts, descending. Equal counts
// keep the table's discovery order, so the first-seen group wins a tie.
func TopN(t *CountTable, n int) []CountRow {
	if t == nil || n <= 0 {
		return nil
	}
	rows := make([]CountRow, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Keys extracts the first key component of each row.
func Keys(rows []CountRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if len(r.Key) > 0 {
			out = append(out, r.Key[0])
		}
	}
	return out
}

// Restrict keeps the records whose field value is one of values, in order.
func Restrict(records []dataset.Record, field string, values []string) ([]dataset.Record, error) {
	keep := make(map[string]bool, len(values))
	for _, v := range values {
		keep[v] = true
	}
	out := make([]dataset.Record, 0, len(records))
	for i, r := range records {
		v, ok := r.Category(field)
		if !ok {
			return nil, fmt.Errorf("restrict: record %d: %w: %s", i, ErrUnknownField, field)
		}
		if keep[v] {
			out = append(out, r)
		}
	}
	return out, nil
}

// TopGroups counts records by groupField, keeps the n largest groups, and
// counts the surviving records by (groupField, byField). The returned
// ranking lists the winning groups in rank order.
func TopGroups(records []dataset.Record, groupField, byField string, n int) (*CountTable, []CountRow, error) {
	totals, err := CountBy(records, groupField)
	if err != nil {
		return nil, nil, err
	}
	top := TopN(totals, n)
	kept, err := Restrict(records, groupField, Keys(top))
	if err != nil {
		return nil, nil, err
	}
	t, err := CountBy(kept, groupField, byField)
	if err != nil {
		return nil, nil, err
	}
	return t, top, nil
}
