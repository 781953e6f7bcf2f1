// Package aggregate computes the derived tables of a filtered dataset:
// group counts, group means, Pearson correlations and top-N rankings.
// Every function is a pure recomputation over its input.
package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/studash/internal/dataset"
)

var (
	// ErrEmptyGroup is returned for arithmetic over zero records, or for a
	// correlation over fewer than two.
	ErrEmptyGroup = errors.New("empty group")
	// ErrUnknownField is returned when a record does not carry the field.
	ErrUnknownField = errors.New("unknown field")
)

// CountRow is one key combination and its count.
type CountRow struct {
	Key   []string `json:"key"`
	Count int      `json:"count"`
}

// CountTable holds group counts in discovery order.
type CountTable struct {
	Fields []string   `json:"fields"`
	Rows   []CountRow `json:"rows"`
	Total  int        `json:"total"`
}

// CountBy groups records by one or two categorical fields. Groups appear in
// the order their first record was seen.
func CountBy(records []dataset.Record, keys ...string) (*CountTable, error) {
	if len(keys) == 0 || len(keys) > 2 {
		return nil, fmt.Errorf("count by: want 1 or 2 group keys, got %d", len(keys))
	}
	t := &CountTable{Fields: append([]string(nil), keys...)}
	index := map[string]int{}
	key := make([]string, len(keys))
	for i, r := range records {
		for j, f := range keys {
			v, ok := r.Category(f)
			if !ok {
				return nil, fmt.Errorf("count by: record %d: %w: %s", i, ErrUnknownField, f)
			}
			key[j] = v
		}
		k := joinKey(key)
		pos, ok := index[k]
		if !ok {
			pos = len(t.Rows)
			index[k] = pos
			t.Rows = append(t.Rows, CountRow{Key: append([]string(nil), key...)})
		}
		t.Rows[pos].Count++
		t.Total++
	}
	return t, nil
}

// Get returns the count of a key combination, 0 if absent.
func (t *CountTable) Get(key ...string) int {
	k := joinKey(key)
	for _, r := range t.Rows {
		if joinKey(r.Key) == k {
			return r.Count
		}
	}
	return 0
}

// Len returns the number of groups.
func (t *CountTable) Len() int { return len(t.Rows) }

// Values returns the distinct values of dimension dim in discovery order.
func (t *CountTable) Values(dim int) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range t.Rows {
		if dim >= len(r.Key) || seen[r.Key[dim]] {
			continue
		}
		seen[r.Key[dim]] = true
		out = append(out, r.Key[dim])
	}
	return out
}

// Collapse sums a two-key table onto dimension dim, keeping discovery order.
func (t *CountTable) Collapse(dim int) *CountTable {
	out := &CountTable{Total: t.Total}
	if dim < len(t.Fields) {
		out.Fields = []string{t.Fields[dim]}
	}
	index := map[string]int{}
	for _, r := range t.Rows {
		if dim >= len(r.Key) {
			continue
		}
		k := r.Key[dim]
		pos, ok := index[k]
		if !ok {
			pos = len(out.Rows)
			index[k] = pos
			out.Rows = append(out.Rows, CountRow{Key: []string{k}})
		}
		out.Rows[pos].Count += r.Count
	}
	return out
}

func joinKey(parts []string) string { return strings.Join(parts, "\x1f") }
