package aggregate

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/studash/internal/dataset"
)

// CorrMatrix is a symmetric Pearson correlation matrix. A pair involving a
// zero-variance field has no defined correlation; its cell holds 0 and
// Defined reports false. The diagonal is 1 for every non-constant field.
type CorrMatrix struct {
	Fields  []string    `json:"fields"`
	Values  [][]float64 `json:"values"` // row-major, Values[i][j]
	Samples int         `json:"samples"`
	defined [][]bool
}

// Defined reports whether cell (i, j) carries a real correlation.
func (m *CorrMatrix) Defined(i, j int) bool { return m.defined[i][j] }

// At looks a cell up by field names.
func (m *CorrMatrix) At(a, b string) (float64, bool) {
	i, j := indexOf(m.Fields, a), indexOf(m.Fields, b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], m.defined[i][j]
}

// Pair is one off-diagonal cell.
type Pair struct {
	A, B string
	R    float64
}

// Pairs lists the defined upper-triangle cells.
func (m *CorrMatrix) Pairs() []Pair {
	var out []Pair
	for i := range m.Fields {
		for j := i + 1; j < len(m.Fields); j++ {
			if m.defined[i][j] {
				out = append(out, Pair{A: m.Fields[i], B: m.Fields[j], R: m.Values[i][j]})
			}
		}
	}
	return out
}

// Correlation computes pairwise Pearson correlation of the given numeric
// fields over records. Fewer than two records yields ErrEmptyGroup.
func Correlation(records []dataset.Record, fields []string) (*CorrMatrix, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("correlation: no fields")
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("correlation over %d records: %w", len(records), ErrEmptyGroup)
	}
	k, n := len(fields), float64(len(records))
	cols := make([][]float64, k)
	mean := make([]float64, k)
	for j, f := range fields {
		cols[j] = make([]float64, len(records))
		for i, r := range records {
			x, ok := r.Number(f)
			if !ok {
				return nil, fmt.Errorf("correlation: record %d: %w: %s is not numeric", i, ErrUnknownField, f)
			}
			cols[j][i] = x
			mean[j] += x
		}
		mean[j] /= n
	}
	// centered sums of squares and cross products
	ss := make([]float64, k)
	for j := range cols {
		for _, x := range cols[j] {
			d := x - mean[j]
			ss[j] += d * d
		}
	}
	m := &CorrMatrix{
		Fields:  append([]string(nil), fields...),
		Values:  make([][]float64, k),
		Samples: len(records),
		defined: make([][]bool, k),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, k)
		m.defined[i] = make([]bool, k)
	}
	for a := 0; a < k; a++ {
		if ss[a] > 0 {
			m.Values[a][a] = 1
			m.defined[a][a] = true
		}
		for b := a + 1; b < k; b++ {
			if ss[a] == 0 || ss[b] == 0 {
				continue
			}
			var sxy float64
			for i := range cols[a] {
				sxy += (cols[a][i] - mean[a]) * (cols[b][i] - mean[b])
			}
			r := sxy / math.Sqrt(ss[a]*ss[b])
			if r > 1 {
				r = 1
			} else if r < -1 {
				r = -1
			}
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}
			m.Values[a][b], m.Values[b][a] = r, r
			m.defined[a][b], m.defined[b][a] = true, true
		}
	}
	return m, nil
}
