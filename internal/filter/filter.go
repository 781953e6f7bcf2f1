// Package filter narrows a dataset with conjunctive equality constraints.
package filter

import (
	"strings"

	"github.com/KaramelBytes/studash/internal/catalog"
	"github.com/KaramelBytes/studash/internal/dataset"
	"github.com/hashicorp/go-bexpr"
)

// Gender labels accepted by a Selection. Both English and the Indonesian
// labels map onto the same table.
const (
	GenderAll    = ""
	GenderMale   = "male"
	GenderFemale = "female"
)

var genderLabels = map[string]*dataset.Gender{
	"":          nil,
	"all":       nil,
	"semua":     nil,
	"male":      ptr(dataset.Male),
	"m":         ptr(dataset.Male),
	"laki-laki": ptr(dataset.Male),
	"female":    ptr(dataset.Female),
	"f":         ptr(dataset.Female),
	"perempuan": ptr(dataset.Female),
}

func ptr(g dataset.Gender) *dataset.Gender { return &g }

// Selection is the set of active constraints. The zero value matches every
// record; an empty list or GenderAll removes that predicate.
type Selection struct {
	// Statuses keeps records whose Status is any of the listed values.
	Statuses []string `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	// Gender is one of GenderAll, GenderMale, GenderFemale.
	Gender string `json:"gender,omitempty" yaml:"gender,omitempty"`
	// Courses are catalog display names (or codes).
	Courses []string `json:"courses,omitempty" yaml:"courses,omitempty"`
	// Where is an optional boolean expression over record fields,
	// e.g. `Debtor == true and Status != "Graduate"`.
	Where string `json:"where,omitempty" yaml:"where,omitempty"`
}

// IsEmpty reports whether the selection has no active constraint.
func (s Selection) IsEmpty() bool {
	g := genderLabels[normalize(s.Gender)]
	return len(s.Statuses) == 0 && g == nil && len(s.Courses) == 0 && strings.TrimSpace(s.Where) == ""
}

// Matcher is a compiled Selection.
type Matcher struct {
	statuses map[string]bool
	gender   *dataset.Gender
	courses  map[int]bool
	where    *bexpr.Evaluator
	expr     string
}

// Compile validates every label of sel and resolves course names through cat.
func Compile(sel Selection, cat *catalog.Catalog) (*Matcher, error) {
	m := &Matcher{}
	if len(sel.Statuses) > 0 {
		m.statuses = make(map[string]bool, len(sel.Statuses))
		for _, s := range sel.Statuses {
			canon, ok := canonicalStatus(s)
			if !ok {
				return nil, &LookupError{Kind: "status", Value: s}
			}
			m.statuses[canon] = true
		}
	}
	g, ok := genderLabels[normalize(sel.Gender)]
	if !ok {
		return nil, &LookupError{Kind: "gender", Value: sel.Gender}
	}
	m.gender = g
	if len(sel.Courses) > 0 {
		if cat == nil {
			cat = catalog.Default()
		}
		m.courses = make(map[int]bool, len(sel.Courses))
		for _, name := range sel.Courses {
			code, ok := cat.Code(name)
			if !ok {
				return nil, &LookupError{Kind: "course", Value: name}
			}
			m.courses[code] = true
		}
	}
	if expr := strings.TrimSpace(sel.Where); expr != "" {
		ev, err := bexpr.CreateEvaluator(expr)
		if err != nil {
			return nil, &ExprError{Expr: expr, Err: err}
		}
		m.where, m.expr = ev, expr
	}
	return m, nil
}

// Match reports whether r satisfies every active constraint.
func (m *Matcher) Match(r dataset.Record) (bool, error) {
	if m.statuses != nil && !m.statuses[r.Status] {
		return false, nil
	}
	if m.gender != nil && r.Gender != *m.gender {
		return false, nil
	}
	if m.courses != nil && !m.courses[r.Course] {
		return false, nil
	}
	if m.where != nil {
		ok, err := m.where.Evaluate(r.Vars())
		if err != nil {
			return false, &ExprError{Expr: m.expr, Err: err}
		}
		return ok, nil
	}
	return true, nil
}

// Apply returns the records matching sel, preserving order. The input slice
// is never modified; an empty result is valid.
func Apply(records []dataset.Record, sel Selection, cat *catalog.Catalog) ([]dataset.Record, error) {
	m, err := Compile(sel, cat)
	if err != nil {
		return nil, err
	}
	return m.Apply(records)
}

// Apply filters records with a compiled matcher.
func (m *Matcher) Apply(records []dataset.Record) ([]dataset.Record, error) {
	out := make([]dataset.Record, 0, len(records))
	for _, r := range records {
		ok, err := m.Match(r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func canonicalStatus(s string) (string, bool) {
	for _, st := range dataset.Statuses {
		if strings.EqualFold(strings.TrimSpace(s), st) {
			return st, true
		}
	}
	return "", false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
