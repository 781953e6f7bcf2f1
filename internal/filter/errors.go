package filter

import (
	"errors"
	"fmt"
)

// ErrLookup matches any LookupError via errors.Is.
var ErrLookup = errors.New("lookup failed")

// LookupError indicates a selected label is outside its domain
// (status, gender or course catalog).
type LookupError struct {
	Kind  string // "status", "gender" or "course"
	Value string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Kind, e.Value)
}

func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// ExprError wraps a --where expression that failed to parse or evaluate.
type ExprError struct {
	Expr string
	Err  error
}

func (e *ExprError) Error() string {
	return fmt.Sprintf("expression %q: %v", e.Expr, e.Err)
}

func (e *ExprError) Unwrap() error { return e.Err }
