package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAmbiguousKey is the Kind of an Error raised when a join key occurs more
// than once on a side that must be unique.
var ErrAmbiguousKey = errors.New("ambiguous key")

// Error reports a join that cannot be performed without fan-out.
type Error struct {
	Kind  error
	Table string
	Key   []string // column names
	Value []string // offending normalized key
}

func (e *Error) Error() string {
	return fmt.Sprintf("reconcile: table %s: %v on (%s) = (%s)",
		e.Table, e.Kind, strings.Join(e.Key, ", "), strings.Join(e.Value, ", "))
}

// Unwrap exposes Kind for errors.Is(err, ErrAmbiguousKey).
func (e *Error) Unwrap() error { return e.Kind }
