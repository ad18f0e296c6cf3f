package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is the Kind of a SchemaError raised when a required
// logical column has no matching alias in the raw table.
var ErrMissingColumn = errors.New("missing column")

// Error reports a schema mismatch between a raw table and its TableSpec.
type Error struct {
	Kind    error
	Table   string
	Column  string
	Aliases []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("schema: table %s: %v: %s (tried %s)",
		e.Table, e.Kind, e.Column, strings.Join(e.Aliases, ", "))
}

// Unwrap exposes Kind so callers can use errors.Is(err, ErrMissingColumn).
func (e *Error) Unwrap() error { return e.Kind }
