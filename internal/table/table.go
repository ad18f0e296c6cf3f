// Package table holds the in-memory table value passed between pipeline
// stages. A Table is treated as immutable once handed to the next stage: each
// stage clones what it needs and returns a new Table.
package table

import (
	"fmt"
	"math"
	"strconv"

	"healthetl/pkg/records"
)

// Role distinguishes observation tables from entity tables.
type Role string

const (
	// RoleRaw marks a table straight from the I/O layer.
	RoleRaw Role = ""
	// RoleFact is one row per (entity, time) observation.
	RoleFact Role = "fact"
	// RoleDimension is one row per entity.
	RoleDimension Role = "dimension"
)

// Table is an ordered sequence of rows plus the ordered column set.
type Table struct {
	Name    string
	Role    Role
	Columns []string
	Rows    []records.Record
}

// New returns an empty table with the given columns.
func New(name string, role Role, columns []string) *Table {
	return &Table{
		Name:    name,
		Role:    role,
		Columns: append([]string(nil), columns...),
	}
}

// Len returns the number of rows; a nil table has zero rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is one of the table columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone deep-copies the column list and every row.
func (t *Table) Clone() *Table {
	out := New(t.Name, t.Role, t.Columns)
	out.Rows = make([]records.Record, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Project returns a new table restricted to cols, in that order. Columns the
// source does not carry are filled with nil.
func (t *Table) Project(cols []string) *Table {
	out := New(t.Name, t.Role, cols)
	out.Rows = make([]records.Record, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(records.Record, len(cols))
		for _, c := range cols {
			nr[c] = r[c]
		}
		out.Rows[i] = nr
	}
	return out
}

// Values returns the ordered cells of row i.
func (t *Table) Values(i int) []any {
	row := t.Rows[i]
	out := make([]any, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = row[c]
	}
	return out
}

// Float converts a numeric cell to float64. Strings are not parsed.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// Format renders a cell the way exports and key normalization expect:
// nil is "", integral floats lose the trailing ".0".
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	if f, ok := Float(v); ok {
		return Format(f)
	}
	return fmt.Sprint(v)
}
