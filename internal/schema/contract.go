// Package schema declares the logical shape of each source table and maps raw
// tables onto it.
//
// A TableSpec lists logical columns in output order. Each ColumnSpec carries
// the source header names it accepts (Aliases), so naming drift between dataset
// releases ("GDP Per Capita (USD)" vs "GDP_per_capita") is handled by
// configuration instead of code.
package schema

import (
	"fmt"
	"strings"

	"healthetl/internal/table"
)

// Type is the semantic type of a logical column.
type Type string

const (
	String   Type = "string"
	Integer  Type = "integer"
	Float    Type = "float"
	Category Type = "category"
)

// Numeric reports whether values of this type are produced by the coercer.
func (t Type) Numeric() bool { return t == Integer || t == Float }

func (t Type) valid() bool {
	switch t {
	case String, Integer, Float, Category:
		return true
	}
	return false
}

// ColumnSpec declares one logical column.
type ColumnSpec struct {
	Name     string   `json:"name" koanf:"name"`
	Aliases  []string `json:"aliases,omitempty" koanf:"aliases"`
	Type     Type     `json:"type" koanf:"type"`
	Required bool     `json:"required,omitempty" koanf:"required"`
}

// Candidates returns the source names tried for this column, in order. The
// logical name is always the last candidate, which makes mapping an
// already-normalized table a no-op.
func (c ColumnSpec) Candidates() []string {
	out := make([]string, 0, len(c.Aliases)+1)
	seen := make(map[string]struct{}, len(c.Aliases)+1)
	for _, a := range append(append([]string(nil), c.Aliases...), c.Name) {
		if _, dup := seen[a]; dup || a == "" {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// TableSpec is the declared schema of one source table.
type TableSpec struct {
	Name    string       `json:"name" koanf:"name"`
	Role    table.Role   `json:"role" koanf:"role"`
	Columns []ColumnSpec `json:"columns" koanf:"columns"`
}

// ColumnNames returns the logical column names in declaration order.
func (s TableSpec) ColumnNames() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a logical column by name.
func (s TableSpec) Column(name string) (ColumnSpec, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// Validate checks the spec for declaration mistakes.
func (s TableSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("schema: table name must not be empty")
	}
	switch s.Role {
	case table.RoleFact, table.RoleDimension:
	default:
		return fmt.Errorf("schema: table %s: unknown role %q", s.Name, s.Role)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema: table %s: at least one column is required", s.Name)
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for i, c := range s.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("schema: table %s: column %d has empty name", s.Name, i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("schema: table %s: duplicate column %q", s.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
		for _, a := range c.Aliases {
			if strings.TrimSpace(a) == "" {
				return fmt.Errorf("schema: table %s: column %s: empty alias", s.Name, c.Name)
			}
		}
		if !c.Type.valid() {
			return fmt.Errorf("schema: table %s: column %s: unknown type %q", s.Name, c.Name, c.Type)
		}
	}
	return nil
}
