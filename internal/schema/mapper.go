package schema

import (
	"strings"

	"healthetl/internal/table"
	"healthetl/pkg/records"
)

// Resolution records, per logical column, which source column fed it. An
// empty value means the column was optional and absent.
type Resolution map[string]string

// Resolved reports whether the logical column was found in the raw table.
func (r Resolution) Resolved(name string) bool { return r[name] != "" }

// Map renames and selects the raw table's columns according to spec.
//
// Each logical column takes the first alias present in raw.Columns (exact,
// case-sensitive match). A missing required column fails with *Error; a
// missing optional column is filled with nil. Output columns follow the
// declaration order of spec. String and category cells are trimmed and empty
// strings become nil; numeric cells are left for the coercer. raw is not
// modified.
func Map(raw *table.Table, spec TableSpec) (*table.Table, Resolution, error) {
	present := make(map[string]struct{}, len(raw.Columns))
	for _, c := range raw.Columns {
		present[c] = struct{}{}
	}

	res := make(Resolution, len(spec.Columns))
	for _, col := range spec.Columns {
		cands := col.Candidates()
		for _, alias := range cands {
			if _, ok := present[alias]; ok {
				res[col.Name] = alias
				break
			}
		}
		if res[col.Name] == "" && col.Required {
			return nil, nil, &Error{
				Kind:    ErrMissingColumn,
				Table:   spec.Name,
				Column:  col.Name,
				Aliases: cands,
			}
		}
	}

	out := table.New(spec.Name, spec.Role, spec.ColumnNames())
	out.Rows = make([]records.Record, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		nr := make(records.Record, len(spec.Columns))
		for _, col := range spec.Columns {
			src := res[col.Name]
			if src == "" {
				nr[col.Name] = nil
				continue
			}
			v := row[src]
			if !col.Type.Numeric() {
				v = textCell(v)
			}
			nr[col.Name] = v
		}
		out.Rows = append(out.Rows, nr)
	}
	return out, res, nil
}

// textCell renders a raw cell as a trimmed string, nil when empty.
func textCell(v any) any {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(table.Format(v))
	if s == "" {
		return nil
	}
	return s
}
