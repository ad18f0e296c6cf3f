// Package records defines the row representation shared by every stage of the
// pipeline.
package records

// Record is a single row keyed by column name. A nil value is a null cell.
//
// After coercion a cell holds one of: nil, string, int64 or float64.
type Record map[string]any

// Clone returns a shallow copy of r. Cell values are immutable scalars, so a
// shallow copy is enough to keep stages from observing each other's writes.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsNull reports whether the named cell is absent or nil.
func (r Record) IsNull(field string) bool {
	v, ok := r[field]
	return !ok || v == nil
}
