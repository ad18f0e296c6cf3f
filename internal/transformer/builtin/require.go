// Package builtin contains the reusable row transformers of the cleaning
// stage: Normalize, Coerce, Keep and Require.
package builtin

import "healthetl/pkg/records"

// Require removes any record with a null value in one of Fields. It is the
// only transformer that drops rows for missing data.
type Require struct {
	Fields []string
	OnDrop func(records.Record) // optional sink
}

// Apply filters in place and returns the surviving records.
func (r Require) Apply(in []records.Record) []records.Record {
	if len(r.Fields) == 0 {
		return in
	}
	out := in[:0]
	for _, rec := range in {
		ok := true
		for _, f := range r.Fields {
			if rec.IsNull(f) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, rec)
		} else if r.OnDrop != nil {
			r.OnDrop(rec)
		}
	}
	return out
}
