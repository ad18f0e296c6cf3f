// Package transformer defines the row-batch transform contract used by the
// per-source cleaning stage. Implementations live in transformer/builtin.
package transformer

import "healthetl/pkg/records"

// Transformer rewrites or filters a batch of records. Implementations may
// modify the records they receive; callers hand them cloned rows.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// Func adapts a plain function to Transformer.
type Func func([]records.Record) []records.Record

// Apply calls f.
func (f Func) Apply(in []records.Record) []records.Record { return f(in) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs each transformer in order, feeding the output of one into the
// next.
func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
