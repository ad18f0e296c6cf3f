// Package derive computes analysis columns from reconciled rows and applies
// the final completeness filter.
package derive

import (
	"errors"
	"fmt"

	"healthetl/internal/table"
	"healthetl/internal/transformer/builtin"
	"healthetl/pkg/records"
)

// ErrUnknownColumn reports a rule or required column the table cannot supply.
var ErrUnknownColumn = errors.New("derive: unknown column")

// Stats counts rows around the required-column filter.
type Stats struct {
	In      int
	Out     int
	Dropped int
}

// Check verifies that every rule input and every required column is either a
// column of the table or the output of an earlier rule.
func Check(columns []string, rules []Rule, required []string) error {
	have := make(map[string]struct{}, len(columns)+len(rules))
	for _, c := range columns {
		have[c] = struct{}{}
	}
	for i, r := range rules {
		if v, ok := r.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
		for _, in := range r.Inputs() {
			if _, ok := have[in]; !ok {
				return fmt.Errorf("%w %q (input of rule %d, %s)", ErrUnknownColumn, in, i, r.Output())
			}
		}
		if r.Output() == "" {
			return fmt.Errorf("derive: rule %d has no output column", i)
		}
		have[r.Output()] = struct{}{}
	}
	for _, c := range required {
		if _, ok := have[c]; !ok {
			return fmt.Errorf("%w %q (required)", ErrUnknownColumn, c)
		}
	}
	return nil
}

// Columns returns the column set after rules run: the input columns followed
// by each new output in rule order.
func Columns(columns []string, rules []Rule) []string {
	out := append([]string(nil), columns...)
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		seen[c] = struct{}{}
	}
	for _, r := range rules {
		if _, ok := seen[r.Output()]; ok {
			continue
		}
		seen[r.Output()] = struct{}{}
		out = append(out, r.Output())
	}
	return out
}

// Apply runs rules over a copy of t in declared order, then drops rows with a
// nil in any required column. The input table is not modified.
func Apply(t *table.Table, rules []Rule, required []string) (*table.Table, Stats, error) {
	if err := Check(t.Columns, rules, required); err != nil {
		return nil, Stats{}, err
	}

	out := table.New(t.Name, t.Role, Columns(t.Columns, rules))
	out.Rows = make([]records.Record, 0, len(t.Rows))
	for _, src := range t.Rows {
		r := src.Clone()
		for _, rule := range rules {
			rule.Apply(r)
		}
		out.Rows = append(out.Rows, r)
	}
	out.Rows = builtin.Require{Fields: required}.Apply(out.Rows)

	st := Stats{In: t.Len(), Out: out.Len()}
	st.Dropped = st.In - st.Out
	return out, st, nil
}
