package builtin

import (
	"strings"

	"healthetl/internal/table"
	"healthetl/pkg/records"
)

// Keep is a row filter on a disaggregation column, e.g. keep only
// sex == "Total" rows of an indicator broken down by sex. Comparison is
// case-insensitive on the trimmed cell; null cells never match.
type Keep struct {
	Field  string   `json:"field" koanf:"field"`
	Values []string `json:"values" koanf:"values"`
}

// Matches reports whether rec passes the filter.
func (k Keep) Matches(rec records.Record) bool {
	v := rec[k.Field]
	if v == nil {
		return false
	}
	s := strings.TrimSpace(table.Format(v))
	for _, want := range k.Values {
		if strings.EqualFold(s, strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// Apply filters in place and returns the matching records.
func (k Keep) Apply(in []records.Record) []records.Record {
	out := in[:0]
	for _, rec := range in {
		if k.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}
