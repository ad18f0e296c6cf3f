package builtin

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"healthetl/internal/table"
	"healthetl/pkg/records"
)

// Kind is the target of a coercion rule.
type Kind string

const (
	KindFloat   Kind = "float"
	KindInteger Kind = "integer"
	// KindYear is an integer restricted to [MinYear, MaxYear]. Time-period
	// columns sometimes carry ranges or placeholder codes that must not reach
	// the join as bogus years.
	KindYear Kind = "year"
	// KindCountryCode is an ISO 3166-1 alpha-3 code: three ASCII letters,
	// upper-cased. Anything else is a failure and becomes nil.
	KindCountryCode Kind = "country_code"
)

const (
	MinYear = 1900
	MaxYear = 2100
)

var (
	// DefaultStrip are cosmetic tokens removed before parsing: currency,
	// thousands separators and percent signs.
	DefaultStrip = []string{"$", ",", "%"}
	// DefaultSentinels map to null. Matching is case-insensitive on the
	// trimmed cell.
	DefaultSentinels = []string{"NA", "N/A", "NAN", ""}
)

// Rule describes how one field is coerced. Nil Strip or Sentinels fall back
// to the defaults.
type Rule struct {
	Kind      Kind     `json:"kind" koanf:"kind"`
	Strip     []string `json:"strip,omitempty" koanf:"strip"`
	Sentinels []string `json:"sentinels,omitempty" koanf:"sentinels"`
}

// Failure describes one cell that could not be coerced. The cell is set to
// nil; failures are reported, never raised.
type Failure struct {
	Field  string
	Raw    any
	Reason string
}

// Coerce converts declared fields into typed, nullable values.
//
// Country code fields are trimmed, upper-cased and checked for shape. For
// numeric fields, in order: numeric values pass through; strings lose the Strip
// tokens and surrounding whitespace; sentinel tokens become nil; the rest is
// parsed as a float. Parse failures and out-of-range years become nil and
// are reported through OnFailure. Coercing an already-coerced batch is a
// no-op.
type Coerce struct {
	Rules     map[string]Rule
	OnFailure func(Failure) // optional sink
}

type fieldPlan struct {
	name      string
	kind      Kind
	strip     []string
	sentinels map[string]struct{}
}

func (c Coerce) plan() []fieldPlan {
	names := make([]string, 0, len(c.Rules))
	for name := range c.Rules {
		names = append(names, name)
	}
	sort.Strings(names)

	plans := make([]fieldPlan, 0, len(names))
	for _, name := range names {
		r := c.Rules[name]
		p := fieldPlan{name: name, kind: r.Kind, strip: r.Strip}
		if p.kind == "" {
			p.kind = KindFloat
		}
		if p.strip == nil {
			p.strip = DefaultStrip
		}
		sentinels := r.Sentinels
		if sentinels == nil {
			sentinels = DefaultSentinels
		}
		p.sentinels = make(map[string]struct{}, len(sentinels))
		for _, s := range sentinels {
			p.sentinels[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
		}
		plans = append(plans, p)
	}
	return plans
}

// Apply coerces every declared field of every record in place.
func (c Coerce) Apply(in []records.Record) []records.Record {
	if len(c.Rules) == 0 {
		return in
	}
	plans := c.plan()
	for _, r := range in {
		for i := range plans {
			p := &plans[i]
			raw, ok := r[p.name]
			if !ok {
				continue
			}
			v, reason := p.coerce(raw)
			r[p.name] = v
			if reason != "" && c.OnFailure != nil {
				c.OnFailure(Failure{Field: p.name, Raw: raw, Reason: reason})
			}
		}
	}
	return in
}

// coerce returns the typed value and a non-empty reason when the cell was
// degraded to nil.
func (p *fieldPlan) coerce(raw any) (any, string) {
	if raw == nil {
		return nil, ""
	}
	if p.kind == KindCountryCode {
		return p.countryCode(raw)
	}

	var f float64
	switch v := raw.(type) {
	case string:
		s := v
		for _, tok := range p.strip {
			if tok != "" {
				s = strings.ReplaceAll(s, tok, "")
			}
		}
		s = strings.TrimSpace(s)
		if _, null := p.sentinels[strings.ToUpper(s)]; null {
			return nil, ""
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, "not a number"
		}
		f = parsed
	default:
		n, ok := table.Float(raw)
		if !ok {
			return nil, "unsupported type"
		}
		if iv, isInt := raw.(int64); isInt && p.kind != KindFloat {
			return p.integer(iv)
		}
		f = n
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, "not finite"
	}

	switch p.kind {
	case KindInteger, KindYear:
		if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return nil, "not an integer"
		}
		return p.integer(int64(f))
	default:
		return f, ""
	}
}

func (p *fieldPlan) integer(v int64) (any, string) {
	if p.kind == KindYear && (v < MinYear || v > MaxYear) {
		return nil, "year out of range"
	}
	return v, ""
}

func (p *fieldPlan) countryCode(raw any) (any, string) {
	s, ok := raw.(string)
	if !ok {
		return nil, "not a country code"
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if _, null := p.sentinels[s]; null {
		return nil, ""
	}
	if len(s) != 3 {
		return nil, "not a 3-letter country code"
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return nil, "not a 3-letter country code"
		}
	}
	return s, ""
}
