package pipeline

import (
	"errors"
	"fmt"

	"healthetl/internal/derive"
	"healthetl/internal/reconcile"
	"healthetl/internal/schema"
	"healthetl/internal/table"
	"healthetl/internal/transformer/builtin"
)

// Source declares one input table and its cleaning rules.
type Source struct {
	Spec   schema.TableSpec
	Coerce map[string]builtin.Rule
	Keep   []builtin.Keep
}

// JoinStep joins the running result (left) with the source named Right.
type JoinStep struct {
	Right string
	Spec  reconcile.Spec
}

// Config is the fixed wiring a Pipeline runs with. The first source is the
// left side of the first join.
type Config struct {
	Name     string // final table name; "final" when empty
	Sources  []Source
	Joins    []JoinStep
	Derive   []derive.Rule
	Required []string
	Output   []string
}

func (c Config) source(name string) (Source, bool) {
	for _, s := range c.Sources {
		if s.Spec.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// check validates the wiring by running the joins and derivations over empty
// tables, so column availability is decided by the same code that runs on
// data.
func (c Config) check() error {
	if len(c.Sources) == 0 {
		return errors.New("pipeline: no sources")
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if err := s.Spec.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Spec.Name]; dup {
			return fmt.Errorf("pipeline: duplicate source %q", s.Spec.Name)
		}
		seen[s.Spec.Name] = struct{}{}
		for field, rule := range s.Coerce {
			col, ok := s.Spec.Column(field)
			if !ok {
				return fmt.Errorf("pipeline: source %s: coerce rule for unknown column %q", s.Spec.Name, field)
			}
			switch rule.Kind {
			case "", builtin.KindFloat, builtin.KindInteger, builtin.KindYear, builtin.KindCountryCode:
			default:
				return fmt.Errorf("pipeline: source %s: unknown coerce kind %q for %q", s.Spec.Name, rule.Kind, field)
			}
			if rule.Kind == builtin.KindCountryCode {
				if col.Type != schema.String {
					return fmt.Errorf("pipeline: source %s: country code rule on %s column %q", s.Spec.Name, col.Type, field)
				}
				continue
			}
			if !col.Type.Numeric() {
				return fmt.Errorf("pipeline: source %s: coerce rule on %s column %q", s.Spec.Name, col.Type, field)
			}
		}
		for _, k := range s.Keep {
			if _, ok := s.Spec.Column(k.Field); !ok {
				return fmt.Errorf("pipeline: source %s: keep filter on unknown column %q", s.Spec.Name, k.Field)
			}
			if len(k.Values) == 0 {
				return fmt.Errorf("pipeline: source %s: keep filter on %q has no values", s.Spec.Name, k.Field)
			}
		}
	}

	first := c.Sources[0].Spec
	current := table.New(first.Name, first.Role, first.ColumnNames())
	used := map[string]struct{}{first.Name: {}}
	for i, j := range c.Joins {
		right, ok := c.source(j.Right)
		if !ok {
			return fmt.Errorf("pipeline: join %d: unknown source %q", i, j.Right)
		}
		if _, again := used[j.Right]; again {
			return fmt.Errorf("pipeline: join %d: source %q joined twice", i, j.Right)
		}
		used[j.Right] = struct{}{}
		next, _, err := reconcile.Join(current, table.New(right.Spec.Name, right.Spec.Role, right.Spec.ColumnNames()), j.Spec)
		if err != nil {
			return fmt.Errorf("pipeline: join %d: %w", i, err)
		}
		current = next
	}
	for _, s := range c.Sources {
		if _, ok := used[s.Spec.Name]; !ok {
			return fmt.Errorf("pipeline: source %q is never joined", s.Spec.Name)
		}
	}

	if err := derive.Check(current.Columns, c.Derive, c.Required); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if len(c.Output) == 0 {
		return errors.New("pipeline: no output columns")
	}
	final := derive.Columns(current.Columns, c.Derive)
	have := make(map[string]struct{}, len(final))
	for _, col := range final {
		have[col] = struct{}{}
	}
	for _, col := range c.Output {
		if _, ok := have[col]; !ok {
			return fmt.Errorf("pipeline: output column %q is never produced", col)
		}
	}
	return nil
}
