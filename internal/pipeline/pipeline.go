// Package pipeline runs the reconciliation stages in order over a fixed
// configuration: map, filter and coerce each source, join, derive, project.
package pipeline

import (
	"fmt"

	"healthetl/internal/derive"
	"healthetl/internal/reconcile"
	"healthetl/internal/schema"
	"healthetl/internal/table"
	"healthetl/internal/transformer"
	"healthetl/internal/transformer/builtin"
)

// Pipeline is a validated Config. It holds no per-run state and may be run
// any number of times.
type Pipeline struct {
	cfg Config
}

// Result is the final table plus what happened on the way.
type Result struct {
	Table       *table.Table
	Diagnostics *Diagnostics
}

// New validates cfg and returns a runnable pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Name == "" {
		cfg.Name = "final"
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg}, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config { return p.cfg }

// Run executes every stage over inputs, keyed by source name. Inputs are not
// modified. On a schema or reconcile error no table is returned.
func (p *Pipeline) Run(inputs map[string]*table.Table) (*Result, error) {
	diag := newDiagnostics()

	cleaned := make(map[string]*table.Table, len(p.cfg.Sources))
	for _, src := range p.cfg.Sources {
		raw, ok := inputs[src.Spec.Name]
		if !ok || raw == nil {
			return nil, fmt.Errorf("pipeline: no input for source %q", src.Spec.Name)
		}
		t, err := p.clean(raw, src, diag)
		if err != nil {
			return nil, err
		}
		cleaned[src.Spec.Name] = t
	}

	current := cleaned[p.cfg.Sources[0].Spec.Name]
	for _, j := range p.cfg.Joins {
		right := cleaned[j.Right]
		out, st, err := reconcile.Join(current, right, j.Spec)
		if err != nil {
			return nil, fmt.Errorf("pipeline: join %s with %s: %w", current.Name, right.Name, err)
		}
		diag.Joins = append(diag.Joins, JoinReport{
			Left:    current.Name,
			Right:   right.Name,
			Mode:    j.Spec.Mode,
			Stats:   st,
			Dropped: st.Dropped(),
		})
		diag.stage("join:"+right.Name, st.LeftRows, st.Emitted)
		current = out
	}

	derived, st, err := derive.Apply(current, p.cfg.Derive, p.cfg.Required)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	diag.RequiredDropped = st.Dropped
	diag.stage("derive", st.In, st.Out)

	final := derived.Project(p.cfg.Output)
	final.Name = p.cfg.Name
	diag.Digest = table.DigestString(final)

	return &Result{Table: final, Diagnostics: diag}, nil
}

// clean maps, normalizes, filters and coerces one source.
func (p *Pipeline) clean(raw *table.Table, src Source, diag *Diagnostics) (*table.Table, error) {
	name := src.Spec.Name
	mapped, res, err := schema.Map(raw, src.Spec)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	diag.stage("map:"+name, raw.Len(), mapped.Len())

	chain := transformer.Chain{builtin.Normalize{}}
	for _, k := range src.Keep {
		if res.Resolved(k.Field) {
			chain = append(chain, k)
		}
	}
	before := mapped.Len()
	mapped.Rows = chain.Apply(mapped.Rows)
	diag.stage("filter:"+name, before, mapped.Len())
	if n := before - mapped.Len(); n > 0 {
		diag.Filtered[name] = n
	}

	coerce := builtin.Coerce{
		Rules: src.Coerce,
		OnFailure: func(f builtin.Failure) {
			diag.CoercionFailures[name+"."+f.Field]++
		},
	}
	before = mapped.Len()
	mapped.Rows = coerce.Apply(mapped.Rows)
	diag.stage("coerce:"+name, before, mapped.Len())
	return mapped, nil
}
