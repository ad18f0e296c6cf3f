package derive

import (
	"fmt"
	"math"

	"healthetl/internal/table"
	"healthetl/pkg/records"
)

// Rule computes one output column from input columns of the same row.
// A nil or non-numeric input yields a nil output.
type Rule interface {
	Inputs() []string
	Output() string
	Apply(r records.Record)
}

func number(v any) (float64, bool) {
	f, ok := table.Float(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Scale multiplies Input by Factor.
type Scale struct {
	Input, Out string
	Factor     float64
}

func (s Scale) Inputs() []string { return []string{s.Input} }
func (s Scale) Output() string   { return s.Out }

func (s Scale) Apply(r records.Record) {
	v, ok := number(r[s.Input])
	if !ok {
		r[s.Out] = nil
		return
	}
	r[s.Out] = v * s.Factor
}

// Clip clamps Input into [Min, Max]. Out may equal Input.
type Clip struct {
	Input, Out string
	Min, Max   float64
}

func (c Clip) Inputs() []string { return []string{c.Input} }
func (c Clip) Output() string   { return c.Out }

func (c Clip) Apply(r records.Record) {
	v, ok := number(r[c.Input])
	if !ok {
		r[c.Out] = nil
		return
	}
	r[c.Out] = math.Min(math.Max(v, c.Min), c.Max)
}

// Floor rounds Input down to a multiple of Step and stores an int64.
type Floor struct {
	Input, Out string
	Step       int64
}

func (f Floor) Inputs() []string { return []string{f.Input} }
func (f Floor) Output() string   { return f.Out }

func (f Floor) Apply(r records.Record) {
	v, ok := number(r[f.Input])
	if !ok || f.Step <= 0 {
		r[f.Out] = nil
		return
	}
	step := float64(f.Step)
	r[f.Out] = int64(math.Floor(v/step) * step)
}

// Bins assigns Labels[i] to values in (Edges[i], Edges[i+1]]; the last bin is
// open to +Inf. Values at or below Edges[0] get nil.
type Bins struct {
	Input, Out string
	Edges      []float64
	Labels     []string
}

func (b Bins) Inputs() []string { return []string{b.Input} }
func (b Bins) Output() string   { return b.Out }

func (b Bins) Validate() error {
	if len(b.Edges) == 0 || len(b.Edges) != len(b.Labels) {
		return fmt.Errorf("derive: bins %s: %d edges for %d labels", b.Out, len(b.Edges), len(b.Labels))
	}
	for i := 1; i < len(b.Edges); i++ {
		if b.Edges[i] <= b.Edges[i-1] {
			return fmt.Errorf("derive: bins %s: edges must be strictly increasing", b.Out)
		}
	}
	return nil
}

func (b Bins) Apply(r records.Record) {
	v, ok := number(r[b.Input])
	if !ok || len(b.Edges) == 0 || v <= b.Edges[0] {
		r[b.Out] = nil
		return
	}
	label := b.Labels[len(b.Labels)-1]
	for i := 1; i < len(b.Edges); i++ {
		if v <= b.Edges[i] {
			label = b.Labels[i-1]
			break
		}
	}
	r[b.Out] = label
}

// Threshold labels Input against Cutoff.
type Threshold struct {
	Input, Out string
	Cutoff     float64
	AtOrAbove  string
	Below      string
}

func (t Threshold) Inputs() []string { return []string{t.Input} }
func (t Threshold) Output() string   { return t.Out }

func (t Threshold) Apply(r records.Record) {
	v, ok := number(r[t.Input])
	switch {
	case !ok:
		r[t.Out] = nil
	case v >= t.Cutoff:
		r[t.Out] = t.AtOrAbove
	default:
		r[t.Out] = t.Below
	}
}
