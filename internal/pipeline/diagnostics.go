package pipeline

import (
	"healthetl/internal/reconcile"
)

// StageCount is the row count entering and leaving one stage.
type StageCount struct {
	Stage string
	In    int
	Out   int
}

// Dropped returns In - Out.
func (s StageCount) Dropped() int { return s.In - s.Out }

// JoinReport describes one join.
type JoinReport struct {
	Left    string
	Right   string
	Mode    reconcile.Mode
	Stats   reconcile.Stats
	Dropped int
}

// Diagnostics is the audit trail of one run.
type Diagnostics struct {
	Stages           []StageCount
	CoercionFailures map[string]int // "table.field" -> cells set to null
	Filtered         map[string]int // table -> rows removed by keep filters
	Joins            []JoinReport
	RequiredDropped  int
	Digest           string // fingerprint of the final table
}

func newDiagnostics() *Diagnostics {
	return &Diagnostics{
		CoercionFailures: map[string]int{},
		Filtered:         map[string]int{},
	}
}

func (d *Diagnostics) stage(name string, in, out int) {
	d.Stages = append(d.Stages, StageCount{Stage: name, In: in, Out: out})
}

// TotalCoercionFailures sums CoercionFailures.
func (d *Diagnostics) TotalCoercionFailures() int {
	n := 0
	for _, c := range d.CoercionFailures {
		n += c
	}
	return n
}
