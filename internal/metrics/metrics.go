// Package metrics records operational metrics of pipeline runs behind a
// small, backend-agnostic interface.
//
// The global backend defaults to a no-op, so recording is always safe. Concrete
// systems live in subpackages (prompush, datadog) and are installed with
// SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names.
const (
	RunTotal       = "healthetl_run_total"
	RunDuration    = "healthetl_run_duration_seconds"
	StageRowsTotal = "healthetl_stage_rows_total"
	RecordsTotal   = "healthetl_records_total"
)

// Record kinds for RecordRows.
const (
	KindLoaded           = "loaded"
	KindSkipped          = "parse_skipped"
	KindFiltered         = "filtered"
	KindCoercionFailures = "coercion_failures"
	KindJoinDropped      = "join_dropped"
	KindRequiredDropped  = "required_dropped"
	KindOutput           = "output"
	KindWritten          = "written"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Flush delegates to the current backend.
func Flush() error { return current().Flush() }

// RecordRun counts one run and observes its duration.
func RecordRun(job string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "status": status}
	b := current()
	b.IncCounter(RunTotal, 1, lbls)
	b.ObserveHistogram(RunDuration, d.Seconds(), lbls)
}

// RecordStage counts rows entering and leaving one pipeline stage.
func RecordStage(job, stage string, in, out int) {
	b := current()
	if in > 0 {
		b.IncCounter(StageRowsTotal, float64(in), Labels{"job": job, "stage": stage, "direction": "in"})
	}
	if out > 0 {
		b.IncCounter(StageRowsTotal, float64(out), Labels{"job": job, "stage": stage, "direction": "out"})
	}
}

// RecordRows increments the record counter for kind. Non-positive deltas are
// ignored.
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}
