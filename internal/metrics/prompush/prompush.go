// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Pipeline runs are short-lived, so collected series are pushed to a
// Pushgateway on Flush instead of being exposed on a scrape endpoint.
package prompush

import (
	"fmt"

	"healthetl/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	runCounter  *prometheus.CounterVec // healthetl_run_total
	runDuration *prometheus.SummaryVec // healthetl_run_duration_seconds
	stageRows   *prometheus.CounterVec // healthetl_stage_rows_total
	records     *prometheus.CounterVec // healthetl_records_total
}

// NewBackend constructs a Prometheus Pushgateway backend. jobName defaults
// to "healthetl".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "healthetl"
	}

	reg := prometheus.NewRegistry()

	runCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RunTotal,
			Help: "Pipeline runs, partitioned by status.",
		},
		[]string{"status"},
	)
	runDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.RunDuration,
			Help:       "Duration of pipeline runs in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"status"},
	)
	stageRows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StageRowsTotal,
			Help: "Rows entering and leaving each pipeline stage.",
		},
		[]string{"stage", "direction"},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record-level counts per kind (loaded, filtered, coercion_failures, ...).",
		},
		[]string{"kind"},
	)

	for name, c := range map[string]prometheus.Collector{
		"run counter":     runCounter,
		"run summary":     runDuration,
		"stage counter":   stageRows,
		"records counter": records,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:  gatewayURL,
		jobName:     jobName,
		reg:         reg,
		runCounter:  runCounter,
		runDuration: runDuration,
		stageRows:   stageRows,
		records:     records,
	}, nil
}

// IncCounter implements metrics.Backend. The "job" label is carried by the
// Pushgateway grouping key and is not a series label.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.RunTotal:
		if b.runCounter == nil {
			return
		}
		b.runCounter.WithLabelValues(labels["status"]).Add(delta)

	case metrics.StageRowsTotal:
		if b.stageRows == nil {
			return
		}
		b.stageRows.WithLabelValues(labels["stage"], labels["direction"]).Add(delta)

	case metrics.RecordsTotal:
		if b.records == nil {
			return
		}
		b.records.WithLabelValues(labels["kind"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.RunDuration || b.runDuration == nil {
		return
	}
	b.runDuration.WithLabelValues(labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
