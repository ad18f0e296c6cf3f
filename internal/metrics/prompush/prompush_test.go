package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"healthetl/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// readCounterValue reads the current value of a Counter for assertions in tests.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

// readSummaryCountSum reads sample count and sum from a SummaryVec.
func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	s := m.GetSummary()
	return s.GetSampleCount(), s.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL returns error", jobName: "unicef", wantErr: true},
		{name: "empty job name uses default", gatewayURL: "http://pushgateway:9091", wantJobName: "healthetl"},
		{name: "explicit job name is preserved", jobName: "unicef", gatewayURL: "http://pushgateway:9091", wantJobName: "unicef"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend(%q, %q) = %v, %v; want nil, error", tt.jobName, tt.gatewayURL, b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend(%q, %q) error = %v", tt.jobName, tt.gatewayURL, err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("backend.jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
			if b.runCounter == nil || b.runDuration == nil || b.stageRows == nil || b.records == nil {
				t.Fatalf("collectors not initialized: %+v", b)
			}
		})
	}
}

func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("unicef", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter(metrics.RunTotal, 1, metrics.Labels{"job": "unicef", "status": "success"})
	b.IncCounter(metrics.StageRowsTotal, 7, metrics.Labels{"stage": "join:mortality", "direction": "out"})
	b.IncCounter(metrics.RecordsTotal, 2, metrics.Labels{"kind": metrics.KindCoercionFailures})
	b.IncCounter(metrics.RecordsTotal, 3, metrics.Labels{"kind": metrics.KindCoercionFailures})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	if got := readCounterValue(t, b.runCounter.WithLabelValues("success")); got != 1 {
		t.Fatalf("run counter = %v, want 1", got)
	}
	if got := readCounterValue(t, b.stageRows.WithLabelValues("join:mortality", "out")); got != 7 {
		t.Fatalf("stage counter = %v, want 7", got)
	}
	if got := readCounterValue(t, b.records.WithLabelValues(metrics.KindCoercionFailures)); got != 5 {
		t.Fatalf("records counter = %v, want 5", got)
	}
}

func TestIncCounterNilCollectors(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.RunTotal, 1, metrics.Labels{"status": "success"})
	b.IncCounter(metrics.StageRowsTotal, 1, metrics.Labels{"stage": "derive", "direction": "in"})
	b.IncCounter(metrics.RecordsTotal, 1, metrics.Labels{"kind": "loaded"})
	b.ObserveHistogram(metrics.RunDuration, 1, metrics.Labels{"status": "success"})
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("unicef", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.ObserveHistogram(metrics.RunDuration, 1.5, metrics.Labels{"status": "failure"})
	b.ObserveHistogram("other_metric", 2, metrics.Labels{"status": "failure"})

	count, sum := readSummaryCountSum(t, b.runDuration, "failure")
	if count != 1 || sum != 1.5 {
		t.Fatalf("summary = (%d, %v), want (1, 1.5)", count, sum)
	}
}

func TestFlush(t *testing.T) {
	t.Parallel()

	type pushRequest struct {
		method string
		path   string
		body   string
	}
	reqCh := make(chan pushRequest, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushRequest{method: r.Method, path: r.URL.Path, body: string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("unicef", server.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter(metrics.RecordsTotal, 4, metrics.Labels{"kind": metrics.KindOutput})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got pushRequest
	select {
	case got = <-reqCh:
	default:
		t.Fatalf("Flush() did not send a request to the Pushgateway")
	}
	if got.method != http.MethodPut {
		t.Fatalf("push method = %q, want PUT", got.method)
	}
	if !strings.Contains(got.path, "/job/unicef") {
		t.Fatalf("push path = %q, want it to contain /job/unicef", got.path)
	}
	if len(got.body) == 0 {
		t.Fatalf("push body is empty")
	}
}

func BenchmarkIncCounterRecords(b *testing.B) {
	backend, err := NewBackend("unicef", "http://example.com")
	if err != nil {
		b.Fatalf("NewBackend() error = %v", err)
	}
	labels := metrics.Labels{"kind": metrics.KindLoaded}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.RecordsTotal, 1, labels)
	}
}
