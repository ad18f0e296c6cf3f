package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushCount int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := current()
	t.Cleanup(func() { SetBackend(orig) })
	fb := &fakeBackend{}
	SetBackend(fb)
	return fb
}

func TestRecordRun(t *testing.T) {
	fb := install(t)

	RecordRun("unicef", nil, 2*time.Second)
	RecordRun("unicef", errors.New("boom"), 500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls = %d counters, %d histograms; want 2, 2", len(fb.counters), len(fb.histograms))
	}
	if c := fb.counters[0]; c.name != RunTotal || c.labels["status"] != "success" || c.labels["job"] != "unicef" {
		t.Fatalf("counter[0] = %#v", c)
	}
	if c := fb.counters[1]; c.labels["status"] != "failure" {
		t.Fatalf("counter[1] status = %q; want failure", c.labels["status"])
	}
	if h := fb.histograms[0]; h.name != RunDuration || h.value != 2 {
		t.Fatalf("histogram[0] = %#v", h)
	}
}

func TestRecordStage(t *testing.T) {
	fb := install(t)

	RecordStage("unicef", "join:mortality", 10, 7)
	RecordStage("unicef", "derive", 0, 0)

	if len(fb.counters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.counters))
	}
	in, out := fb.counters[0], fb.counters[1]
	if in.labels["direction"] != "in" || in.delta != 10 || in.labels["stage"] != "join:mortality" {
		t.Fatalf("in = %#v", in)
	}
	if out.labels["direction"] != "out" || out.delta != 7 {
		t.Fatalf("out = %#v", out)
	}
}

func TestRecordRows_IgnoresNonPositive(t *testing.T) {
	fb := install(t)

	RecordRows("unicef", KindFiltered, 0)
	RecordRows("unicef", KindFiltered, -3)
	RecordRows("unicef", KindCoercionFailures, 4)

	if len(fb.counters) != 1 {
		t.Fatalf("expected 1 counter call, got %d", len(fb.counters))
	}
	if c := fb.counters[0]; c.name != RecordsTotal || c.delta != 4 || c.labels["kind"] != KindCoercionFailures {
		t.Fatalf("counter = %#v", c)
	}
}

func TestSetBackendNilAndFlush(t *testing.T) {
	fb := install(t)
	SetBackend(nil)
	if current() != Backend(fb) {
		t.Fatal("SetBackend(nil) replaced the backend")
	}
	if err := Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("flushCount = %d; want 1", fb.flushCount)
	}
}

func TestNopBackend(t *testing.T) {
	var b Backend = nopBackend{}
	b.IncCounter(RunTotal, 1, nil)
	b.ObserveHistogram(RunDuration, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("nop Flush() = %v", err)
	}
}
