package httpds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// recordWaits replaces the client's wait and returns the delays it was asked
// to sleep.
func recordWaits(c *Client) *[]time.Duration {
	var waits []time.Duration
	c.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return &waits
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true, MaxRetries: -2})

	if c.hc.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v, want 30s", c.hc.Timeout)
	}
	if c.retries != 0 {
		t.Fatalf("retries = %d, want 0", c.retries)
	}
	if c.backoff != (backoff{initial: 200 * time.Millisecond, max: 5 * time.Second}) {
		t.Fatalf("backoff = %+v", c.backoff)
	}
	tr, ok := c.hc.Transport.(*http.Transport)
	if !ok || tr.TLSClientConfig == nil || !tr.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("transport = %#v; want InsecureSkipVerify", c.hc.Transport)
	}
}

func TestGet_RetriesTransientStatuses(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = io.WriteString(w, "alpha_3_code\nUSA\n")
		}
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 3, InitialBackoff: 10 * time.Millisecond, MaxBackoff: time.Second})
	waits := recordWaits(c)

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("status %d after %d requests; want 200 after 3", resp.StatusCode, hits)
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(*waits) != 2 || (*waits)[0] != want[0] || (*waits)[1] != want[1] {
		t.Fatalf("waits = %v, want %v", *waits, want)
	}
}

func TestGet_GivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 2})
	recordWaits(c)

	resp, err := c.Get(context.Background(), srv.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected error once retries are exhausted")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("requests = %d, want 3", got)
	}
}

func TestGet_NotFoundIsReturnedWithHeaders(t *testing.T) {
	t.Parallel()

	var hits int32
	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		accept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{MaxRetries: 3, Headers: http.Header{"Accept": {"text/csv"}}})
	recordWaits(c)

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound || atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("status %d after %d requests; want 404 after 1", resp.StatusCode, hits)
	}
	if accept != "text/csv" {
		t.Fatalf("Accept = %q, want text/csv", accept)
	}
}

func TestGet_EmptyURLAndCanceledContext(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{})
	if _, err := c.Get(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Get(ctx, "http://example.invalid"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Get() error = %v, want context.Canceled", err)
	}
	if err := waitCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("waitCtx() = %v, want context.Canceled", err)
	}
}

func TestBackoff_Delay(t *testing.T) {
	t.Parallel()

	b := backoff{initial: 100 * time.Millisecond, max: time.Second}
	for attempt, want := range []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	} {
		if got := b.delay(attempt); got != want {
			t.Fatalf("delay(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestSource_Open(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exports/unicef_metadata.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "alpha_3_code,Population\nUSA,309000000\n")
	}))
	defer srv.Close()

	src := NewSource(srv.URL+"/exports/unicef_metadata.csv", nil)
	if got := src.Name(); got != "unicef_metadata.csv" {
		t.Fatalf("Name() = %q", got)
	}

	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "alpha_3_code,Population\nUSA,309000000\n" {
		t.Fatalf("body = %q", body)
	}

	if _, err := NewSource(srv.URL+"/missing.csv", nil).Open(context.Background()); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestNameFromURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://data.unicef.org/x/indicator_1.csv": "indicator_1.csv",
		"https://sdmx.data.unicef.org/":             "sdmx.data.unicef.org",
		"not a url":                                 "not_a_url",
		"https://host/a/b/file-1.csv?x=1":           "file-1.csv",
	}
	for in, want := range tests {
		if got := NameFromURL(in); got != want {
			t.Fatalf("NameFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
