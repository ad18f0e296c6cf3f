// Package httpds downloads indicator files over HTTP(S), such as the CSV
// exports of the UNICEF data warehouse.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// Config configures a Client. Zero values get defaults: 30s timeout, no
// retries, 200ms first delay capped at 5s.
type Config struct {
	Timeout        time.Duration // per request, body included
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	InsecureSkipVerify bool
	Headers            http.Header
	Transport          http.RoundTripper // overrides the default transport
}

// backoff doubles the delay after each failed attempt, up to max.
type backoff struct {
	initial, max time.Duration
}

func (b backoff) delay(attempt int) time.Duration {
	d := b.initial
	for i := 0; i < attempt && d < b.max; i++ {
		d *= 2
	}
	if d > b.max {
		return b.max
	}
	return d
}

// Client fetches source files, retrying 429, 5xx and transport errors.
type Client struct {
	hc      *http.Client
	retries int
	backoff backoff
	headers http.Header

	wait func(ctx context.Context, d time.Duration) error
}

// NewClient returns a Client for cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	rt := cfg.Transport
	if rt == nil {
		rt = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // opt-in
		}
	}
	return &Client{
		hc:      &http.Client{Timeout: cfg.Timeout, Transport: rt},
		retries: max(cfg.MaxRetries, 0),
		backoff: backoff{initial: cfg.InitialBackoff, max: cfg.MaxBackoff},
		headers: cfg.Headers.Clone(),
		wait:    waitCtx,
	}
}

// Get fetches url. Non-transient statuses, 4xx included, are returned to the
// caller, who must close the body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := c.try(ctx, url)
		if err == nil {
			return resp, nil
		}
		if attempt >= c.retries {
			return nil, err
		}
		if werr := c.wait(ctx, c.backoff.delay(attempt)); werr != nil {
			return nil, werr
		}
	}
}

// try performs one request. A transient status is turned into an error.
func (c *Client) try(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpds: build request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if transient(resp.StatusCode) {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: %s: status %d", url, resp.StatusCode)
	}
	return resp, nil
}

func transient(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

func waitCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
