package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
)

// Source is a datasource.Source reading one URL.
type Source struct {
	url    string
	client *Client
}

// NewSource returns a Source for rawURL. A nil client uses NewClient(Config{}).
func NewSource(rawURL string, client *Client) *Source {
	if client == nil {
		client = NewClient(Config{})
	}
	return &Source{url: rawURL, client: client}
}

// URL returns the configured URL.
func (s *Source) URL() string { return s.url }

// Name returns a filesystem-safe name derived from the URL.
func (s *Source) Name() string { return NameFromURL(s.url) }

// Open issues the request and returns the response body. Any status other
// than 200 is an error.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: %s", s.url, resp.Status)
	}
	return resp.Body, nil
}

// nameCleaner replaces runs of characters that are unsafe in file names.
var nameCleaner = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// NameFromURL returns the last path segment of rawURL, or the cleaned host
// and path when the URL has no usable segment.
func NameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nameCleaner.ReplaceAllString(rawURL, "_")
	}
	if base := path.Base(u.Path); base != "/" && base != "." && base != "" {
		return nameCleaner.ReplaceAllString(base, "_")
	}
	return nameCleaner.ReplaceAllString(u.Host, "_")
}
