// Package datasource abstracts where raw input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens one named input.
type Source interface {
	// Name identifies the input in logs and raw table names.
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}
