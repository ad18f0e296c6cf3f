// Package storage contains storage-agnostic contracts and utilities: the
// Repository interface, the backend registry and a batched table writer.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and configures a backend.
type Config struct {
	Kind    string   // registered backend name, e.g. "sqlite"
	DSN     string   // driver connection string
	Table   string   // destination table, optionally "schema.table"
	Columns []string // ordered destination columns
}

// Repository is the minimal contract a backend implements.
type Repository interface {
	// Exec runs one statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	// CopyFrom inserts rows aligned to columns and returns the number of rows
	// the backend reports as inserted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it from
// init.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("storage: %s: table must not be empty", cfg.Kind)
	}
	return f(ctx, cfg)
}

// Kinds lists registered backends in sorted order.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
