// Package ingest loads every configured source file into a raw table,
// concurrently. The returned tables are not shared with any goroutine once
// Load returns.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"healthetl/internal/datasource"
	"healthetl/internal/parser"
	"healthetl/internal/table"
)

// Input binds a pipeline source name to where and how it is read.
type Input struct {
	Name   string
	Source datasource.Source
	Parser parser.Parser
}

// FileReport describes one loaded input.
type FileReport struct {
	Name     string
	File     string
	Rows     int
	Skipped  int
	Duration time.Duration
}

// Report lists loaded inputs sorted by name.
type Report struct {
	Files []FileReport
}

// Skipped sums skipped rows over all files.
func (r Report) Skipped() int {
	n := 0
	for _, f := range r.Files {
		n += f.Skipped
	}
	return n
}

// Load opens and parses all inputs in parallel. The first failure cancels the
// others and is returned.
func Load(ctx context.Context, inputs []Input, log zerolog.Logger) (map[string]*table.Table, Report, error) {
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if _, dup := seen[in.Name]; dup {
			return nil, Report{}, fmt.Errorf("ingest: duplicate input %q", in.Name)
		}
		seen[in.Name] = struct{}{}
	}

	var (
		mu     sync.Mutex
		tables = make(map[string]*table.Table, len(inputs))
		report Report
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, in := range inputs {
		in := in
		g.Go(func() error {
			start := time.Now()
			t, skipped, err := loadOne(gctx, in)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", in.Name, err)
			}
			fr := FileReport{
				Name:     in.Name,
				File:     in.Source.Name(),
				Rows:     t.Len(),
				Skipped:  skipped,
				Duration: time.Since(start),
			}
			log.Info().
				Str("source", fr.Name).
				Str("file", fr.File).
				Int("rows", fr.Rows).
				Int("skipped", fr.Skipped).
				Dur("elapsed", fr.Duration).
				Msg("source loaded")

			mu.Lock()
			tables[in.Name] = t
			report.Files = append(report.Files, fr)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Report{}, err
	}
	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Name < report.Files[j].Name })
	return tables, report, nil
}

func loadOne(ctx context.Context, in Input) (*table.Table, int, error) {
	rc, err := in.Source.Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()
	return in.Parser.Parse(in.Source.Name(), rc)
}
