package cli

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"healthetl/internal/config"
	"healthetl/internal/datasource"
	"healthetl/internal/datasource/file"
	"healthetl/internal/datasource/httpds"
	"healthetl/internal/ingest"
	"healthetl/internal/metrics"
	"healthetl/internal/parser/csv"
	"healthetl/internal/pipeline"
	"healthetl/internal/table"
)

// outcome is everything one run produced.
type outcome struct {
	Inputs map[string]*table.Table
	Load   ingest.Report
	Result *pipeline.Result
}

// inputs builds one ingest.Input per configured source.
func inputs(cfg *config.File, log zerolog.Logger) []ingest.Input {
	out := make([]ingest.Input, 0, len(cfg.Sources))
	client := httpds.NewClient(httpds.Config{MaxRetries: 3})
	for _, s := range cfg.Sources {
		comma := ','
		if s.Delimiter != "" {
			comma, _ = utf8.DecodeRuneInString(s.Delimiter)
		}
		srcLog := log.With().Str("source", s.Name).Logger()
		var src datasource.Source = file.NewLocal(s.Path)
		if s.URL != "" {
			src = httpds.NewSource(s.URL, client)
		}
		out = append(out, ingest.Input{
			Name:   s.Name,
			Source: src,
			Parser: csv.NewParser(csv.Options{
				Comma:     comma,
				TrimSpace: true,
				Encoding:  s.Encoding,
				Logger:    &srcLog,
			}),
		})
	}
	return out
}

// execute loads every source and runs the pipeline. Config problems surface
// before any file is opened.
func execute(ctx context.Context, cfg *config.File, log zerolog.Logger) (*outcome, error) {
	pcfg, err := cfg.Pipeline()
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(pcfg)
	if err != nil {
		return nil, err
	}

	tables, rep, err := ingest.Load(ctx, inputs(cfg, log), log)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := p.Run(tables)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Dur("elapsed", time.Since(start)).
		Int("rows", res.Table.Len()).
		Str("digest", res.Diagnostics.Digest).
		Msg("pipeline finished")

	return &outcome{Inputs: tables, Load: rep, Result: res}, nil
}

// recordMetrics reports the run's counts to the installed metrics backend.
func recordMetrics(job string, o *outcome) {
	var loaded int
	for _, f := range o.Load.Files {
		loaded += f.Rows
	}
	metrics.RecordRows(job, metrics.KindLoaded, int64(loaded))
	metrics.RecordRows(job, metrics.KindSkipped, int64(o.Load.Skipped()))

	d := o.Result.Diagnostics
	for _, s := range d.Stages {
		metrics.RecordStage(job, s.Stage, s.In, s.Out)
	}
	var filtered, joinDropped int
	for _, n := range d.Filtered {
		filtered += n
	}
	for _, j := range d.Joins {
		joinDropped += j.Dropped
	}
	metrics.RecordRows(job, metrics.KindFiltered, int64(filtered))
	metrics.RecordRows(job, metrics.KindCoercionFailures, int64(d.TotalCoercionFailures()))
	metrics.RecordRows(job, metrics.KindJoinDropped, int64(joinDropped))
	metrics.RecordRows(job, metrics.KindRequiredDropped, int64(d.RequiredDropped))
	metrics.RecordRows(job, metrics.KindOutput, int64(o.Result.Table.Len()))
}

// sourceTable returns one ingested input by name.
func (o *outcome) sourceTable(name string) (*table.Table, error) {
	t, ok := o.Inputs[name]
	if !ok {
		return nil, fmt.Errorf("no source named %q", name)
	}
	return t, nil
}
