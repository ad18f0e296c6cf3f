// Package config defines the run configuration of healthetl and loads it from
// YAML files, HEALTHETL_* environment variables and command line flags.
//
// A File describes the input sources, how they are joined, which columns are
// derived, and where the final table goes. (*File).Pipeline converts it into
// the core pipeline.Config.
//
// Example (trimmed):
//
//	job: unicef
//	sources:
//	  - name: coverage
//	    role: fact
//	    path: data/unicef_indicator_1.csv
//	    columns:
//	      - {name: country_code, aliases: [alpha_3_code], type: string, required: true}
//	joins:
//	  - {right: mortality, key: [country_code, year], mode: inner, unique: both}
//	sink: {kind: sqlite, dsn: out.db, table: final, auto_create: true}
package config

import (
	"fmt"

	"healthetl/internal/derive"
	"healthetl/internal/pipeline"
	"healthetl/internal/reconcile"
	"healthetl/internal/schema"
	"healthetl/internal/table"
	"healthetl/internal/transformer/builtin"
)

// File is the top-level run configuration.
type File struct {
	// Job names the run; it labels metrics and the final table.
	Job string `koanf:"job"`

	// Sources lists the input tables. The first one is the base of the joins.
	Sources []Source `koanf:"sources"`

	// Joins are applied in order to the base source.
	Joins []Join `koanf:"joins"`

	// Derive lists kind-tagged rules applied after the joins.
	Derive []derive.Spec `koanf:"derive"`

	// Required columns must be non-null for a row to reach the output.
	Required []string `koanf:"required"`

	// Output is the ordered column list of the final table.
	Output []string `koanf:"output"`

	Sink    Sink    `koanf:"sink"`
	Metrics Metrics `koanf:"metrics"`
	Log     Log     `koanf:"log"`
}

// Source configures one input file and its logical schema.
type Source struct {
	Name      string                  `koanf:"name"`
	Role      string                  `koanf:"role"` // fact | dimension
	Path      string                  `koanf:"path"`
	URL       string                  `koanf:"url"` // read over HTTP instead of Path
	Encoding  string                  `koanf:"encoding"`  // utf-8 (default) | latin1 | windows-1252
	Delimiter string                  `koanf:"delimiter"` // single character, default ","
	Columns   []schema.ColumnSpec     `koanf:"columns"`
	Coerce    map[string]builtin.Rule `koanf:"coerce"`
	Keep      []builtin.Keep          `koanf:"keep"`
}

// Join configures one join step.
type Join struct {
	Right  string   `koanf:"right"`
	Key    []string `koanf:"key"`
	Mode   string   `koanf:"mode"`   // inner | left
	Unique string   `koanf:"unique"` // both | right
}

// Sink selects where the final table is written.
type Sink struct {
	// Kind is one of none, csv, sqlite, postgres, mssql, mysql.
	Kind string `koanf:"kind"`

	// Path is the output file of the csv sink.
	Path string `koanf:"path"`

	// DSN and Table configure database sinks.
	DSN   string `koanf:"dsn"`
	Table string `koanf:"table"`

	// AutoCreate creates the destination table from the final schema.
	AutoCreate bool `koanf:"auto_create"`

	BatchSize int `koanf:"batch_size"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string `koanf:"backend"` // none | prompush | datadog
	PushgatewayURL string `koanf:"pushgateway_url"`
	DatadogAddr    string `koanf:"datadog_addr"`
}

// Log configures the logger.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Sink kinds.
const (
	SinkNone     = "none"
	SinkCSV      = "csv"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
	SinkMSSQL    = "mssql"
	SinkMySQL    = "mysql"
)

// IsDatabase reports whether the sink writes through a storage.Repository.
func (s Sink) IsDatabase() bool {
	switch s.Kind {
	case SinkSQLite, SinkPostgres, SinkMSSQL, SinkMySQL:
		return true
	}
	return false
}

// Source returns the named source.
func (f *File) Source(name string) (Source, bool) {
	for _, s := range f.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// Pipeline converts the file into the core pipeline configuration. It does
// not run the pipeline's own checks; pass the result to pipeline.New.
func (f *File) Pipeline() (pipeline.Config, error) {
	rules, err := derive.BuildAll(f.Derive)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("config: %w", err)
	}

	cfg := pipeline.Config{
		Name:     f.Job,
		Derive:   rules,
		Required: append([]string(nil), f.Required...),
		Output:   append([]string(nil), f.Output...),
	}
	for _, s := range f.Sources {
		cfg.Sources = append(cfg.Sources, pipeline.Source{
			Spec: schema.TableSpec{
				Name:    s.Name,
				Role:    table.Role(s.Role),
				Columns: s.Columns,
			},
			Coerce: s.Coerce,
			Keep:   s.Keep,
		})
	}
	for _, j := range f.Joins {
		cfg.Joins = append(cfg.Joins, pipeline.JoinStep{
			Right: j.Right,
			Spec: reconcile.Spec{
				Key:    reconcile.Key(j.Key),
				Mode:   reconcile.Mode(j.Mode),
				Unique: reconcile.Unique(j.Unique),
			},
		})
	}
	return cfg, nil
}
