package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"healthetl/internal/logging"
	"healthetl/internal/parser/csv"
	"healthetl/internal/pipeline"
	"healthetl/internal/reconcile"
	"healthetl/internal/table"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "sink.kind",
// "sources[1].encoding"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of f. It does not mutate f.
//
// Structural checks run first. When they pass, the file is converted with
// Pipeline and handed to pipeline.New, whose error (unknown join columns,
// columns never produced, ...) is reported at path "pipeline".
func Validate(f *File) []Issue {
	var issues []Issue

	if strings.TrimSpace(f.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and the final table",
		})
	}
	issues = append(issues, validateSources(f.Sources)...)
	issues = append(issues, validateJoins(f)...)
	issues = append(issues, validateDerive(f)...)
	if len(f.Output) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output",
			Message:  "output must list at least one column",
		})
	}
	issues = append(issues, validateSink(f.Sink)...)
	issues = append(issues, validateMetrics(f.Metrics)...)
	issues = append(issues, validateLog(f.Log)...)

	if HasErrors(issues) {
		return issues
	}
	cfg, err := f.Pipeline()
	if err == nil {
		_, err = pipeline.New(cfg)
	}
	if err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "pipeline",
			Message:  err.Error(),
		})
	}
	return issues
}

func validateSources(srcs []Source) []Issue {
	var issues []Issue
	if len(srcs) == 0 {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources",
			Message:  "at least one source is required",
		})
	}

	seen := map[string]int{}
	for i, s := range srcs {
		path := fmt.Sprintf("sources[%d]", i)
		if strings.TrimSpace(s.Name) == "" {
			issues = append(issues, Issue{SeverityError, path + ".name", "source name must not be empty"})
		} else if prev, dup := seen[s.Name]; dup {
			issues = append(issues, Issue{SeverityError, path + ".name", fmt.Sprintf("duplicate source %q (also sources[%d])", s.Name, prev)})
		} else {
			seen[s.Name] = i
		}

		switch table.Role(s.Role) {
		case table.RoleFact, table.RoleDimension:
		case table.RoleRaw:
			issues = append(issues, Issue{SeverityWarning, path + ".role", "role is empty; use fact or dimension"})
		default:
			issues = append(issues, Issue{SeverityError, path + ".role", fmt.Sprintf("unknown role %q", s.Role)})
		}

		switch hasPath, hasURL := strings.TrimSpace(s.Path) != "", strings.TrimSpace(s.URL) != ""; {
		case !hasPath && !hasURL:
			issues = append(issues, Issue{SeverityError, path + ".path", "source requires a non-empty path or url"})
		case hasPath && hasURL:
			issues = append(issues, Issue{SeverityError, path + ".url", "set either path or url, not both"})
		case hasURL && !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://"):
			issues = append(issues, Issue{SeverityError, path + ".url", "url must use http or https"})
		}
		if !csv.ValidEncoding(s.Encoding) {
			issues = append(issues, Issue{SeverityError, path + ".encoding", fmt.Sprintf("unsupported encoding %q", s.Encoding)})
		}
		if s.Delimiter != "" && utf8.RuneCountInString(s.Delimiter) != 1 {
			issues = append(issues, Issue{SeverityError, path + ".delimiter", "delimiter must be a single character"})
		}
		if len(s.Columns) == 0 {
			issues = append(issues, Issue{SeverityError, path + ".columns", "source declares no columns"})
		}
	}
	return issues
}

func validateJoins(f *File) []Issue {
	var issues []Issue
	if len(f.Sources) > 1 && len(f.Joins) == 0 {
		issues = append(issues, Issue{SeverityError, "joins", "several sources but no joins"})
	}
	for i, j := range f.Joins {
		path := fmt.Sprintf("joins[%d]", i)
		if _, ok := f.Source(j.Right); !ok {
			issues = append(issues, Issue{SeverityError, path + ".right", fmt.Sprintf("unknown source %q", j.Right)})
		}
		if len(j.Key) == 0 {
			issues = append(issues, Issue{SeverityError, path + ".key", "join key must not be empty"})
		}
		switch reconcile.Mode(j.Mode) {
		case reconcile.Inner, reconcile.Left:
		default:
			issues = append(issues, Issue{SeverityError, path + ".mode", fmt.Sprintf("unknown join mode %q; use inner or left", j.Mode)})
		}
		switch reconcile.Unique(j.Unique) {
		case reconcile.UniqueBoth, reconcile.UniqueRight:
		case "":
			issues = append(issues, Issue{SeverityWarning, path + ".unique", "unique is empty; both sides must be unique"})
		default:
			issues = append(issues, Issue{SeverityError, path + ".unique", fmt.Sprintf("unknown uniqueness %q; use both or right", j.Unique)})
		}
	}
	return issues
}

func validateDerive(f *File) []Issue {
	var issues []Issue
	for i, d := range f.Derive {
		if _, err := d.Build(); err != nil {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("derive[%d]", i), err.Error()})
		}
	}
	return issues
}

func validateSink(s Sink) []Issue {
	var issues []Issue
	switch s.Kind {
	case "", SinkNone:
		issues = append(issues, Issue{SeverityWarning, "sink.kind", "no sink configured; the final table is only summarized"})
	case SinkCSV:
		if strings.TrimSpace(s.Path) == "" {
			issues = append(issues, Issue{SeverityError, "sink.path", "csv sink requires a path"})
		}
	case SinkSQLite, SinkPostgres, SinkMSSQL, SinkMySQL:
		if strings.TrimSpace(s.DSN) == "" {
			issues = append(issues, Issue{SeverityError, "sink.dsn", fmt.Sprintf("%s sink requires a dsn", s.Kind)})
		}
		if strings.TrimSpace(s.Table) == "" {
			issues = append(issues, Issue{SeverityError, "sink.table", fmt.Sprintf("%s sink requires a table", s.Kind)})
		}
		if !s.AutoCreate {
			issues = append(issues, Issue{SeverityWarning, "sink.auto_create", "auto_create is false; the destination table must already exist"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "sink.kind", fmt.Sprintf("unknown sink kind %q", s.Kind)})
	}
	if s.BatchSize < 0 {
		issues = append(issues, Issue{SeverityError, "sink.batch_size", "batch_size must not be negative"})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "prompush":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", "prompush backend requires pushgateway_url"})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "metrics.backend", fmt.Sprintf("unknown metrics backend %q", m.Backend)})
	}
	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue
	if l.Level != "" && !logging.ValidLevel(l.Level) {
		issues = append(issues, Issue{SeverityWarning, "log.level", fmt.Sprintf("unknown level %q; info is used", l.Level)})
	}
	switch strings.ToLower(l.Format) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		issues = append(issues, Issue{SeverityWarning, "log.format", fmt.Sprintf("unknown format %q", l.Format)})
	}
	return issues
}
