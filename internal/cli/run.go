package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"healthetl/internal/config"
	"healthetl/internal/metrics"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the sources, reconcile them and write the final table",
		Long: `Load every configured source, run the reconciliation pipeline and write the
final table to the configured sink. A summary of what each stage kept and
dropped is printed when the run completes.`,
		Example: `  # Run the built-in UNICEF reconciliation
  healthetl run

  # Write into SQLite instead of CSV
  healthetl run --sink sqlite --dsn unicef.db --table final --auto-create

  # Use a run file and push metrics
  healthetl run -c run.yaml --metrics prompush --pushgateway http://localhost:9091`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd)
		},
	}

	cmd.Flags().String("sink", "", "sink kind (none|csv|sqlite|postgres|mssql|mysql)")
	cmd.Flags().String("out", "", "output path of the csv sink")
	cmd.Flags().String("dsn", "", "database connection string")
	cmd.Flags().String("table", "", "destination table")
	cmd.Flags().Bool("auto-create", false, "create the destination table if missing")
	cmd.Flags().Int("batch-size", 0, "rows per database batch")

	return cmd
}

func runRun(cmd *cobra.Command) (err error) {
	ctx := cmd.Context()
	log := GetLogger(ctx)
	cfg, err := GetConfig(ctx)
	if err != nil {
		return err
	}
	if issues := config.Validate(cfg); config.HasErrors(issues) {
		return issuesError(issues)
	}

	flush, err := installMetrics(cfg.Job, cfg.Metrics)
	if err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		metrics.RecordRun(cfg.Job, err, time.Since(start))
		if ferr := flush(); ferr != nil {
			log.Warn().Err(ferr).Msg("metrics flush failed")
		}
	}()

	o, err := execute(ctx, cfg, log)
	if err != nil {
		return err
	}
	recordMetrics(cfg.Job, o)

	written, err := writeSink(ctx, cfg.Sink, o.Result.Table, tableKey(cfg), log)
	if err != nil {
		return fmt.Errorf("write %s sink: %w", cfg.Sink.Kind, err)
	}
	metrics.RecordRows(cfg.Job, metrics.KindWritten, written)

	printSummary(cmd.OutOrStdout(), o)
	if cfg.Sink.Kind != "" && cfg.Sink.Kind != config.SinkNone {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s rows to %s\n", humanize.Comma(written), sinkTarget(cfg.Sink))
	}
	log.Info().
		Str("job", cfg.Job).
		Int("rows", o.Result.Table.Len()).
		Int64("written", written).
		Dur("elapsed", time.Since(start)).
		Msg("run complete")
	return nil
}

func sinkTarget(s config.Sink) string {
	if s.Kind == config.SinkCSV {
		return s.Path
	}
	return s.Kind + ":" + s.Table
}

// printSummary renders load counts and diagnostics.
func printSummary(w io.Writer, o *outcome) {
	for _, f := range o.Load.Files {
		_, _ = fmt.Fprintf(w, "Loaded %-10s %s rows from %s", f.Name, humanize.Comma(int64(f.Rows)), f.File)
		if f.Skipped > 0 {
			_, _ = fmt.Fprintf(w, " (%s malformed rows skipped)", humanize.Comma(int64(f.Skipped)))
		}
		_, _ = fmt.Fprintln(w)
	}

	d := o.Result.Diagnostics
	_, _ = fmt.Fprintln(w, "Stages:")
	for _, s := range d.Stages {
		_, _ = fmt.Fprintf(w, "  %-18s %8s -> %-8s", s.Stage, humanize.Comma(int64(s.In)), humanize.Comma(int64(s.Out)))
		if s.Dropped() > 0 {
			_, _ = fmt.Fprintf(w, " dropped %s", humanize.Comma(int64(s.Dropped())))
		}
		_, _ = fmt.Fprintln(w)
	}

	if n := d.TotalCoercionFailures(); n > 0 {
		_, _ = fmt.Fprintf(w, "Coercion failures: %s (%s)\n", humanize.Comma(int64(n)), countList(d.CoercionFailures))
	}
	for _, j := range d.Joins {
		_, _ = fmt.Fprintf(w, "Join %s %s %s: %s matched, %s unmatched left, %s unmatched right, %s null keys\n",
			j.Left, j.Mode, j.Right,
			humanize.Comma(int64(j.Stats.Matched)),
			humanize.Comma(int64(j.Stats.UnmatchedLeft)),
			humanize.Comma(int64(j.Stats.UnmatchedRight)),
			humanize.Comma(int64(j.Stats.NullKeys)))
	}
	if d.RequiredDropped > 0 {
		_, _ = fmt.Fprintf(w, "Dropped for missing required values: %s\n", humanize.Comma(int64(d.RequiredDropped)))
	}
	_, _ = fmt.Fprintf(w, "Final table %s: %s rows, digest %s\n",
		o.Result.Table.Name, humanize.Comma(int64(o.Result.Table.Len())), d.Digest)
}

func countList(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, humanize.Comma(int64(m[k]))))
	}
	return strings.Join(parts, ", ")
}

// issuesError joins error-severity issues into one error.
func issuesError(issues []config.Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == config.SeverityError {
			errs = append(errs, iss)
		}
	}
	return fmt.Errorf("invalid configuration:\n%w", errors.Join(errs...))
}

