// Package cli provides the healthetl command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"healthetl/internal/config"
	"healthetl/internal/logging"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
		quiet   bool
	)

	rootCmd := &cobra.Command{
		Use:   "healthetl",
		Short: "Reconcile health indicator tables into one analysis table",
		Long: `healthetl loads indicator and metadata tables from CSV files, maps their
columns onto a canonical schema, coerces values, joins them on country and
year, derives analysis columns and writes the final table to a CSV file or a
database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			log := logging.New(logging.Config{
				Level:   cfg.Log.Level,
				Verbose: verbose,
				Quiet:   quiet,
				Format:  cfg.Log.Format,
				Output:  cmd.ErrOrStderr(),
			})
			if cfgFile != "" {
				log.Debug().Str("file", cfgFile).Msg("using config file")
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(log.WithContext(ctx))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "run configuration file (default: built-in UNICEF run)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.BoolVarP(&quiet, "quiet", "q", false, "only warnings and errors")
	pf.String("log-level", "", "log level (trace|debug|info|warn|error)")
	pf.String("log-format", "", "log format (console|json)")
	pf.String("job", "", "job name used for metrics and the final table")
	pf.String("metrics", "", "metrics backend (none|prompush|datadog)")
	pf.String("pushgateway", "", "Prometheus Pushgateway URL")
	pf.String("datadog", "", "DogStatsD address")

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{logging.FormatConsole, logging.FormatJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewPreviewCommand())
	rootCmd.AddCommand(NewVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the loaded configuration from the command context.
func GetConfig(ctx context.Context) (*config.File, error) {
	if c, ok := ctx.Value(configKey{}).(*config.File); ok {
		return c, nil
	}
	return config.Default()
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) zerolog.Logger {
	return *zerolog.Ctx(ctx)
}
