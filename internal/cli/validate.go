package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"healthetl/internal/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the run configuration without reading any data",
		Long: `Lint the run configuration: source declarations, joins, derive rules, the
sink and the metrics backend. The pipeline is also assembled, so unknown
join keys or output columns that are never produced are reported.`,
		Example: `  healthetl validate -c run.yaml
  healthetl validate --strict`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := GetConfig(cmd.Context())
			if err != nil {
				return err
			}
			issues := config.Validate(cfg)
			out := cmd.OutOrStdout()
			for _, iss := range issues {
				_, _ = fmt.Fprintf(out, "%-7s %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if config.HasErrors(issues) || (strict && len(issues) > 0) {
				return fmt.Errorf("%d configuration issue(s)", len(issues))
			}
			_, _ = fmt.Fprintf(out, "configuration %q is valid (%d sources, %d joins, %d derived columns)\n",
				cfg.Job, len(cfg.Sources), len(cfg.Joins), len(cfg.Derive))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}
