package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"healthetl/internal/config"
	"healthetl/internal/export"
)

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	var (
		limit  int
		source string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the first rows of the final table",
		Long: `Run the pipeline without writing anything and render the first rows of the
final table. With --source, render the named input as it was read instead.`,
		Example: `  healthetl preview --limit 20
  healthetl preview --source metadata`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := GetConfig(ctx)
			if err != nil {
				return err
			}
			if issues := config.Validate(cfg); config.HasErrors(issues) {
				return issuesError(issues)
			}
			if source != "" {
				if _, ok := cfg.Source(source); !ok {
					return fmt.Errorf("no source named %q", source)
				}
			}

			o, err := execute(ctx, cfg, GetLogger(ctx))
			if err != nil {
				return err
			}

			t := o.Result.Table
			if source != "" {
				if t, err = o.sourceTable(source); err != nil {
					return err
				}
			}
			export.Preview(cmd.OutOrStdout(), t, limit)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of rows to show")
	cmd.Flags().StringVar(&source, "source", "", "preview a raw input instead of the final table")
	return cmd
}
