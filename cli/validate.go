package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dao-ai/builder/engine/schema"
	"github.com/dao-ai/builder/pkg/config"
	"github.com/dao-ai/builder/pkg/logger"
)

// ValidateCmd validates a configuration file against the published schema.
func ValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file against the schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := commandLogger(cmd)
			if err != nil {
				return err
			}
			appCfg, err := config.Load()
			if err != nil {
				return err
			}
			input, _ := cmd.Flags().GetString("file")
			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", input, err)
			}

			ctx := logger.ContextWith(cmd.Context(), log)
			result := schema.New(appCfg.Schema.URL, nil).Validate(ctx, string(data))
			switch result.Status {
			case schema.StatusValid:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", input)
				return nil
			case schema.StatusIncomplete:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: incomplete (not yet deployable)\n", input)
				return nil
			case schema.StatusSkipped:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: skipped (%s)\n", input, result.Detail)
				return nil
			default:
				for _, issue := range result.Issues {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s (%s)\n", issue.Path, issue.Message, issue.Keyword)
				}
				return fmt.Errorf("%s: %d validation issue(s)", input, len(result.Issues))
			}
		},
	}
	cmd.Flags().StringP("file", "f", "config.yaml", "configuration file to validate")
	return cmd
}
