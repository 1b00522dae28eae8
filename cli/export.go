package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dao-ai/builder/engine/generator"
	"github.com/dao-ai/builder/engine/importer"
	"github.com/dao-ai/builder/pkg/logger"
)

// ExportCmd reads a configuration file and regenerates it in canonical form,
// with anchors and aliases reconstructed.
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Regenerate a configuration file in canonical form",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := commandLogger(cmd)
			if err != nil {
				return err
			}
			input, _ := cmd.Flags().GetString("file")
			output, _ := cmd.Flags().GetString("output")

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", input, err)
			}
			cfg, idx, err := importer.Import(data)
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", input, err)
			}
			ctx := logger.ContextWith(cmd.Context(), log)
			text, err := generator.New(cfg, idx).GenerateYAML(ctx)
			if err != nil {
				return fmt.Errorf("failed to generate configuration: %w", err)
			}
			if output == "" || output == "-" {
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			}
			if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			log.Info("configuration exported", "input", input, "output", output)
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "config.yaml", "configuration file to read")
	cmd.Flags().StringP("output", "o", "model_config.yaml", "output file (- for stdout)")
	return cmd
}
