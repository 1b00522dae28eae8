package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dao-ai/builder/engine/server"
	"github.com/dao-ai/builder/pkg/config"
	"github.com/dao-ai/builder/pkg/logger"
)

// ServeCmd runs the HTTP API.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the builder HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := commandLogger(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if host, _ := cmd.Flags().GetString("host"); host != "" {
				cfg.Server.Host = host
			}
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(
				logger.ContextWith(cmd.Context(), log),
				syscall.SIGINT, syscall.SIGTERM,
			)
			defer stop()

			if err := server.New(cfg, log).Run(ctx); err != nil {
				return fmt.Errorf("serve failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("host", "", "listen host (overrides configuration)")
	cmd.Flags().Int("port", 0, "listen port (overrides configuration)")
	return cmd
}
