package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dao-ai/builder/pkg/logger"
)

// RootCmd builds the daobuilder command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "daobuilder",
		Short: "Build, validate, and export agent deployment configurations",
	}
	addLoggingFlags(root.PersistentFlags())

	root.AddCommand(
		ServeCmd(),
		ExportCmd(),
		ValidateCmd(),
		VersionCmd(),
	)

	return root
}

// addLoggingFlags registers the flags logger.GetLoggerConfig reads.
func addLoggingFlags(flags *pflag.FlagSet) {
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "emit logs as JSON")
	flags.Bool("log-source", false, "include source locations in logs")
}

// commandLogger builds a logger from the shared logging flags.
func commandLogger(cmd *cobra.Command) (logger.Logger, error) {
	level, json, source, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return nil, err
	}
	return logger.SetupLogger(level, json, source), nil
}
