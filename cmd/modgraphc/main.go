// Command modgraphc compiles editor project files into mod scripts offline.
package main

import (
	"os"

	"modgraph"

	"github.com/spf13/cobra"
)

var (
	logLevel string
	logger   = modgraph.NewConsoleLogger("warn")
)

var rootCmd = &cobra.Command{
	Use:           "modgraphc",
	Short:         "Compile node graph projects into Squirrel mod scripts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = modgraph.NewConsoleLogger(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "Log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("modgraphc failed")
		os.Exit(1)
	}
}
