// Package cli wires the sessionwatch commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sessionwatch",
	Short: "Client-side telemetry session aggregator",
	Long:  "Aggregates raw telemetry events into versioned session, view, action,\nresource, and error records. Runs as an ingest daemon or replays recorded\nevent streams offline.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.sessionwatch/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
