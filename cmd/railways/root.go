package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "railways",
	Short: "Railways is a conflict detection and rerouting engine for train networks",
	Long: `Railways scores every pair of trains on a station graph, picks the worst
conflict of each cycle and proposes a reroute, a stop or nothing at all.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "railways.yaml", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringArray("set", nil, "Override a configuration key, e.g. --set risk.threshold=0.6")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}
