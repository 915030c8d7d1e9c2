package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rishitkumar8/Railways/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <network.json>",
	Short: "Check a network snapshot for consistency",
	Long:  `Reports edges the engine would skip (unknown stations, self loops, duplicates), invalid coordinates and unreachable stations.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readNetwork(args[0])
		if err != nil {
			return err
		}
		if err := validator.ValidateNetwork(snap); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Network is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
