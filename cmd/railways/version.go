package main

import (
	"fmt"

	"github.com/spf13/cobra"

	railways "github.com/rishitkumar8/Railways"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of railways",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "railways version %s\n", railways.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
