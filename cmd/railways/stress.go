package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Generate a stress payload",
	Long: `Generates random trains on the built-in sample network (or the network
given with --network) and prints a payload ready for "railways decide".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		chaos, _ := cmd.Flags().GetBool("chaos")
		evaluate, _ := cmd.Flags().GetBool("evaluate")

		setup, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer setup.close()

		if path, _ := cmd.Flags().GetString("network"); path != "" {
			snap, err := readNetwork(path)
			if err != nil {
				return err
			}
			if _, err := setup.engine.Sync(cmd.Context(), snap); err != nil {
				return err
			}
		}

		p := setup.engine.StressPayload(cmd.Context(), count, chaos)
		if evaluate {
			d, err := setup.engine.Evaluate(cmd.Context(), p.Graph, p.Trains)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			return printDecision(cmd.OutOrStdout(), d, asJSON || !isTerminal(os.Stdout))
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(p.Sample)
	},
}

func init() {
	rootCmd.AddCommand(stressCmd)
	stressCmd.Flags().IntP("count", "n", 50, "Number of trains")
	stressCmd.Flags().Bool("chaos", false, "Widen the speed range")
	stressCmd.Flags().String("network", "", "Network snapshot file")
	stressCmd.Flags().Bool("evaluate", false, "Run a cycle on the generated trains and print the decision")
	stressCmd.Flags().Bool("json", false, "Print the decision as JSON (with --evaluate)")
}
