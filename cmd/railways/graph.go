package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rishitkumar8/Railways/internal/presentation/graph"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [network.json]",
	Short: "Export the station graph as a Mermaid diagram",
	Long: `Reads a network snapshot ({"stations": {...}, "edges": [...]}) and prints a
Mermaid flowchart. Without a file the built-in sample network is used.
--route highlights a path, as returned in suggested_path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := network.DefaultSnapshot()
		if len(args) > 0 {
			var err error
			if snap, err = readNetwork(args[0]); err != nil {
				return err
			}
		}

		route, _ := cmd.Flags().GetStringSlice("route")
		var overlay *graph.GraphOverlay
		if len(route) > 0 {
			overlay = &graph.GraphOverlay{Route: route}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(network.Build(snap), overlay))
		return nil
	},
}

func readNetwork(path string) (domain.NetworkSnapshot, error) {
	var snap domain.NetworkSnapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("read network: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode network: %w", err)
	}
	return snap, nil
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("route", nil, "Stations of a route to highlight, comma separated")
}
