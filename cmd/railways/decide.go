package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	railways "github.com/rishitkumar8/Railways"
	"github.com/rishitkumar8/Railways/internal/presentation/tui"
	"github.com/rishitkumar8/Railways/pkg/domain"
)

var decideCmd = &cobra.Command{
	Use:   "decide [payload.json]",
	Short: "Run one evaluation cycle on a payload file",
	Long: `Reads a decide payload ({"trains": [...], "graph": {...}}) from a file or
stdin ("-"), runs one cycle and prints the decision. A terminal gets a
rendered report; pipes get JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) > 0 {
			path = args[0]
		}
		payload, err := readPayload(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}

		setup, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer setup.close()

		d, err := setup.engine.Evaluate(cmd.Context(), payload.Graph, payload.Trains)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		return printDecision(cmd.OutOrStdout(), d, asJSON || !isTerminal(os.Stdout))
	},
}

func readPayload(stdin io.Reader, path string) (railways.DecidePayload, error) {
	var payload railways.DecidePayload
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return payload, fmt.Errorf("open payload: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return payload, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

func printDecision(w io.Writer, d domain.Decision, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	out, err := tui.RenderDecision(d)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func init() {
	rootCmd.AddCommand(decideCmd)
	decideCmd.Flags().Bool("json", false, "Always print JSON")
}
