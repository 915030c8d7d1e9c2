package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// DecisionMarkdown formats a decision as a markdown report.
func DecisionMarkdown(d domain.Decision) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", d.Action)
	if d.Reason != "" {
		fmt.Fprintf(&sb, "> %s\n\n", d.Reason)
	}

	sb.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Cycle | `%s` |\n", d.ID)
	if d.AgentID != "" {
		fmt.Fprintf(&sb, "| Train | **%s** |\n", d.AgentID)
	}
	fmt.Fprintf(&sb, "| Score | %.3f |\n", d.Score)
	if d.Critical {
		sb.WriteString("| Critical | yes |\n")
	}
	if d.BlockedEdge != nil {
		fmt.Fprintf(&sb, "| Blocked edge | %s |\n", d.BlockedEdge)
	}
	if len(d.SuggestedPath) > 0 {
		fmt.Fprintf(&sb, "| Suggested path | %s |\n", strings.Join(d.SuggestedPath, " → "))
	}
	fmt.Fprintf(&sb, "| Trains saved | %d |\n", d.TrainsSaved)

	if c := d.Conflict; c != nil {
		a := c.Assessment
		fmt.Fprintf(&sb, "\n## Conflict %s / %s\n\n", c.A, c.B)
		sb.WriteString("| Metric | Value |\n|---|---|\n")
		fmt.Fprintf(&sb, "| Distance now | %.0f m |\n", a.CurrentDistance)
		fmt.Fprintf(&sb, "| Distance at horizon | %.0f m |\n", a.FutureDistance)
		fmt.Fprintf(&sb, "| Relative speed | %.1f m/s |\n", a.RelativeSpeed)
		fmt.Fprintf(&sb, "| Time to collision | %.1f s |\n", a.TimeToCollision)
		fmt.Fprintf(&sb, "| Kinematic score | %.3f |\n", a.KinematicScore)
		fmt.Fprintf(&sb, "| Feed risk | %.3f (%s) |\n", a.FeedRisk, a.FeedStatus)
		if a.MonteCarlo != nil {
			fmt.Fprintf(&sb, "| Monte Carlo | %.2f |\n", *a.MonteCarlo)
		}
	}
	return sb.String()
}

// RenderDecision renders a decision report for the terminal.
func RenderDecision(d domain.Decision) (string, error) {
	return NewRenderer()(DecisionMarkdown(d))
}
