package graph

import (
	"fmt"
	"strings"

	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	Blocked []domain.EdgeKey
	// Route is a suggested path, drawn with thick links.
	Route []string
	// Conflict holds the stations where the worst pair currently runs.
	Conflict []string
}

// GenerateMermaid produces a Mermaid flowchart of the station graph.
// Links carry their length; blocked links are dotted and red, route links thick.
func GenerateMermaid(g *network.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, id := range g.Stations() {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", sanitizeMermaidID(id), id))
	}

	blocked := domain.EdgeSet{}
	onRoute := domain.EdgeSet{}
	if overlay != nil {
		for _, k := range overlay.Blocked {
			blocked.Add(k.A, k.B)
		}
		for i := 0; i+1 < len(overlay.Route); i++ {
			onRoute.Add(overlay.Route[i], overlay.Route[i+1])
		}
	}

	var blockedLinks []int
	for i, e := range g.Edges() {
		from, to := sanitizeMermaidID(e.From), sanitizeMermaidID(e.To)
		label := "?"
		if d, ok := g.Distance(e.From, e.To); ok {
			label = fmt.Sprintf("%.1f km", d/1000)
		}
		switch {
		case blocked.Contains(e.From, e.To):
			blockedLinks = append(blockedLinks, i)
			sb.WriteString(fmt.Sprintf("    %s -. \"blocked\" .- %s\n", from, to))
		case onRoute.Contains(e.From, e.To):
			sb.WriteString(fmt.Sprintf("    %s ===|\"%s\"| %s\n", from, label, to))
		default:
			sb.WriteString(fmt.Sprintf("    %s ---|\"%s\"| %s\n", from, label, to))
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef route fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef conflict fill:#ffcdd2,stroke:#d32f2f,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Route {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && g.HasStation(id) {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s route;\n", safeID))
			}
		}
		for _, id := range overlay.Conflict {
			if g.HasStation(id) {
				sb.WriteString(fmt.Sprintf("    class %s conflict;\n", sanitizeMermaidID(id)))
			}
		}
		for _, i := range blockedLinks {
			sb.WriteString(fmt.Sprintf("    linkStyle %d stroke:#d32f2f,stroke-width:3px;\n", i))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
