package graph_test

import (
	"strings"
	"testing"

	"github.com/rishitkumar8/Railways/internal/presentation/graph"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
)

func line() *network.Graph {
	return network.Build(domain.NetworkSnapshot{
		Stations: map[string]domain.Coordinate{
			"A":         {Lat: 0, Lon: 0},
			"B":         {Lat: 0, Lon: 0.01},
			"C":         {Lat: 0, Lon: 0.02},
			"New Delhi": {Lat: 0.01, Lon: 0.01},
		},
		Edges: []domain.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}, {From: "C", To: "New Delhi"}, {From: "New Delhi", To: "A"}},
	})
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Stations And Lengths",
			contains: []string{
				"graph LR",
				`A["A"]`,
				`A ---|"1.1 km"| B`,
			},
			excludes: []string{"classDef"},
		},
		{
			name: "ID Sanitization",
			contains: []string{
				`New_Delhi["New Delhi"]`,
				`C ---|"1.6 km"| New_Delhi`,
			},
		},
		{
			name: "Blocked Edge",
			overlay: &graph.GraphOverlay{
				Blocked: []domain.EdgeKey{domain.NewEdgeKey("C", "B")},
			},
			contains: []string{
				`B -. "blocked" .- C`,
				"linkStyle 1 stroke:#d32f2f",
			},
		},
		{
			name: "Route Overlay",
			overlay: &graph.GraphOverlay{
				Route:    []string{"C", "New Delhi", "A"},
				Conflict: []string{"B", "ghost"},
			},
			contains: []string{
				`C ===|"1.6 km"| New_Delhi`,
				"class New_Delhi route;",
				"class B conflict;",
			},
			excludes: []string{"class ghost"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(line(), tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
		})
	}
}
