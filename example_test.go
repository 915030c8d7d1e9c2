package railways_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rishitkumar8/Railways"
	"github.com/rishitkumar8/Railways/pkg/config"
	"github.com/rishitkumar8/Railways/pkg/domain"
)

// Example shows two trains heading towards each other on a short line with a
// detour through D. The lower-priority train is rerouted around the edge it occupies.
func Example() {
	cfg := config.Default()
	cfg.Risk.Lookahead = 40 * time.Second
	cfg.Risk.MonteCarlo.Samples = 0

	eng, err := railways.New(railways.WithConfig(cfg))
	if err != nil {
		log.Fatal(err)
	}

	graph := domain.NetworkSnapshot{
		Stations: map[string]domain.Coordinate{
			"A": {Lat: 0, Lon: 0},
			"B": {Lat: 0, Lon: 0.01},
			"C": {Lat: 0, Lon: 0.02},
			"D": {Lat: 0.01, Lon: 0.01},
		},
		Edges: []domain.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}, {From: "C", To: "D"}, {From: "D", To: "A"}},
	}
	roster := []domain.Agent{
		{ID: "Agent1", Path: []string{"A", "C"}, Speed: 100, Priority: domain.IntPtr(2)},
		{ID: "Agent2", Path: []string{"C", "A"}, Speed: 100, Priority: domain.IntPtr(1)},
	}

	d, err := eng.Evaluate(context.Background(), graph, roster)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(d.Action, d.AgentID, d.BlockedEdge, d.SuggestedPath)
	// Output: REQUEST_CONFIRMATION Agent2 C-B [C D A]
}
