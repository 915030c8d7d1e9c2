// Package testutils holds fixtures shared by the package tests.
package testutils

import (
	"time"

	"github.com/rishitkumar8/Railways/pkg/config"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/risk"
)

// LineNetwork returns three stations on the equator, A-B-C, about 1.1 km
// apart. withDetour adds D north of B, linked to C and A.
func LineNetwork(withDetour bool) domain.NetworkSnapshot {
	g := domain.NetworkSnapshot{
		Stations: map[string]domain.Coordinate{
			"A": {Lat: 0, Lon: 0},
			"B": {Lat: 0, Lon: 0.01},
			"C": {Lat: 0, Lon: 0.02},
		},
		Edges: []domain.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}},
	}
	if withDetour {
		g.Stations["D"] = domain.Coordinate{Lat: 0.01, Lon: 0.01}
		g.Edges = append(g.Edges, domain.Edge{From: "C", To: "D"}, domain.Edge{From: "D", To: "A"})
	}
	return g
}

// HeadOnRoster returns two trains leaving A and C toward each other at
// 100 km/h. Agent2 has the lower priority.
func HeadOnRoster() []domain.Agent {
	return []domain.Agent{
		{ID: "Agent1", Path: []string{"A", "C"}, Progress: 0, Speed: 100, Priority: domain.IntPtr(2)},
		{ID: "Agent2", Path: []string{"C", "A"}, Progress: 0, Speed: 100, Priority: domain.IntPtr(1)},
	}
}

// ScenarioParams are the default risk parameters with a 40 s horizon and
// Monte Carlo disabled, so HeadOnRoster on LineNetwork crosses the threshold
// deterministically.
func ScenarioParams() risk.Params {
	p := risk.DefaultParams()
	p.Lookahead = 40 * time.Second
	p.MonteCarlo.Samples = 0
	return p
}

// ScenarioConfig is config.Default with ScenarioParams applied.
func ScenarioConfig() config.Config {
	cfg := config.Default()
	cfg.Risk.Lookahead = 40 * time.Second
	cfg.Risk.MonteCarlo.Samples = 0
	return cfg
}
