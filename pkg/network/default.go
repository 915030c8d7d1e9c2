package network

import "github.com/rishitkumar8/Railways/pkg/domain"

// DefaultSnapshot is the six station corridor used until a caller syncs a real graph.
func DefaultSnapshot() domain.NetworkSnapshot {
	return domain.NetworkSnapshot{
		Stations: map[string]domain.Coordinate{
			"A": {Lat: 28.60, Lon: 77.20},
			"B": {Lat: 28.00, Lon: 78.00},
			"C": {Lat: 26.90, Lon: 80.90},
			"D": {Lat: 27.50, Lon: 79.50},
			"E": {Lat: 27.20, Lon: 78.80},
			"F": {Lat: 26.50, Lon: 79.90},
		},
		Edges: []domain.Edge{
			{From: "A", To: "C"},
			{From: "A", To: "B"},
			{From: "B", To: "D"},
			{From: "D", To: "C"},
			{From: "B", To: "E"},
			{From: "E", To: "F"},
			{From: "F", To: "C"},
		},
	}
}
