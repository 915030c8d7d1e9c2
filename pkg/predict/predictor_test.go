package predict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
)

func line() *network.Graph {
	return network.Build(domain.NetworkSnapshot{
		Stations: map[string]domain.Coordinate{
			"A": {Lat: 0, Lon: 0},
			"B": {Lat: 0, Lon: 0.01},
			"C": {Lat: 0, Lon: 0.02},
		},
		Edges: []domain.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}},
	})
}

func TestPredict_ShortPathUsesReportedPosition(t *testing.T) {
	a := domain.Agent{ID: "T", Path: []string{"A"}, Lat: 1, Lon: 2, Speed: 100}
	assert.Equal(t, domain.Coordinate{Lat: 1, Lon: 2}, Predict(line(), a, time.Minute))
}

func TestCurrent_InterpolatesProgress(t *testing.T) {
	a := domain.Agent{Path: []string{"A", "B", "C"}, Progress: 0.75}
	c := Current(line(), a)
	assert.InDelta(t, 0.015, c.Lon, 1e-12)
	assert.InDelta(t, 0, c.Lat, 1e-12)
}

func TestPredict_WalksAcrossEdges(t *testing.T) {
	g := line()
	ab, _ := g.Distance("A", "B")

	// 1.5 edges in 60 s.
	speed := 1.5 * ab / 60 * 3.6
	a := domain.Agent{Path: []string{"A", "B", "C"}, Speed: speed}
	c := Predict(g, a, time.Minute)
	assert.InDelta(t, 0.015, c.Lon, 1e-6)
}

func TestPredict_StopsAtFinalStation(t *testing.T) {
	a := domain.Agent{Path: []string{"A", "B", "C"}, Progress: 0.9, Speed: 300}
	assert.Equal(t, domain.Coordinate{Lat: 0, Lon: 0.02}, Predict(line(), a, time.Hour))
}

func TestPredict_MissingStationFallsBack(t *testing.T) {
	a := domain.Agent{Path: []string{"A", "B", "Q"}, Progress: 0.2, Speed: 500, Lat: 7, Lon: 8}
	assert.Equal(t, domain.Coordinate{Lat: 7, Lon: 8}, Predict(line(), a, time.Hour))

	b := domain.Agent{Path: []string{"Q", "A"}, Lat: 3, Lon: 4}
	assert.Equal(t, domain.Coordinate{Lat: 3, Lon: 4}, Current(line(), b))
}

func TestPredict_ZeroSpeedStaysPut(t *testing.T) {
	a := domain.Agent{Path: []string{"A", "C"}, Progress: 0.5}
	c := Predict(line(), a, time.Hour)
	assert.InDelta(t, 0.01, c.Lon, 1e-12)
}

func TestKmhToMps(t *testing.T) {
	assert.InDelta(t, 27.7778, KmhToMps(100), 1e-4)
	assert.Zero(t, KmhToMps(-5))
}
