package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

func TestBuild_SkipsInvalidEdges(t *testing.T) {
	g := Build(domain.NetworkSnapshot{
		Stations: map[string]domain.Coordinate{
			"A": {Lat: 0, Lon: 0},
			"B": {Lat: 0, Lon: 0.01},
			"C": {Lat: 0, Lon: 0.02},
			"X": {Lat: math.NaN(), Lon: 1},
		},
		Edges: []domain.Edge{
			{From: "A", To: "B"},
			{From: "B", To: "A"},
			{From: "B", To: "C"},
			{From: "C", To: "Z"},
			{From: "A", To: "A"},
			{From: "X", To: "A"},
		},
	})

	assert.Equal(t, 3, g.Len())
	assert.Len(t, g.Edges(), 2)
	assert.Len(t, g.Skipped(), 3)
	assert.True(t, g.HasEdge("B", "A"))
	assert.False(t, g.HasEdge("A", "C"))
	assert.Equal(t, []string{"A", "C"}, g.Neighbors("B"))
	assert.Equal(t, []string{"A", "B", "C"}, g.Stations())
	assert.False(t, g.HasStation("X"))
}

func TestDistance(t *testing.T) {
	g := Build(domain.NetworkSnapshot{
		Stations: map[string]domain.Coordinate{
			"A": {Lat: 0, Lon: 0},
			"B": {Lat: 0, Lon: 0.01},
		},
		Edges: []domain.Edge{{From: "A", To: "B"}},
	})

	d, ok := g.Distance("A", "B")
	require.True(t, ok)
	// 0.01 degree of longitude on the equator is a little over 1.1 km.
	assert.InDelta(t, 1113, d, 5)

	back, _ := g.Distance("B", "A")
	assert.Equal(t, d, back)

	_, ok = g.Distance("A", "nowhere")
	assert.False(t, ok)
}

func TestInterpolate(t *testing.T) {
	a := domain.Coordinate{Lat: 10, Lon: 20}
	b := domain.Coordinate{Lat: 20, Lon: 40}
	assert.Equal(t, domain.Coordinate{Lat: 15, Lon: 30}, Interpolate(a, b, 0.5))
	assert.Equal(t, b, Interpolate(a, b, 3))
}

func TestDefaultSnapshot(t *testing.T) {
	g := Build(DefaultSnapshot())
	assert.Equal(t, 6, g.Len())
	assert.Len(t, g.Edges(), 7)
	assert.Empty(t, g.Skipped())
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := Build(DefaultSnapshot())
	again := Build(g.Snapshot())
	assert.Equal(t, g.Stations(), again.Stations())
	assert.Equal(t, g.Edges(), again.Edges())
}
