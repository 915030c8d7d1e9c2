package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitkumar8/Railways/pkg/adapters/memory"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
	"github.com/rishitkumar8/Railways/pkg/ports"
)

// diamond: A -> {B, C} -> D, both branches the same length, plus a D-E spur.
func diamond() *network.Graph {
	return network.Build(domain.NetworkSnapshot{
		Stations: map[string]domain.Coordinate{
			"A": {Lat: 0, Lon: 0},
			"B": {Lat: 0.01, Lon: 0.01},
			"C": {Lat: -0.01, Lon: 0.01},
			"D": {Lat: 0, Lon: 0.02},
			"E": {Lat: 0.05, Lon: 0.05},
		},
		Edges: []domain.Edge{
			{From: "A", To: "B"}, {From: "B", To: "D"},
			{From: "A", To: "C"}, {From: "C", To: "D"},
			{From: "D", To: "E"},
		},
	})
}

func TestRoute_ZeroRiskCostIsDistance(t *testing.T) {
	g := diamond()
	r := New()

	route, ok := r.Route(context.Background(), g, nil, "A", "E")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "D", "E"}, route.Path)
	assert.InDelta(t, PathDistance(g, route.Path), route.Cost, 1e-6)
	assert.Equal(t, route.Distance, route.Cost)
}

func TestRoute_TieBreakIsDeterministic(t *testing.T) {
	g := diamond()
	r := New()
	first, ok := r.Route(context.Background(), g, nil, "A", "D")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "D"}, first.Path)

	for i := 0; i < 20; i++ {
		again, _ := r.Route(context.Background(), diamond(), nil, "A", "D")
		assert.Equal(t, first, again)
	}
}

func TestRoute_NeverUsesBlockedEdge(t *testing.T) {
	g := diamond()
	r := New()
	blocked := domain.NewEdgeSet(domain.Edge{From: "D", To: "B"})

	for _, start := range g.Stations() {
		for _, goal := range g.Stations() {
			route, ok := r.Route(context.Background(), g, blocked, start, goal)
			if !ok {
				continue
			}
			for i := 0; i+1 < len(route.Path); i++ {
				assert.False(t, blocked.Contains(route.Path[i], route.Path[i+1]),
					"%s->%s used blocked edge in %v", start, goal, route.Path)
			}
		}
	}

	route, ok := r.Route(context.Background(), g, blocked, "B", "D")
	require.True(t, ok)
	assert.Equal(t, []string{"B", "A", "C", "D"}, route.Path)
}

func TestRoute_NoPath(t *testing.T) {
	g := diamond()
	r := New()
	blocked := domain.NewEdgeSet(domain.Edge{From: "D", To: "E"})

	_, ok := r.Route(context.Background(), g, blocked, "A", "E")
	assert.False(t, ok)

	_, ok = r.Route(context.Background(), g, nil, "A", "nowhere")
	assert.False(t, ok)

	self, ok := r.Route(context.Background(), g, nil, "C", "C")
	require.True(t, ok)
	assert.Equal(t, []string{"C"}, self.Path)
}

func TestRoute_PrefersLowRiskTrack(t *testing.T) {
	feed := memory.NewFeed()
	ctx := context.Background()
	require.NoError(t, feed.PutSegment(ctx, "A", "B", []float64{1, 1, 0.8}))
	require.NoError(t, feed.PutSegment(ctx, "D", "B", []float64{0.9}))

	r := New(WithFeed(feed))
	route, ok := r.Route(ctx, diamond(), nil, "A", "D")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "C", "D"}, route.Path)
	assert.GreaterOrEqual(t, route.Cost, route.Distance)
}

func TestRoute_RiskNeverDiscounts(t *testing.T) {
	feed := memory.NewFeed()
	ctx := context.Background()
	require.NoError(t, feed.PutSegment(ctx, "A", "C", []float64{0.5}))

	route, ok := New(WithFeed(feed)).Route(ctx, diamond(), domain.NewEdgeSet(domain.Edge{From: "A", To: "B"}), "A", "D")
	require.True(t, ok)
	assert.Greater(t, route.Cost, route.Distance)
}

type flakyFeed struct{ ports.NopFeed }

func (flakyFeed) SegmentRisk(context.Context, string, string) domain.FeedSample {
	return domain.Unavailable(errors.New("timeout"))
}

func TestRoute_FeedFailureUsesRawDistance(t *testing.T) {
	failures := 0
	r := New(WithFeed(flakyFeed{}), WithFeedErrorHook(func(string) { failures++ }))

	route, ok := r.Route(context.Background(), diamond(), nil, "A", "D")
	require.True(t, ok)
	assert.Equal(t, route.Distance, route.Cost)
	assert.Positive(t, failures)
}

func TestExpand(t *testing.T) {
	g := diamond()
	r := New()

	assert.Equal(t, []string{"A", "B", "D"}, r.Expand(g, []string{"A", "D"}))
	assert.Equal(t, []string{"E", "D", "B", "A"}, r.Expand(g, []string{"E", "A"}))
	assert.Equal(t, []string{"A", "B"}, r.Expand(g, []string{"A", "B"}))
	assert.Equal(t, []string{"A", "Q", "D"}, r.Expand(g, []string{"A", "Q", "D"}))
	assert.Equal(t, []string{"A"}, r.Expand(g, []string{"A"}))
}

type countingFeed struct {
	ports.NopFeed
	segments int
}

func (f *countingFeed) SegmentRisk(context.Context, string, string) domain.FeedSample {
	f.segments++
	return domain.NoData()
}

func TestRouteWeighted_ReadsFeedOncePerGraph(t *testing.T) {
	feed := &countingFeed{}
	r := New(WithFeed(feed))
	g := diamond()

	w := r.Weigh(context.Background(), g)
	require.Len(t, w, len(g.Edges()))
	assert.Equal(t, 2*len(g.Edges()), feed.segments, "both orientations of every edge")

	for _, goal := range []string{"B", "C", "D", "E"} {
		_, ok := r.RouteWeighted(g, w, nil, "A", goal)
		assert.True(t, ok, goal)
	}
	assert.Equal(t, 2*len(g.Edges()), feed.segments)

	route, ok := r.RouteWeighted(g, w, domain.NewEdgeSet(domain.Edge{From: "B", To: "D"}), "A", "D")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "C", "D"}, route.Path)

	_, ok = r.RouteWeighted(g, nil, nil, "A", "D")
	assert.False(t, ok, "no weights, no usable edge")
}
