package risk

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitkumar8/Railways/pkg/adapters/memory"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
	"github.com/rishitkumar8/Railways/pkg/ports"
)

func corridor() *network.Graph {
	return network.Build(domain.NetworkSnapshot{
		Stations: map[string]domain.Coordinate{
			"A": {Lat: 0, Lon: 0},
			"B": {Lat: 0, Lon: 0.01},
			"C": {Lat: 0, Lon: 0.02},
			"X": {Lat: 0, Lon: 1.0},
			"Y": {Lat: 0, Lon: 1.5},
		},
		Edges: []domain.Edge{
			{From: "A", To: "B"}, {From: "B", To: "C"}, {From: "X", To: "Y"},
		},
	})
}

func noMonteCarlo() Params {
	p := DefaultParams()
	p.MonteCarlo.Samples = 0
	return p
}

func TestAssess_FarApartIsBelowThreshold(t *testing.T) {
	e := NewEvaluator(noMonteCarlo())
	a := domain.Agent{ID: "T1", Path: []string{"A", "B"}, Speed: 300}
	b := domain.Agent{ID: "T2", Path: []string{"X", "Y"}, Speed: 300}

	r := e.Assess(corridor(), a, b, domain.NoData(), domain.NoData())

	assert.Zero(t, r.ProximityScore)
	assert.Zero(t, r.TTCScore)
	assert.Less(t, r.Score, 0.1)
	assert.Less(t, r.Score, e.Params().Threshold)
}

func TestAssess_HeadOnSaturatesTTC(t *testing.T) {
	p := noMonteCarlo()
	p.Lookahead = 40 * time.Second
	e := NewEvaluator(p)

	a := domain.Agent{ID: "T1", Path: []string{"A", "B", "C"}, Speed: 100}
	b := domain.Agent{ID: "T2", Path: []string{"C", "B", "A"}, Speed: 100}

	r := e.Assess(corridor(), a, b, domain.NoData(), domain.NoData())

	assert.InDelta(t, 1, r.TTCScore, 0.01)
	assert.InDelta(t, 1, r.ProximityScore, 0.01)
	assert.Greater(t, r.RelativeSpeed, 50.0, "closing rate of two 100 km/h trains")
	assert.GreaterOrEqual(t, r.Score, p.Threshold)
	assert.Equal(t, domain.FeedNoData, r.FeedStatus)
}

func TestAssess_Symmetric(t *testing.T) {
	feed := memory.NewFeed()
	ctx := context.Background()
	require.NoError(t, feed.PutAgent(ctx, "T1", domain.Contribution{Source: "w", Value: 0.9, Weight: 2}))
	e := NewEvaluator(DefaultParams(), WithFeed(feed))

	a := domain.Agent{ID: "T1", Path: []string{"A", "C"}, Speed: 120, Progress: 0.1, Risk: domain.FloatPtr(0.3)}
	b := domain.Agent{ID: "T2", Path: []string{"C", "A"}, Speed: 80, Progress: 0.2}
	fa, fb := e.AgentSample(ctx, a), e.AgentSample(ctx, b)

	ab := e.Assess(corridor(), a, b, fa, fb)
	ba := e.Assess(corridor(), b, a, fb, fa)
	assert.Equal(t, ab, ba)
	require.NotNil(t, ab.MonteCarlo)
	assert.InDelta(t, (0.3+0.9*2)/3, ab.FeedRisk, 1e-9)
}

func TestAssess_FeedBlend(t *testing.T) {
	e := NewEvaluator(noMonteCarlo())
	a := domain.Agent{ID: "T1", Path: []string{"A", "B"}, Speed: 300}
	b := domain.Agent{ID: "T2", Path: []string{"X", "Y"}, Speed: 300}

	quiet := e.Assess(corridor(), a, b, domain.NoData(), domain.NoData())
	noisy := e.Assess(corridor(), a, b, domain.Scalar("x", 1), domain.NoData())

	assert.InDelta(t, quiet.Score+0.4, noisy.Score, 1e-9)
	assert.Equal(t, domain.FeedOK, noisy.FeedStatus)
}

type brokenFeed struct{ ports.NopFeed }

func (brokenFeed) AgentRisk(context.Context, string) domain.FeedSample {
	return domain.Unavailable(errors.New("connection refused"))
}

func TestAgentSample_FeedFailureDegrades(t *testing.T) {
	var kinds []string
	e := NewEvaluator(noMonteCarlo(), WithFeed(brokenFeed{}), WithFeedErrorHook(func(kind string) {
		kinds = append(kinds, kind)
	}))
	ctx := context.Background()

	s := e.AgentSample(ctx, domain.Agent{ID: "T1"})
	assert.Equal(t, domain.FeedUnavailable, s.Status)
	assert.Zero(t, s.Value())

	withRoster := e.AgentSample(ctx, domain.Agent{ID: "T2", Risk: domain.FloatPtr(0.5)})
	assert.Equal(t, domain.FeedOK, withRoster.Status)
	assert.Equal(t, 0.5, withRoster.Value())
	assert.Equal(t, []string{"agent", "agent"}, kinds)

	a := domain.Agent{ID: "T1", Path: []string{"A", "B"}}
	b := domain.Agent{ID: "T2", Path: []string{"X", "Y"}}
	r := e.Assess(corridor(), a, b, s, domain.NoData())
	assert.Equal(t, domain.FeedUnavailable, r.FeedStatus)
	assert.Zero(t, r.FeedRisk)
}

func TestBrakingDistance(t *testing.T) {
	p := DefaultParams()
	// 100 km/h with adhesion 0.25: (27.78²)/(2·2.4525) ≈ 157 m.
	assert.InDelta(t, 157.3, p.BrakingDistance(100), 0.5)

	p.Adhesion = 0.01
	assert.InDelta(t, 9.81*MinAdhesion, p.Deceleration(), 1e-12)
}

func TestMonteCarlo_Deterministic(t *testing.T) {
	mc := DefaultMonteCarlo()
	first := mc.Exceedance(0.55, 0.55, "T1|T2")
	assert.Equal(t, first, mc.Exceedance(0.55, 0.55, "T1|T2"))
	assert.Greater(t, first, 0.2)
	assert.Less(t, first, 0.8)

	assert.Equal(t, 1.0, mc.Exceedance(5, 0.55, "k"))
	assert.Equal(t, 0.0, mc.Exceedance(-5, 0.55, "k"))
	assert.False(t, MonteCarlo{}.Enabled())
}

func TestAssess_ZeroLookahead(t *testing.T) {
	p := noMonteCarlo()
	p.Lookahead = 0
	e := NewEvaluator(p)

	t.Run("Colocated", func(t *testing.T) {
		a := domain.Agent{ID: "T1", Path: []string{"A", "B"}, Speed: 100}
		b := domain.Agent{ID: "T2", Path: []string{"A", "B"}, Speed: 100}

		r := e.Assess(corridor(), a, b, domain.NoData(), domain.NoData())

		assert.Zero(t, r.TimeToCollision)
		assert.Equal(t, 1.0, r.TTCScore)
		assert.Equal(t, 1.0, r.ProximityScore)
		assert.False(t, math.IsNaN(r.KinematicScore))
		assert.GreaterOrEqual(t, r.Score, p.Threshold)
	})

	t.Run("Apart", func(t *testing.T) {
		a := domain.Agent{ID: "T1", Path: []string{"A", "B"}, Speed: 100}
		b := domain.Agent{ID: "T2", Path: []string{"C", "B"}, Speed: 100}

		r := e.Assess(corridor(), a, b, domain.NoData(), domain.NoData())

		assert.Greater(t, r.TimeToCollision, 0.0)
		assert.Zero(t, r.TTCScore)
		assert.False(t, math.IsNaN(r.Score))
	})
}
