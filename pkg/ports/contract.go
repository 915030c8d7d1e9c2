package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

// WritableFeed is a feed that can be seeded by the contract.
type WritableFeed interface {
	RiskFeed
	FeedWriter
}

// RunRiskFeedContract runs a suite of tests to verify that a RiskFeed implementation
// adheres to the defined interface contract.
func RunRiskFeedContract(t *testing.T, feed WritableFeed) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405")
	station := "contract-station-" + suffix
	agent := "contract-agent-" + suffix

	t.Run("Unknown subjects report no data", func(t *testing.T) {
		assert.Equal(t, domain.FeedNoData, feed.StationRisk(ctx, "missing-"+suffix).Status)
		assert.Equal(t, domain.FeedNoData, feed.SegmentRisk(ctx, "missing-"+suffix, "other").Status)
		assert.Equal(t, domain.FeedNoData, feed.AgentRisk(ctx, "missing-"+suffix).Status)
	})

	t.Run("Station", func(t *testing.T) {
		require.NoError(t, feed.PutStation(ctx, station, 0.4))
		s := feed.StationRisk(ctx, station)
		require.Equal(t, domain.FeedOK, s.Status)
		assert.InDelta(t, 0.4, s.Value(), 1e-9)
	})

	t.Run("Segment keeps one contribution per sub-segment", func(t *testing.T) {
		require.NoError(t, feed.PutSegment(ctx, station, "B", []float64{0.2, 0.4, 0.9}))
		s := feed.SegmentRisk(ctx, station, "B")
		require.Equal(t, domain.FeedOK, s.Status)
		assert.Len(t, s.Contributions, 3)
		assert.InDelta(t, 0.5, s.Mean(), 1e-9)

		// Orientation is part of the address.
		assert.Equal(t, domain.FeedNoData, feed.SegmentRisk(ctx, "B", station).Status)
	})

	t.Run("Agent contributions are weighted", func(t *testing.T) {
		require.NoError(t, feed.PutAgent(ctx, agent,
			domain.Contribution{Source: "weather", Value: 1, Weight: 1},
			domain.Contribution{Source: "track", Value: 0, Weight: 3},
		))
		s := feed.AgentRisk(ctx, agent)
		require.Equal(t, domain.FeedOK, s.Status)
		assert.InDelta(t, 0.25, s.Value(), 1e-9)
	})

	t.Run("Values are clamped", func(t *testing.T) {
		require.NoError(t, feed.PutStation(ctx, station, 7))
		assert.Equal(t, 1.0, feed.StationRisk(ctx, station).Value())
	})
}
