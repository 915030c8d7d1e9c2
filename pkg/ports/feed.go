package ports

import (
	"context"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

// RiskFeed is the external source of environmental and operational risk.
// Implementations never return an error directly: failures are reported
// as a sample with Status == domain.FeedUnavailable.
type RiskFeed interface {
	// StationRisk returns the risk attributed to a station.
	StationRisk(ctx context.Context, stationID string) domain.FeedSample
	// SegmentRisk returns one contribution per sub-segment of the track from -> to.
	SegmentRisk(ctx context.Context, from, to string) domain.FeedSample
	// AgentRisk returns the weighted contributions known for an agent.
	AgentRisk(ctx context.Context, agentID string) domain.FeedSample
}

// FeedWriter stores risk samples.
type FeedWriter interface {
	PutStation(ctx context.Context, stationID string, value float64) error
	PutSegment(ctx context.Context, from, to string, values []float64) error
	PutAgent(ctx context.Context, agentID string, contribs ...domain.Contribution) error
}

// NopFeed knows nothing. Every query yields domain.NoData().
type NopFeed struct{}

func (NopFeed) StationRisk(context.Context, string) domain.FeedSample { return domain.NoData() }

func (NopFeed) SegmentRisk(context.Context, string, string) domain.FeedSample {
	return domain.NoData()
}

func (NopFeed) AgentRisk(context.Context, string) domain.FeedSample { return domain.NoData() }
