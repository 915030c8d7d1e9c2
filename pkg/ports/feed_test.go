package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

func TestNopFeed(t *testing.T) {
	var feed RiskFeed = NopFeed{}
	ctx := context.Background()
	assert.Equal(t, domain.FeedNoData, feed.StationRisk(ctx, "A").Status)
	assert.Equal(t, domain.FeedNoData, feed.SegmentRisk(ctx, "A", "B").Status)
	assert.Zero(t, feed.AgentRisk(ctx, "T1").Value())
}
