package metrics

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

func TestHooksRecordCycle(t *testing.T) {
	c := New()
	h := c.Hooks()
	ctx := context.Background()

	h.OnCycleStart(ctx, &domain.CycleEvent{Agents: 3, Spawned: 2})
	h.OnDecision(ctx, &domain.DecisionEvent{
		Decision: domain.Decision{Action: domain.ActionRequestConfirmation},
		Duration: 3 * time.Millisecond,
	})
	h.OnEdgeBlocked(ctx, &domain.EdgeEvent{})
	h.OnEdgeBlocked(ctx, &domain.EdgeEvent{})
	h.OnEdgeReleased(ctx, &domain.EdgeEvent{})
	c.ObservePairs(3)
	c.FeedFailure("segment")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.cycles))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.spawned))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decisions.WithLabelValues(string(domain.ActionRequestConfirmation))))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.decisions.WithLabelValues(string(domain.ActionNormal))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.blocked))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.pairs))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.feedFailures.WithLabelValues("segment")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.cycleDuration))

	c.SetBlocked(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.blocked))
}

func TestHandlerExposesRegistry(t *testing.T) {
	c := New()
	c.ObservePairs(1)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "railways_pair_evaluations_total 1")
	assert.Contains(t, rec.Body.String(), `railways_decisions_total{action="NORMAL"} 0`)
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObservePairs(5)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.pairs))
}
