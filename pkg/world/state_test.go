package world

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestSync_ReplacesGraphAtomically(t *testing.T) {
	s := New()
	before := s.Snapshot()

	status := s.Sync(network.DefaultSnapshot())
	assert.Equal(t, "synced", status.Status)
	assert.Equal(t, 6, status.Stations)
	assert.Equal(t, 7, status.Edges)

	assert.Zero(t, before.Graph.Len(), "old snapshot is untouched")
	assert.Equal(t, 6, s.Snapshot().Graph.Len())
	assert.Greater(t, s.Snapshot().Version, before.Version)
}

func TestBegin_KeepsGraphWhenEmpty(t *testing.T) {
	s := New(WithGraph(network.DefaultSnapshot()))
	snap := s.Begin(domain.NetworkSnapshot{}, []domain.Agent{{ID: "T1"}})
	assert.Equal(t, 6, snap.Graph.Len())
	require.Len(t, snap.Roster, 1)
}

func TestBlockEdge_CopyOnWrite(t *testing.T) {
	s := New()
	before := s.Snapshot()

	snap, added := s.BlockEdge(domain.Edge{From: "C", To: "B"}, "T2", "conflict")
	require.True(t, added)
	assert.True(t, snap.Blocked.Contains("B", "C"))
	assert.False(t, before.Blocked.Contains("B", "C"))

	_, added = s.BlockEdge(domain.Edge{From: "B", To: "C"}, "T3", "again")
	assert.False(t, added)

	blocked := s.Blocked()
	require.Len(t, blocked, 1)
	assert.Equal(t, "T2", blocked[0].AgentID)
}

func TestPermanentPolicy_NeverReleases(t *testing.T) {
	s := New()
	s.BlockEdge(domain.Edge{From: "A", To: "B"}, "T1", "")
	assert.Nil(t, s.ApplyReleasePolicy(nil))
	assert.Len(t, s.Blocked(), 1)
}

func TestReleaseOnClear(t *testing.T) {
	s := New(WithReleasePolicy(ReleaseOnClear, 0))
	s.BlockEdge(domain.Edge{From: "B", To: "C"}, "T1", "")
	s.BlockEdge(domain.Edge{From: "X", To: "Y"}, "gone", "")

	t1 := domain.Agent{ID: "T1", Path: []string{"A", "B", "C", "D"}, Progress: 0.2}
	released := s.ApplyReleasePolicy([]domain.Agent{t1})
	require.Len(t, released, 1)
	assert.Equal(t, "gone", released[0].AgentID)
	assert.True(t, s.Snapshot().Blocked.Contains("B", "C"), "B-C is still ahead of T1")

	t1.Progress = 0.9
	released = s.ApplyReleasePolicy([]domain.Agent{t1})
	require.Len(t, released, 1)
	assert.Empty(t, s.Blocked())
}

func TestReleaseTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := New(WithReleasePolicy(ReleaseTTL, time.Minute), WithClock(clock.Now))
	s.BlockEdge(domain.Edge{From: "A", To: "B"}, "T1", "")

	clock.now = clock.now.Add(30 * time.Second)
	assert.Empty(t, s.ApplyReleasePolicy(nil))

	clock.now = clock.now.Add(31 * time.Second)
	assert.Len(t, s.ApplyReleasePolicy(nil), 1)
	assert.Empty(t, s.Blocked())
}

func TestReleaseAndClear(t *testing.T) {
	s := New()
	s.BlockEdge(domain.Edge{From: "A", To: "B"}, "T1", "")
	s.BlockEdge(domain.Edge{From: "B", To: "C"}, "T2", "")

	assert.True(t, s.ReleaseEdge("B", "A"))
	assert.False(t, s.ReleaseEdge("B", "A"))
	assert.Len(t, s.ClearBlocked(), 1)
	assert.Nil(t, s.ClearBlocked())
}

func TestParseReleasePolicy(t *testing.T) {
	p, err := ParseReleasePolicy("")
	require.NoError(t, err)
	assert.Equal(t, ReleasePermanent, p)

	_, err = ParseReleasePolicy("sometimes")
	assert.Error(t, err)
}

func TestConcurrentBlockingIsSerialized(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.BlockEdge(domain.Edge{From: "S", To: fmt.Sprintf("N%02d", i)}, "T", "")
			_ = s.Snapshot().Blocked.Contains("S", "N00")
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.Snapshot().Blocked, 50)
}

func TestRiskCacheAndSpawned(t *testing.T) {
	s := New(WithMaxSpawned(2))
	s.UpdateRiskCache([]domain.RiskCacheEntry{{AgentID: "b", Score: 0.2}, {AgentID: "a", Score: 0.1}})
	s.UpdateRiskCache([]domain.RiskCacheEntry{{AgentID: "b", Score: 0.9}})
	cache := s.RiskCache()
	require.Len(t, cache, 2)
	assert.Equal(t, "a", cache[0].AgentID)
	assert.Equal(t, 0.9, cache[1].Score)

	s.AppendSpawned(domain.Agent{ID: "SP001"}, domain.Agent{ID: "SP002"}, domain.Agent{ID: "SP003"})
	spawned := s.Spawned()
	require.Len(t, spawned, 2)
	assert.Equal(t, "SP002", spawned[0].ID)
	assert.Equal(t, 2, s.ClearSpawned())

	assert.Equal(t, int64(1), s.RecordSave())
	assert.Equal(t, int64(1), s.TrainsSaved())
}
