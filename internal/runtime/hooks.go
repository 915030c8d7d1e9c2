package runtime

import (
	"context"
	"time"

	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/world"
)

func (e *Engine) base(t domain.EventType, cycleID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.clock(), Type: t, CycleID: cycleID}
}

func (e *Engine) emitCycleStart(ctx context.Context, cycleID string, at time.Time, agents, spawned int) {
	if e.hooks.OnCycleStart == nil {
		return
	}
	e.hooks.OnCycleStart(ctx, &domain.CycleEvent{
		EventBase: domain.EventBase{Timestamp: at, Type: domain.EventCycleStart, CycleID: cycleID},
		Agents:    agents,
		Spawned:   spawned,
	})
}

func (e *Engine) emitConflict(ctx context.Context, cycleID string, c domain.Conflict) {
	if e.hooks.OnConflict == nil {
		return
	}
	e.hooks.OnConflict(ctx, &domain.ConflictEvent{
		EventBase: e.base(domain.EventConflict, cycleID),
		Conflict:  c,
	})
}

func (e *Engine) emitDecision(ctx context.Context, cycleID string, d domain.Decision, took time.Duration) {
	if e.hooks.OnDecision == nil {
		return
	}
	e.hooks.OnDecision(ctx, &domain.DecisionEvent{
		EventBase: e.base(domain.EventDecision, cycleID),
		Decision:  d,
		Duration:  took,
	})
}

func (e *Engine) emitEdge(ctx context.Context, t domain.EventType, cycleID string, entry world.BlockedEntry) {
	hook := e.hooks.OnEdgeBlocked
	if t == domain.EventEdgeReleased {
		hook = e.hooks.OnEdgeReleased
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.EdgeEvent{
		EventBase: e.base(t, cycleID),
		Edge:      entry.Edge,
		AgentID:   entry.AgentID,
		Reason:    entry.Reason,
	})
}
