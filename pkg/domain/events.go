package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCycleStart   EventType = "cycle_start"
	EventConflict     EventType = "conflict"
	EventDecision     EventType = "decision"
	EventEdgeBlocked  EventType = "edge_blocked"
	EventEdgeReleased EventType = "edge_released"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	CycleID   string    `json:"cycle_id"`
}

// CycleEvent is emitted when a cycle starts.
type CycleEvent struct {
	EventBase
	Agents  int `json:"agents"`
	Spawned int `json:"spawned"`
}

// ConflictEvent carries the worst pair found by a cycle.
type ConflictEvent struct {
	EventBase
	Conflict Conflict `json:"conflict"`
}

// DecisionEvent carries the decision of a cycle.
type DecisionEvent struct {
	EventBase
	Decision Decision      `json:"decision"`
	Duration time.Duration `json:"duration"`
}

// EdgeEvent is emitted when an edge enters or leaves the blocked set.
type EdgeEvent struct {
	EventBase
	Edge    EdgeKey `json:"edge"`
	AgentID string  `json:"train_id,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

// CycleHooks defines callbacks for engine observability.
type CycleHooks struct {
	OnCycleStart   func(context.Context, *CycleEvent)
	OnConflict     func(context.Context, *ConflictEvent)
	OnDecision     func(context.Context, *DecisionEvent)
	OnEdgeBlocked  func(context.Context, *EdgeEvent)
	OnEdgeReleased func(context.Context, *EdgeEvent)
}

// Merge chains two hook sets; h runs before other.
func (h CycleHooks) Merge(other CycleHooks) CycleHooks {
	return CycleHooks{
		OnCycleStart:   chain(h.OnCycleStart, other.OnCycleStart),
		OnConflict:     chain(h.OnConflict, other.OnConflict),
		OnDecision:     chain(h.OnDecision, other.OnDecision),
		OnEdgeBlocked:  chain(h.OnEdgeBlocked, other.OnEdgeBlocked),
		OnEdgeReleased: chain(h.OnEdgeReleased, other.OnEdgeReleased),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
