package ports

import (
	"context"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

// CycleEngine is the surface shared by every transport adapter.
type CycleEngine interface {
	// Evaluate runs one cycle over the given graph and roster.
	// An empty graph means "use the last synced snapshot".
	Evaluate(ctx context.Context, graph domain.NetworkSnapshot, roster []domain.Agent) (domain.Decision, error)

	// ApplyReroute acknowledges a new path for an agent. It does not mutate the roster.
	ApplyReroute(ctx context.Context, agentID string, newPath []string) (domain.RerouteAck, error)

	// Sync atomically replaces the graph snapshot.
	Sync(ctx context.Context, graph domain.NetworkSnapshot) (domain.SyncStatus, error)

	// BlockedEdges lists the edges the router currently avoids.
	BlockedEdges() []domain.EdgeKey
}
