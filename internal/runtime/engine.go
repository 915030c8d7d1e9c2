// Package runtime wires the arbiter, the world state and the producer into evaluation cycles.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rishitkumar8/Railways/internal/logging"
	"github.com/rishitkumar8/Railways/internal/metrics"
	"github.com/rishitkumar8/Railways/pkg/arbiter"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
	"github.com/rishitkumar8/Railways/pkg/ports"
	"github.com/rishitkumar8/Railways/pkg/risk"
	"github.com/rishitkumar8/Railways/pkg/routing"
	"github.com/rishitkumar8/Railways/pkg/spawn"
	"github.com/rishitkumar8/Railways/pkg/world"
)

// Engine runs evaluation cycles against a shared world state.
type Engine struct {
	state     *world.State
	evaluator *risk.Evaluator
	router    *routing.Router
	arbiter   *arbiter.Arbiter
	generator *spawn.Generator
	producer  *spawn.Producer

	feed    ports.RiskFeed
	params  risk.Params
	hooks   domain.CycleHooks
	metrics *metrics.Collector
	logger  *slog.Logger
	logs    *logging.Buffer
	clock   func() time.Time

	workers       int
	criticalTTC   time.Duration
	policy        world.ReleasePolicy
	policyTTL     time.Duration
	spawnEnabled  bool
	spawnInterval time.Duration
	spawnMax      int
	seed          uint64
	initial       *domain.NetworkSnapshot

	cycles atomic.Int64
}

var _ ports.CycleEngine = (*Engine)(nil)

// NewEngine creates an engine. Without options it uses the production
// constants, no risk feed and an empty graph.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		feed:          ports.NopFeed{},
		params:        risk.DefaultParams(),
		logger:        logging.NewNop(),
		clock:         time.Now,
		criticalTTC:   arbiter.DefaultCriticalTTC,
		policy:        world.ReleasePermanent,
		spawnInterval: spawn.DefaultInterval,
		spawnMax:      spawn.DefaultMaxAgents,
		seed:          1,
	}
	for _, opt := range opts {
		opt(e)
	}

	var onFeedError func(kind string)
	if e.metrics != nil {
		e.hooks = e.hooks.Merge(e.metrics.Hooks())
		onFeedError = e.metrics.FeedFailure
	}

	stateOpts := []world.Option{
		world.WithReleasePolicy(e.policy, e.policyTTL),
		world.WithClock(e.clock),
		world.WithLogger(e.logger),
		world.WithMaxSpawned(e.spawnMax),
	}
	if e.initial != nil {
		stateOpts = append(stateOpts, world.WithGraph(*e.initial))
	}
	e.state = world.New(stateOpts...)

	e.evaluator = risk.NewEvaluator(e.params,
		risk.WithFeed(e.feed),
		risk.WithLogger(e.logger),
		risk.WithFeedErrorHook(onFeedError),
	)
	e.router = routing.New(
		routing.WithFeed(e.feed),
		routing.WithLogger(e.logger),
		routing.WithFeedErrorHook(onFeedError),
	)
	e.arbiter = arbiter.New(e.evaluator, e.router, e.state,
		arbiter.WithWorkers(e.workers),
		arbiter.WithCriticalTTC(e.criticalTTC),
		arbiter.WithLogger(e.logger),
	)
	e.generator = spawn.NewGenerator(e.router, e.seed)
	e.producer = spawn.NewProducer(e.generator, e.graph,
		spawn.WithEnabled(e.spawnEnabled),
		spawn.WithInterval(e.spawnInterval),
		spawn.WithMaxAgents(e.spawnMax),
		spawn.WithActiveCount(func() int { return len(e.state.Spawned()) }),
		spawn.WithProducerLogger(e.logger),
	)
	return e
}

// Start launches the synthetic agent producer. It stops when ctx is done or on Close.
func (e *Engine) Start(ctx context.Context) {
	e.producer.Start(ctx)
}

// Close stops background work.
func (e *Engine) Close() {
	e.producer.Stop()
}

func (e *Engine) graph() *network.Graph {
	return e.state.Snapshot().Graph
}

// Graph returns the current station graph.
func (e *Engine) Graph() *network.Graph {
	return e.graph()
}

// Params returns the risk parameters in use.
func (e *Engine) Params() risk.Params {
	return e.params
}

// Evaluate runs one cycle. An empty graph keeps the last synced snapshot.
func (e *Engine) Evaluate(ctx context.Context, graph domain.NetworkSnapshot, roster []domain.Agent) (domain.Decision, error) {
	if err := ctx.Err(); err != nil {
		return domain.Decision{}, err
	}
	if err := validateRoster(roster); err != nil {
		return domain.Decision{}, err
	}

	started := e.clock()
	cycleID := uuid.NewString()

	spawned := e.producer.Drain()
	if len(spawned) > 0 {
		e.state.AppendSpawned(spawned...)
	}
	agents := merge(roster, e.state.Spawned())

	snap := e.state.Begin(graph, agents)
	for i := range agents {
		agents[i].Path = e.router.Expand(snap.Graph, agents[i].Path)
	}

	e.emitCycleStart(ctx, cycleID, started, len(agents), len(agents)-len(roster))

	for _, released := range e.state.ApplyReleasePolicy(agents) {
		e.logger.InfoContext(ctx, "Edge released", "edge", released.Edge.String(), "train_id", released.AgentID, "policy", string(e.state.Policy()))
		e.emitEdge(ctx, domain.EventEdgeReleased, cycleID, released)
	}

	out, err := e.arbiter.Decide(ctx, arbiter.Cycle{
		ID:     cycleID,
		Graph:  snap.Graph,
		Roster: agents,
		Now:    started,
	})
	if err != nil {
		return domain.Decision{}, fmt.Errorf("cycle %s: %w", cycleID, err)
	}
	e.cycles.Add(1)
	e.state.UpdateRiskCache(out.RiskCache)
	if e.metrics != nil {
		e.metrics.ObservePairs(out.Pairs)
	}

	if out.Conflict != nil {
		e.emitConflict(ctx, cycleID, *out.Conflict)
	}
	if out.Blocked != nil {
		e.logger.WarnContext(ctx, "Edge blocked", "edge", out.Blocked.Edge.String(), "train_id", out.Blocked.AgentID)
		e.emitEdge(ctx, domain.EventEdgeBlocked, cycleID, *out.Blocked)
	}

	d := out.Decision
	if d.Action == domain.ActionRequestConfirmation {
		e.state.RecordSave()
	}
	d.TrainsSaved = e.state.TrainsSaved()

	if d.Action == domain.ActionNormal {
		e.logger.DebugContext(ctx, "Decision", "action", string(d.Action), "score", d.Score, "cycle", cycleID)
	} else {
		e.logger.WarnContext(ctx, fmt.Sprintf("Decision: %s - train %s - score %.3f", d.Action, d.AgentID, d.Score),
			"train_id", d.AgentID,
			"action", string(d.Action),
			"cycle", cycleID,
		)
	}
	e.emitDecision(ctx, cycleID, d, e.clock().Sub(started))
	return d, nil
}

// ApplyReroute acknowledges a new path. The roster is not changed: callers
// send the updated path with their next cycle.
func (e *Engine) ApplyReroute(ctx context.Context, agentID string, newPath []string) (domain.RerouteAck, error) {
	if err := ctx.Err(); err != nil {
		return domain.RerouteAck{}, err
	}
	if agentID == "" {
		return domain.RerouteAck{}, domain.ErrMissingAgentID
	}
	if len(newPath) == 0 {
		return domain.RerouteAck{}, fmt.Errorf("reroute %s: %w", agentID, domain.ErrEmptyPath)
	}
	if g := e.graph(); g.Len() > 0 {
		for _, s := range newPath {
			if !g.HasStation(s) {
				return domain.RerouteAck{}, fmt.Errorf("reroute %s: %w: %q", agentID, domain.ErrUnknownStation, s)
			}
		}
	}

	e.logger.InfoContext(ctx, fmt.Sprintf("apply_reroute called for: %s -> %v", agentID, newPath), "train_id", agentID)
	return domain.RerouteAck{
		Status:         "ok",
		AgentID:        agentID,
		NewPath:        append([]string(nil), newPath...),
		AcknowledgedAt: e.clock(),
	}, nil
}

// Sync replaces the graph snapshot.
func (e *Engine) Sync(ctx context.Context, graph domain.NetworkSnapshot) (domain.SyncStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.SyncStatus{}, err
	}
	status := e.state.Sync(graph)
	e.logger.InfoContext(ctx, fmt.Sprintf("Graph synced: %d stations, %d edges", status.Stations, status.Edges), "version", status.Version)
	return status, nil
}

// BlockedEdges lists the edges the router currently avoids.
func (e *Engine) BlockedEdges() []domain.EdgeKey {
	return e.state.Snapshot().Blocked.Keys()
}

// BlockedEntries lists the blocked edges with the agent and reason that caused them.
func (e *Engine) BlockedEntries() []world.BlockedEntry {
	return e.state.Blocked()
}

// ReleaseEdge returns u-v to service. It reports false if the edge was not blocked.
func (e *Engine) ReleaseEdge(ctx context.Context, u, v string) bool {
	key := domain.NewEdgeKey(u, v)
	owner := e.state.Snapshot().Owners[key]
	if !e.state.ReleaseEdge(u, v) {
		return false
	}
	if owner.Edge == (domain.EdgeKey{}) {
		owner.Edge = key
	}
	e.logger.InfoContext(ctx, "Edge released", "edge", key.String(), "train_id", owner.AgentID, "policy", "manual")
	e.emitEdge(ctx, domain.EventEdgeReleased, "", owner)
	return true
}

// ClearBlocked empties the blocked set and returns the released entries.
func (e *Engine) ClearBlocked(ctx context.Context) []world.BlockedEntry {
	released := e.state.ClearBlocked()
	for _, entry := range released {
		e.emitEdge(ctx, domain.EventEdgeReleased, "", entry)
	}
	if len(released) > 0 {
		e.logger.InfoContext(ctx, "Blocked edges cleared", "count", len(released))
	}
	return released
}

func validateRoster(roster []domain.Agent) error {
	if len(roster) == 0 {
		return domain.ErrEmptyRoster
	}
	seen := make(map[string]struct{}, len(roster))
	for i, a := range roster {
		if a.ID == "" {
			return fmt.Errorf("%w: agent #%d", domain.ErrMissingAgentID, i)
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateAgent, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

// merge normalizes the roster and appends spawned agents whose id is free.
func merge(roster, spawned []domain.Agent) []domain.Agent {
	out := make([]domain.Agent, 0, len(roster)+len(spawned))
	ids := make(map[string]struct{}, len(roster))
	for _, a := range roster {
		ids[a.ID] = struct{}{}
		out = append(out, a.Normalize())
	}
	for _, a := range spawned {
		if _, taken := ids[a.ID]; taken {
			continue
		}
		out = append(out, a.Normalize())
	}
	return out
}
