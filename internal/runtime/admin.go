package runtime

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rishitkumar8/Railways/internal/logging"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
	"github.com/rishitkumar8/Railways/pkg/spawn"
	"github.com/rishitkumar8/Railways/pkg/world"
)

const (
	// DefaultStressCount is used when a stress payload is requested without a count.
	DefaultStressCount = 50
	// MaxStressCount bounds generated stress payloads.
	MaxStressCount = 1000
)

// ErrHealthCheck is returned when the self-check produces an unusable score.
var ErrHealthCheck = errors.New("health check failed")

// Health is the result of the engine self-check.
type Health struct {
	Status      string  `json:"status"`
	GraphNodes  int     `json:"graph_nodes"`
	GraphEdges  int     `json:"graph_edges"`
	SampleScore float64 `json:"sample_score"`
	FeedStatus  string  `json:"feed_status"`
	Blocked     int     `json:"blocked_edges"`
	Cycles      int64   `json:"cycles"`
}

// Health scores two generated agents on the current graph (or the default
// one) without touching the world state.
func (e *Engine) Health(ctx context.Context) (Health, error) {
	snap := e.state.Snapshot()
	g := snap.Graph
	if g.Len() < 2 {
		g = network.Build(network.DefaultSnapshot())
	}

	sample := spawn.NewGenerator(e.router, e.seed).Stress(ctx, g, 2, false)
	a, b := sample[0].Normalize(), sample[1].Normalize()
	r := e.evaluator.Assess(g, a, b, e.evaluator.AgentSample(ctx, a), e.evaluator.AgentSample(ctx, b))
	if math.IsNaN(r.Score) || r.Score < 0 || r.Score > 1 {
		e.logger.ErrorContext(ctx, "health check failed", "score", r.Score)
		return Health{}, fmt.Errorf("%w: score %v", ErrHealthCheck, r.Score)
	}

	return Health{
		Status:      "running",
		GraphNodes:  snap.Graph.Len(),
		GraphEdges:  len(snap.Graph.Edges()),
		SampleScore: r.Score,
		FeedStatus:  string(r.FeedStatus),
		Blocked:     len(snap.Blocked),
		Cycles:      e.cycles.Load(),
	}, nil
}

// Stats summarizes engine activity.
type Stats struct {
	Cycles       int64  `json:"cycles"`
	TrainsSaved  int64  `json:"trains_saved_today"`
	Agents       int    `json:"agents"`
	Spawned      int    `json:"spawned"`
	GraphVersion uint64 `json:"graph_version"`
}

// ParamsView is the JSON form of the risk parameters.
type ParamsView struct {
	SafeDistance    float64 `json:"safe_distance_m"`
	Lookahead       float64 `json:"lookahead_s"`
	Threshold       float64 `json:"threshold"`
	Adhesion        float64 `json:"adhesion"`
	KinematicWeight float64 `json:"kinematic_weight"`
	FeedWeight      float64 `json:"feed_weight"`
	MonteCarlo      int     `json:"monte_carlo_samples"`
}

// Parameters is the risk view published to dashboards.
type Parameters struct {
	RiskCache   []domain.RiskCacheEntry `json:"risk_cache"`
	StationRisk map[string]float64      `json:"station_risk"`
	Blocked     []world.BlockedEntry    `json:"blocked"`
	Params      ParamsView              `json:"params"`
	Stats       Stats                   `json:"stats"`
}

// Parameters returns the risk cache, the feed's station risk and counters.
func (e *Engine) Parameters(ctx context.Context) Parameters {
	snap := e.state.Snapshot()
	stations := make(map[string]float64)
	for _, id := range snap.Graph.Stations() {
		s := e.feed.StationRisk(ctx, id)
		switch s.Status {
		case domain.FeedOK:
			stations[id] = s.Value()
		case domain.FeedUnavailable:
			e.evaluator.FeedFailed(ctx, "station", id, s.Err)
		}
	}

	p := e.params
	return Parameters{
		RiskCache:   e.state.RiskCache(),
		StationRisk: stations,
		Blocked:     e.state.Blocked(),
		Params: ParamsView{
			SafeDistance:    p.SafeDistance,
			Lookahead:       p.Lookahead.Seconds(),
			Threshold:       p.Threshold,
			Adhesion:        p.Adhesion,
			KinematicWeight: p.KinematicWeight,
			FeedWeight:      p.FeedWeight,
			MonteCarlo:      p.MonteCarlo.Samples,
		},
		Stats: Stats{
			Cycles:       e.cycles.Load(),
			TrainsSaved:  e.state.TrainsSaved(),
			Agents:       len(snap.Roster),
			Spawned:      len(e.state.Spawned()),
			GraphVersion: snap.Version,
		},
	}
}

// DecidePayload is the body accepted by an evaluation request.
type DecidePayload struct {
	Trains []domain.Agent         `json:"trains"`
	Graph  domain.NetworkSnapshot `json:"graph"`
}

// StressPayload bundles generated agents with the graph they run on.
type StressPayload struct {
	Trains []domain.Agent         `json:"stress_trains"`
	Graph  domain.NetworkSnapshot `json:"graph"`
	Sample DecidePayload          `json:"sample_decide_payload"`
}

// StressPayload generates count agents on the current graph, or on the
// default one when nothing was synced.
func (e *Engine) StressPayload(ctx context.Context, count int, chaos bool) StressPayload {
	if count <= 0 {
		count = DefaultStressCount
	}
	count = min(count, MaxStressCount)

	g := e.graph()
	if g.Len() < 2 {
		g = network.Build(network.DefaultSnapshot())
	}
	trains := e.generator.Stress(ctx, g, count, chaos)
	graph := g.Snapshot()
	return StressPayload{
		Trains: trains,
		Graph:  graph,
		Sample: DecidePayload{Trains: trains, Graph: graph},
	}
}

// SpawnStatus reports the producer configuration.
func (e *Engine) SpawnStatus() spawn.Status {
	e.collectSpawned()
	return e.producer.Status()
}

// ToggleSpawn enables or disables the producer.
func (e *Engine) ToggleSpawn(enabled bool) spawn.Status {
	e.producer.SetEnabled(enabled)
	e.logger.Info("Spawn toggled", "enabled", enabled)
	return e.producer.Status()
}

// ConfigureSpawn changes the producer interval and bound. Zero values keep the current setting.
func (e *Engine) ConfigureSpawn(interval time.Duration, maxAgents int) spawn.Status {
	e.producer.Configure(interval, maxAgents)
	if maxAgents > 0 {
		e.state.SetMaxSpawned(maxAgents)
	}
	return e.producer.Status()
}

// SpawnedAgents returns the live spawned agents, including those not yet seen by a cycle.
func (e *Engine) SpawnedAgents() []domain.Agent {
	e.collectSpawned()
	return e.state.Spawned()
}

// ClearSpawned drops every spawned agent and returns how many were removed.
func (e *Engine) ClearSpawned() int {
	return len(e.producer.Drain()) + e.state.ClearSpawned()
}

// SpawnOnce runs one producer tick immediately.
func (e *Engine) SpawnOnce(ctx context.Context) (domain.Agent, bool) {
	a, ok := e.producer.Tick(ctx)
	if ok {
		e.collectSpawned()
	}
	return a, ok
}

func (e *Engine) collectSpawned() {
	if drained := e.producer.Drain(); len(drained) > 0 {
		e.state.AppendSpawned(drained...)
	}
}

// Logs queries the in-memory log ring. It returns the matching entries and
// the total number of stored records. Without a buffer it returns nothing.
func (e *Engine) Logs(level, trainID string, limit int) ([]logging.Entry, int) {
	if e.logs == nil {
		return nil, 0
	}
	return e.logs.Query(level, trainID, limit), e.logs.Len()
}
