package railways

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rishitkumar8/Railways/internal/logging"
	"github.com/rishitkumar8/Railways/internal/metrics"
	"github.com/rishitkumar8/Railways/internal/runtime"
	"github.com/rishitkumar8/Railways/pkg/config"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
	"github.com/rishitkumar8/Railways/pkg/ports"
	"github.com/rishitkumar8/Railways/pkg/spawn"
	"github.com/rishitkumar8/Railways/pkg/world"
)

type (
	// Health is the result of the engine self-check.
	Health = runtime.Health
	// Parameters is the risk view published to dashboards.
	Parameters = runtime.Parameters
	// StressPayload bundles generated agents with their graph.
	StressPayload = runtime.StressPayload
	// DecidePayload is the body of an evaluation request.
	DecidePayload = runtime.DecidePayload
	// LogEntry is a record of the in-memory log ring.
	LogEntry = logging.Entry
	// BlockedEntry describes a blocked edge and the agent that caused it.
	BlockedEntry = world.BlockedEntry
	// SpawnStatus describes the synthetic agent producer.
	SpawnStatus = spawn.Status
)

// Engine is the high-level entry point for the Railways library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime *runtime.Engine
	metrics *metrics.Collector
	cfg     config.Config
	feed    ports.RiskFeed
	hooks   domain.CycleHooks
	logger  *slog.Logger
	logs    *logging.Buffer
	clock   func() time.Time
	graph   *domain.NetworkSnapshot

	withMetrics bool
}

var _ ports.CycleEngine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLogBuffer keeps recent records in buf and serves them through Logs.
// The buffer is attached to the configured logger.
func WithLogBuffer(buf *logging.Buffer) Option {
	return func(e *Engine) {
		e.logs = buf
	}
}

// WithRiskFeed sets the external heuristic layer.
func WithRiskFeed(feed ports.RiskFeed) Option {
	return func(e *Engine) {
		e.feed = feed
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.CycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithMetrics enables the Prometheus collector served by MetricsHandler.
func WithMetrics() Option {
	return func(e *Engine) {
		e.withMetrics = true
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithGraph sets the initial network snapshot.
func WithGraph(graph domain.NetworkSnapshot) Option {
	return func(e *Engine) {
		e.graph = &graph
	}
}

// New initializes an Engine. The configuration is validated before any
// component is built.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{cfg: config.Default()}
	for _, opt := range opts {
		opt(eng)
	}

	if err := eng.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	policy, err := world.ParseReleasePolicy(eng.cfg.Blocked.Policy)
	if err != nil {
		return nil, err
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.logs != nil {
		eng.logger = slog.New(eng.logs.Handler(eng.logger.Handler()))
	}

	c := eng.cfg
	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLogBuffer(eng.logs),
		runtime.WithHooks(eng.hooks),
		runtime.WithRiskFeed(eng.feed),
		runtime.WithParams(c.RiskParams()),
		runtime.WithWorkers(c.Arbiter.Workers),
		runtime.WithCriticalTTC(c.Arbiter.CriticalTTC),
		runtime.WithReleasePolicy(policy, c.Blocked.TTL),
		runtime.WithSpawn(c.Spawn.Enabled, c.Spawn.Interval, c.Spawn.MaxTrains),
		runtime.WithSeed(c.Spawn.Seed),
		runtime.WithClock(eng.clock),
	}
	if eng.withMetrics {
		eng.metrics = metrics.New()
		runtimeOpts = append(runtimeOpts, runtime.WithMetrics(eng.metrics))
	}
	if eng.graph != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithGraph(*eng.graph))
	}

	eng.runtime = runtime.NewEngine(runtimeOpts...)
	return eng, nil
}

// Start launches background work (the synthetic agent producer).
func (e *Engine) Start(ctx context.Context) {
	e.runtime.Start(ctx)
}

// Close stops background work.
func (e *Engine) Close() {
	e.runtime.Close()
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Evaluate runs one evaluation cycle and returns its decision.
// An empty graph keeps the last synced snapshot.
func (e *Engine) Evaluate(ctx context.Context, graph domain.NetworkSnapshot, roster []domain.Agent) (domain.Decision, error) {
	return e.runtime.Evaluate(ctx, graph, roster)
}

// ApplyReroute acknowledges a new path for an agent.
func (e *Engine) ApplyReroute(ctx context.Context, agentID string, newPath []string) (domain.RerouteAck, error) {
	return e.runtime.ApplyReroute(ctx, agentID, newPath)
}

// Sync atomically replaces the graph snapshot.
func (e *Engine) Sync(ctx context.Context, graph domain.NetworkSnapshot) (domain.SyncStatus, error) {
	status, err := e.runtime.Sync(ctx, graph)
	if err == nil && e.metrics != nil {
		e.metrics.SetBlocked(len(e.runtime.BlockedEdges()))
	}
	return status, err
}

// Graph returns the current station graph.
func (e *Engine) Graph() *network.Graph {
	return e.runtime.Graph()
}

// BlockedEdges lists the edges the router currently avoids.
func (e *Engine) BlockedEdges() []domain.EdgeKey {
	return e.runtime.BlockedEdges()
}

// BlockedEntries lists blocked edges with their owners.
func (e *Engine) BlockedEntries() []BlockedEntry {
	return e.runtime.BlockedEntries()
}

// ReleaseEdge returns u-v to service.
func (e *Engine) ReleaseEdge(ctx context.Context, u, v string) bool {
	return e.runtime.ReleaseEdge(ctx, u, v)
}

// ClearBlocked empties the blocked set.
func (e *Engine) ClearBlocked(ctx context.Context) []BlockedEntry {
	return e.runtime.ClearBlocked(ctx)
}

// Health runs the engine self-check.
func (e *Engine) Health(ctx context.Context) (Health, error) {
	return e.runtime.Health(ctx)
}

// Parameters returns the risk cache and environment view.
func (e *Engine) Parameters(ctx context.Context) Parameters {
	return e.runtime.Parameters(ctx)
}

// StressPayload generates count agents on the current graph.
func (e *Engine) StressPayload(ctx context.Context, count int, chaos bool) StressPayload {
	return e.runtime.StressPayload(ctx, count, chaos)
}

// SpawnStatus reports the producer configuration.
func (e *Engine) SpawnStatus() SpawnStatus {
	return e.runtime.SpawnStatus()
}

// ToggleSpawn enables or disables the producer.
func (e *Engine) ToggleSpawn(enabled bool) SpawnStatus {
	return e.runtime.ToggleSpawn(enabled)
}

// ConfigureSpawn changes the producer interval and bound. Zero values keep the current setting.
func (e *Engine) ConfigureSpawn(interval time.Duration, maxAgents int) SpawnStatus {
	return e.runtime.ConfigureSpawn(interval, maxAgents)
}

// SpawnedAgents returns the live spawned agents.
func (e *Engine) SpawnedAgents() []domain.Agent {
	return e.runtime.SpawnedAgents()
}

// ClearSpawned drops every spawned agent.
func (e *Engine) ClearSpawned() int {
	return e.runtime.ClearSpawned()
}

// Logs queries the in-memory log ring.
func (e *Engine) Logs(level, trainID string, limit int) ([]LogEntry, int) {
	return e.runtime.Logs(level, trainID, limit)
}

// MetricsHandler serves the Prometheus registry, or nil when metrics are disabled.
func (e *Engine) MetricsHandler() http.Handler {
	if e.metrics == nil {
		return nil
	}
	return e.metrics.Handler()
}
