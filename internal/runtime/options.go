package runtime

import (
	"log/slog"
	"time"

	"github.com/rishitkumar8/Railways/internal/logging"
	"github.com/rishitkumar8/Railways/internal/metrics"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/ports"
	"github.com/rishitkumar8/Railways/pkg/risk"
	"github.com/rishitkumar8/Railways/pkg/world"
)

// EngineOption configures the runtime Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLogBuffer exposes recent records through Logs. The buffer must already
// be attached to the logger given to WithLogger.
func WithLogBuffer(buf *logging.Buffer) EngineOption {
	return func(e *Engine) {
		e.logs = buf
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.CycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithMetrics records cycles, decisions and feed failures into c.
func WithMetrics(c *metrics.Collector) EngineOption {
	return func(e *Engine) {
		e.metrics = c
	}
}

// WithRiskFeed sets the external heuristic layer. Defaults to ports.NopFeed.
func WithRiskFeed(feed ports.RiskFeed) EngineOption {
	return func(e *Engine) {
		if feed != nil {
			e.feed = feed
		}
	}
}

// WithParams overrides the risk parameters.
func WithParams(p risk.Params) EngineOption {
	return func(e *Engine) {
		e.params = p
	}
}

// WithWorkers bounds the goroutines scoring pairs.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithCriticalTTC sets the time to collision under which a decision is critical.
func WithCriticalTTC(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.criticalTTC = d
	}
}

// WithReleasePolicy selects when blocked edges return to service.
func WithReleasePolicy(policy world.ReleasePolicy, ttl time.Duration) EngineOption {
	return func(e *Engine) {
		e.policy = policy
		e.policyTTL = ttl
	}
}

// WithSpawn configures the synthetic agent producer.
func WithSpawn(enabled bool, interval time.Duration, maxAgents int) EngineOption {
	return func(e *Engine) {
		e.spawnEnabled = enabled
		e.spawnInterval = interval
		e.spawnMax = maxAgents
	}
}

// WithSeed seeds the stress generator.
func WithSeed(seed uint64) EngineOption {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithGraph sets the initial network snapshot.
func WithGraph(graph domain.NetworkSnapshot) EngineOption {
	return func(e *Engine) {
		e.initial = &graph
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}
