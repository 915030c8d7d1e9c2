// Package metrics exposes Prometheus instruments fed by the engine's cycle hooks.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

// Collector owns a private registry so several engines can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	cycles        prometheus.Counter
	decisions     *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	pairs         prometheus.Counter
	feedFailures  *prometheus.CounterVec
	blocked       prometheus.Gauge
	spawned       prometheus.Counter
}

// New creates a Collector with all instruments registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railways_cycles_total",
			Help: "Total number of evaluation cycles",
		}),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railways_decisions_total",
				Help: "Decisions emitted, by action",
			},
			[]string{"action"},
		),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "railways_cycle_duration_seconds",
			Help:    "Duration of evaluation cycles",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
		pairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railways_pair_evaluations_total",
			Help: "Agent pairs scored",
		}),
		feedFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railways_feed_failures_total",
				Help: "Risk feed lookups that failed, by kind",
			},
			[]string{"kind"},
		),
		blocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railways_blocked_edges",
			Help: "Edges currently blocked",
		}),
		spawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railways_spawned_agents_total",
			Help: "Synthetic agents merged into cycles",
		}),
	}
	c.registry.MustRegister(c.cycles, c.decisions, c.cycleDuration, c.pairs, c.feedFailures, c.blocked, c.spawned)
	for _, a := range domain.Actions {
		c.decisions.WithLabelValues(string(a))
	}
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Hooks returns cycle hooks recording into the collector.
func (c *Collector) Hooks() domain.CycleHooks {
	return domain.CycleHooks{
		OnCycleStart: func(_ context.Context, e *domain.CycleEvent) {
			c.cycles.Inc()
			if e.Spawned > 0 {
				c.spawned.Add(float64(e.Spawned))
			}
		},
		OnDecision: func(_ context.Context, e *domain.DecisionEvent) {
			c.decisions.WithLabelValues(string(e.Decision.Action)).Inc()
			c.cycleDuration.Observe(e.Duration.Seconds())
		},
		OnEdgeBlocked: func(context.Context, *domain.EdgeEvent) {
			c.blocked.Inc()
		},
		OnEdgeReleased: func(context.Context, *domain.EdgeEvent) {
			c.blocked.Dec()
		},
	}
}

// ObservePairs adds n scored pairs.
func (c *Collector) ObservePairs(n int) {
	c.pairs.Add(float64(n))
}

// FeedFailure counts a failed feed lookup of the given kind (station, segment, agent).
func (c *Collector) FeedFailure(kind string) {
	c.feedFailures.WithLabelValues(kind).Inc()
}

// SetBlocked overwrites the blocked edge gauge.
func (c *Collector) SetBlocked(n int) {
	c.blocked.Set(float64(n))
}
