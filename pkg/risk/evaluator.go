// Package risk scores pairs of agents for collision risk.
package risk

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/rishitkumar8/Railways/internal/logging"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
	"github.com/rishitkumar8/Railways/pkg/ports"
	"github.com/rishitkumar8/Railways/pkg/predict"
)

const (
	// Gravity in m/s².
	Gravity = 9.81
	// MinAdhesion is the floor applied to the configured adhesion coefficient.
	MinAdhesion = 0.05
	// Epsilon floors the relative speed.
	Epsilon = 1e-6
)

// Params holds the tunables of the evaluator.
type Params struct {
	// SafeDistance in metres.
	SafeDistance float64
	Lookahead    time.Duration
	Threshold    float64
	Adhesion     float64

	KinematicWeight float64
	FeedWeight      float64

	MonteCarlo MonteCarlo
}

// DefaultParams returns the production constants.
func DefaultParams() Params {
	return Params{
		SafeDistance:    1000,
		Lookahead:       30 * time.Second,
		Threshold:       0.55,
		Adhesion:        0.25,
		KinematicWeight: 0.6,
		FeedWeight:      0.4,
		MonteCarlo:      DefaultMonteCarlo(),
	}
}

// Deceleration returns the assumed braking capability in m/s².
func (p Params) Deceleration() float64 {
	return Gravity * math.Max(p.Adhesion, MinAdhesion)
}

// BrakingDistance returns v²/(2a) in metres for a speed in km/h.
func (p Params) BrakingDistance(kmh float64) float64 {
	v := predict.KmhToMps(kmh)
	return v * v / (2 * p.Deceleration())
}

// Evaluator scores pairs of agents.
type Evaluator struct {
	params      Params
	feed        ports.RiskFeed
	logger      *slog.Logger
	onFeedError func(kind string)
}

// Option configures the Evaluator.
type Option func(*Evaluator)

// WithFeed sets the external risk feed.
func WithFeed(feed ports.RiskFeed) Option {
	return func(e *Evaluator) {
		if feed != nil {
			e.feed = feed
		}
	}
}

// WithLogger configures a logger for feed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFeedErrorHook is called with "station", "segment" or "agent" on every feed failure.
func WithFeedErrorHook(fn func(kind string)) Option {
	return func(e *Evaluator) {
		e.onFeedError = fn
	}
}

// NewEvaluator creates an evaluator. Without WithFeed every feed query yields no data.
func NewEvaluator(params Params, opts ...Option) *Evaluator {
	e := &Evaluator{
		params: params,
		feed:   ports.NopFeed{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params returns the evaluator configuration.
func (e *Evaluator) Params() Params {
	return e.params
}

// Feed returns the configured risk feed.
func (e *Evaluator) Feed() ports.RiskFeed {
	return e.feed
}

// AgentSample queries the feed for one agent and merges the roster-supplied risk.
// A feed failure is logged and counted; the roster value, if any, is still used.
func (e *Evaluator) AgentSample(ctx context.Context, a domain.Agent) domain.FeedSample {
	var contribs []domain.Contribution
	if a.Risk != nil {
		contribs = append(contribs, domain.Contribution{Source: "roster", Value: *a.Risk, Weight: 1})
	}

	s := e.feed.AgentRisk(ctx, a.ID)
	switch s.Status {
	case domain.FeedOK:
		contribs = append(contribs, s.Contributions...)
	case domain.FeedUnavailable:
		e.FeedFailed(ctx, "agent", a.ID, s.Err)
		if len(contribs) == 0 {
			return s
		}
	}
	return domain.Sample(contribs...)
}

// FeedFailed records a feed failure.
func (e *Evaluator) FeedFailed(ctx context.Context, kind, subject string, err error) {
	e.logger.WarnContext(ctx, "Risk feed unavailable", "kind", kind, "subject", subject, "error", err)
	if e.onFeedError != nil {
		e.onFeedError(kind)
	}
}

// Assess scores the pair (a, b). fa and fb are the feed samples of each agent.
// The result does not depend on argument order.
func (e *Evaluator) Assess(g *network.Graph, a, b domain.Agent, fa, fb domain.FeedSample) domain.RiskAssessment {
	if b.ID < a.ID {
		a, b = b, a
		fa, fb = fb, fa
	}
	p := e.params

	curA, curB := predict.Current(g, a), predict.Current(g, b)
	futA, futB := predict.Predict(g, a, p.Lookahead), predict.Predict(g, b, p.Lookahead)

	r := domain.RiskAssessment{
		AgentA:          a.ID,
		AgentB:          b.ID,
		CurrentDistance: network.Haversine(curA, curB),
		FutureDistance:  network.Haversine(futA, futB),
		BrakingA:        p.BrakingDistance(a.Speed),
		BrakingB:        p.BrakingDistance(b.Speed),
	}

	// Two trains at the same speed can still close on each other; take the
	// larger of the speed difference and the observed closing rate.
	rel := math.Abs(predict.KmhToMps(a.Speed) - predict.KmhToMps(b.Speed))
	if secs := p.Lookahead.Seconds(); secs > 0 {
		rel = math.Max(rel, (r.CurrentDistance-r.FutureDistance)/secs)
	}
	r.RelativeSpeed = math.Max(rel, Epsilon)
	r.TimeToCollision = r.FutureDistance / r.RelativeSpeed

	twoSafe := 2 * p.SafeDistance
	r.ProximityScore = closeness(r.FutureDistance, twoSafe)
	r.TTCScore = closeness(r.TimeToCollision, 2*p.Lookahead.Seconds())
	r.BrakingScore = closeness(math.Min(r.BrakingA, r.BrakingB), twoSafe)
	r.KinematicScore = (r.ProximityScore + r.TTCScore + r.BrakingScore) / 3

	r.FeedRisk, r.FeedStatus = pooled(fa, fb)
	r.BaseScore = domain.Clamp01(p.KinematicWeight*r.KinematicScore + p.FeedWeight*r.FeedRisk)
	r.Score = r.BaseScore

	if mc := p.MonteCarlo; mc.Enabled() {
		frac := mc.Exceedance(r.BaseScore, p.Threshold, a.ID+"|"+b.ID)
		r.MonteCarlo = &frac
		r.Score = domain.Clamp01((1-mc.Blend)*r.BaseScore + mc.Blend*frac)
	}
	return r
}

// closeness maps x in [0, limit] onto [1, 0]. A zero or undefined x scores 1;
// a non-positive limit scores 0 for any positive x.
func closeness(x, limit float64) float64 {
	switch {
	case !(x > 0):
		return 1
	case !(limit > 0) || math.IsInf(x, 1):
		return 0
	}
	return 1 - math.Min(x/limit, 1)
}

// pooled aggregates the contributions of both agents by total declared weight.
func pooled(fa, fb domain.FeedSample) (float64, domain.FeedStatus) {
	var contribs []domain.Contribution
	if fa.OK() {
		contribs = append(contribs, fa.Contributions...)
	}
	if fb.OK() {
		contribs = append(contribs, fb.Contributions...)
	}

	status := domain.FeedNoData
	switch {
	case fa.Status == domain.FeedUnavailable || fb.Status == domain.FeedUnavailable:
		status = domain.FeedUnavailable
	case len(contribs) > 0:
		status = domain.FeedOK
	}
	return domain.Aggregate(contribs), status
}
