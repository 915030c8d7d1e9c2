// Package arbiter selects the worst conflict of a cycle and decides how to resolve it.
package arbiter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rishitkumar8/Railways/internal/logging"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
	"github.com/rishitkumar8/Railways/pkg/risk"
	"github.com/rishitkumar8/Railways/pkg/routing"
	"github.com/rishitkumar8/Railways/pkg/world"
)

const (
	// DefaultCriticalTTC marks a conflict as critical.
	DefaultCriticalTTC = 8 * time.Second
	// maxCachedTTC is the horizon past which the cache reports no TTC.
	maxCachedTTC = 120.0
	// riskLevelGain scales a pair score into the per-agent risk level.
	riskLevelGain = 1.4
)

// Blocker serializes additions to the blocked set.
type Blocker interface {
	BlockEdge(edge domain.Edge, agentID, reason string) (*world.Snapshot, bool)
}

// Arbiter scans agent pairs and turns the worst one into a decision.
type Arbiter struct {
	evaluator   *risk.Evaluator
	router      *routing.Router
	blocker     Blocker
	workers     int
	criticalTTC time.Duration
	logger      *slog.Logger
}

// Option configures the Arbiter.
type Option func(*Arbiter)

// WithWorkers bounds the number of goroutines scoring pairs. Values < 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(a *Arbiter) {
		a.workers = n
	}
}

// WithCriticalTTC sets the time-to-collision under which a decision is flagged critical.
func WithCriticalTTC(d time.Duration) Option {
	return func(a *Arbiter) {
		a.criticalTTC = d
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Arbiter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Arbiter.
func New(evaluator *risk.Evaluator, router *routing.Router, blocker Blocker, opts ...Option) *Arbiter {
	a := &Arbiter{
		evaluator:   evaluator,
		router:      router,
		blocker:     blocker,
		criticalTTC: DefaultCriticalTTC,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers < 1 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	return a
}

// Cycle is the input of one arbitration.
// Roster agents must be normalized and carry unique ids.
type Cycle struct {
	ID     string
	Graph  *network.Graph
	Roster []domain.Agent
	Now    time.Time
}

// Outcome is the result of one arbitration.
type Outcome struct {
	Decision  domain.Decision
	Conflict  *domain.Conflict
	RiskCache []domain.RiskCacheEntry
	Pairs     int
	// Blocked is set when the decision added an edge to the blocked set.
	Blocked *world.BlockedEntry
}

type scored struct {
	score       float64
	ttc         float64
	counterpart string
}

// Decide evaluates every unordered pair of the roster and resolves the worst one.
func (a *Arbiter) Decide(ctx context.Context, c Cycle) (Outcome, error) {
	n := len(c.Roster)
	decision := domain.Decision{
		ID:          c.ID,
		Action:      domain.ActionNormal,
		EvaluatedAt: c.Now,
	}
	if n < 2 {
		decision.Reason = "fewer than two agents"
		return Outcome{Decision: decision}, nil
	}

	samples := make([]domain.FeedSample, n)
	for i, ag := range c.Roster {
		samples[i] = a.evaluator.AgentSample(ctx, ag)
	}

	var (
		mu   sync.Mutex
		best *domain.RiskAssessment
	)
	perAgent := make(map[string]scored, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := 0; i < n-1; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var local *domain.RiskAssessment
			localAgents := make(map[string]scored)
			for j := i + 1; j < n; j++ {
				r := a.evaluator.Assess(c.Graph, c.Roster[i], c.Roster[j], samples[i], samples[j])
				if local == nil || better(r, *local) {
					rc := r
					local = &rc
				}
				track(localAgents, r.AgentA, r.AgentB, r)
				track(localAgents, r.AgentB, r.AgentA, r)
			}

			mu.Lock()
			defer mu.Unlock()
			if best == nil || better(*local, *best) {
				best = local
			}
			for id, s := range localAgents {
				if cur, ok := perAgent[id]; !ok || s.score > cur.score || (s.score == cur.score && s.counterpart < cur.counterpart) {
					perAgent[id] = s
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Pairs:     n * (n - 1) / 2,
		RiskCache: cacheEntries(perAgent, c.Now),
	}

	threshold := a.evaluator.Params().Threshold
	decision.Score = best.Score
	decision.Critical = best.TimeToCollision < a.criticalTTC.Seconds()

	if best.Score < threshold {
		decision.Reason = fmt.Sprintf("max risk %.3f between %s and %s below threshold %.2f", best.Score, best.AgentA, best.AgentB, threshold)
		out.Decision = decision
		return out, nil
	}

	byID := make(map[string]domain.Agent, n)
	for _, ag := range c.Roster {
		byID[ag.ID] = ag
	}
	agA, agB := byID[best.AgentA], byID[best.AgentB]
	loser := Loser(agA, agB)

	conflict := &domain.Conflict{
		A:          best.AgentA,
		B:          best.AgentB,
		Score:      best.Score,
		TTC:        best.TimeToCollision,
		Loser:      loser.ID,
		Assessment: *best,
	}
	out.Conflict = conflict
	decision.Conflict = conflict
	decision.AgentID = loser.ID

	a.logger.InfoContext(ctx, "Conflict detected",
		"train_id", loser.ID,
		"pair", best.AgentA+"|"+best.AgentB,
		"score", best.Score,
		"ttc", best.TimeToCollision,
	)

	edge, onEdge := loser.CurrentEdge()
	if onEdge {
		reason := fmt.Sprintf("conflict %s/%s score %.3f", best.AgentA, best.AgentB, best.Score)
		snap, added := a.blocker.BlockEdge(edge, loser.ID, reason)
		blocked := edge
		decision.BlockedEdge = &blocked
		if added {
			entry := snap.Owners[edge.Key()]
			out.Blocked = &entry
		}

		if route, ok := a.router.Route(ctx, c.Graph, snap.Blocked, edge.From, loser.Goal()); ok {
			decision.Action = domain.ActionRequestConfirmation
			decision.SuggestedPath = route.Path
			decision.Reason = fmt.Sprintf("reroute %s (priority %d) around %s, risk %.3f", loser.ID, loser.EffectivePriority(), edge, best.Score)
			out.Decision = decision
			return out, nil
		}
	}

	// No alternate path: stop whoever can still act.
	actors := movable(agA, agB)
	if len(actors) == 1 {
		decision.Action = domain.ActionEmergencyStop
		decision.AgentID = actors[0].ID
		decision.Reason = fmt.Sprintf("no alternate path for %s, emergency stop %s", loser.ID, actors[0].ID)
	} else {
		decision.Action = domain.ActionStopBoth
		decision.Reason = fmt.Sprintf("no alternate path for %s, stop %s and %s", loser.ID, agA.ID, agB.ID)
	}
	out.Decision = decision
	return out, nil
}

// Loser returns the agent to reroute: the strictly lower priority, then the smaller id.
func Loser(a, b domain.Agent) domain.Agent {
	pa, pb := a.EffectivePriority(), b.EffectivePriority()
	switch {
	case pa < pb:
		return a
	case pb < pa:
		return b
	case b.ID < a.ID:
		return b
	}
	return a
}

func better(x, y domain.RiskAssessment) bool {
	if x.Score != y.Score {
		return x.Score > y.Score
	}
	if x.AgentA != y.AgentA {
		return x.AgentA < y.AgentA
	}
	return x.AgentB < y.AgentB
}

func track(m map[string]scored, id, other string, r domain.RiskAssessment) {
	cur, ok := m[id]
	if ok && (r.Score < cur.score || (r.Score == cur.score && other > cur.counterpart)) {
		return
	}
	m[id] = scored{score: r.Score, ttc: r.TimeToCollision, counterpart: other}
}

func cacheEntries(m map[string]scored, now time.Time) []domain.RiskCacheEntry {
	out := make([]domain.RiskCacheEntry, 0, len(m))
	for id, s := range m {
		e := domain.RiskCacheEntry{
			AgentID:     id,
			Score:       s.score,
			RiskLevel:   math.Min(1, s.score*riskLevelGain),
			Counterpart: s.counterpart,
			UpdatedAt:   now,
		}
		if s.ttc < maxCachedTTC {
			ttc := s.ttc
			e.TTC = &ttc
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

func movable(agents ...domain.Agent) []domain.Agent {
	var out []domain.Agent
	for _, ag := range agents {
		if ag.Speed > 0 && len(ag.Path) >= 2 {
			out = append(out, ag)
		}
	}
	return out
}
