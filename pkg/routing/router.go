// Package routing finds risk-weighted paths that avoid blocked edges.
package routing

import (
	"container/heap"
	"context"
	"log/slog"
	"math"

	"github.com/rishitkumar8/Railways/internal/logging"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
	"github.com/rishitkumar8/Railways/pkg/ports"
)

// Router runs Dijkstra over a station graph.
type Router struct {
	feed        ports.RiskFeed
	logger      *slog.Logger
	onFeedError func(kind string)
}

// Option configures the Router.
type Option func(*Router)

// WithFeed sets the source of segment risk.
func WithFeed(feed ports.RiskFeed) Option {
	return func(r *Router) {
		if feed != nil {
			r.feed = feed
		}
	}
}

// WithLogger configures a logger for feed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFeedErrorHook is called with "segment" on every feed failure.
func WithFeedErrorHook(fn func(kind string)) Option {
	return func(r *Router) {
		r.onFeedError = fn
	}
}

// New creates a Router. Without WithFeed every edge weighs its raw distance.
func New(opts ...Option) *Router {
	r := &Router{
		feed:   ports.NopFeed{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Weights holds the risk-weighted cost of every edge of one graph.
type Weights map[domain.EdgeKey]float64

// Weigh reads the segment risk of every edge of g once and returns the
// edge costs, distance·(1 + mean segment risk). Reuse the result for a
// batch of routes on the same graph.
func (r *Router) Weigh(ctx context.Context, g *network.Graph) Weights {
	if g == nil {
		return nil
	}
	w := make(Weights, len(g.Edges()))
	for _, e := range g.Edges() {
		d, _ := g.Distance(e.From, e.To)
		w[e.Key()] = d * (1 + r.segmentRisk(ctx, e))
	}
	return w
}

// Route returns the cheapest path from start to goal that never uses an edge of blocked.
// Edge cost is distance·(1 + mean segment risk). Unknown endpoints yield false.
func (r *Router) Route(ctx context.Context, g *network.Graph, blocked domain.EdgeSet, start, goal string) (domain.Route, bool) {
	if g == nil || !g.HasStation(start) || !g.HasStation(goal) {
		return domain.Route{}, false
	}
	return r.RouteWeighted(g, r.Weigh(ctx, g), blocked, start, goal)
}

// RouteWeighted is Route over precomputed weights. Edges missing from
// weights are not used.
func (r *Router) RouteWeighted(g *network.Graph, weights Weights, blocked domain.EdgeSet, start, goal string) (domain.Route, bool) {
	if g == nil || !g.HasStation(start) || !g.HasStation(goal) {
		return domain.Route{}, false
	}
	path, cost, ok := shortestPath(g, start, goal, func(u, v string) (float64, bool) {
		if blocked.Contains(u, v) {
			return 0, false
		}
		w, ok := weights[domain.NewEdgeKey(u, v)]
		return w, ok
	})
	if !ok {
		return domain.Route{}, false
	}
	return domain.Route{Path: path, Distance: PathDistance(g, path), Cost: cost}, true
}

// Expand joins consecutive stations of path that are not adjacent with the
// shortest physical route between them. Blocked edges and risk are ignored:
// the track exists even if the router would avoid it. Pairs that cannot be
// joined, or reference unknown stations, are kept as they are.
func (r *Router) Expand(g *network.Graph, path []string) []string {
	if g == nil || len(path) < 2 {
		return path
	}
	out := []string{path[0]}
	for i := 0; i < len(path)-1; i++ {
		u, v := path[i], path[i+1]
		if u == v {
			continue
		}
		if g.HasEdge(u, v) || !g.HasStation(u) || !g.HasStation(v) {
			out = append(out, v)
			continue
		}
		leg, _, ok := shortestPath(g, u, v, func(a, b string) (float64, bool) {
			return g.Distance(a, b)
		})
		if !ok {
			out = append(out, v)
			continue
		}
		out = append(out, leg[1:]...)
	}
	return out
}

// segmentRisk averages every sub-segment sample of e, in both orientations.
func (r *Router) segmentRisk(ctx context.Context, e domain.Edge) float64 {
	var contribs []domain.Contribution
	for _, s := range []domain.FeedSample{
		r.feed.SegmentRisk(ctx, e.From, e.To),
		r.feed.SegmentRisk(ctx, e.To, e.From),
	} {
		switch s.Status {
		case domain.FeedOK:
			contribs = append(contribs, s.Contributions...)
		case domain.FeedUnavailable:
			r.logger.WarnContext(ctx, "Risk feed unavailable", "kind", "segment", "subject", e.String(), "error", s.Err)
			if r.onFeedError != nil {
				r.onFeedError("segment")
			}
		}
	}
	if len(contribs) == 0 {
		return 0
	}
	return domain.Sample(contribs...).Mean()
}

// PathDistance sums the great-circle length of consecutive stations.
func PathDistance(g *network.Graph, path []string) float64 {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		d, _ := g.Distance(path[i], path[i+1])
		total += d
	}
	return total
}

// shortestPath is Dijkstra with a lazy decrease-key heap and parent pointers.
// weight returns false for edges that may not be used.
// Heap order is (cost, id) and equal-cost relaxations keep the smaller parent,
// so the result only depends on the inputs.
func shortestPath(g *network.Graph, start, goal string, weight func(u, v string) (float64, bool)) ([]string, float64, bool) {
	if start == goal {
		return []string{start}, 0, true
	}

	dist := map[string]float64{start: 0}
	parent := make(map[string]string)
	visited := make(map[string]bool)

	pq := &nodePQ{}
	heap.Init(pq)
	heap.Push(pq, &nodeItem{id: start, dist: 0})

	for pq.Len() > 0 {
		u := heap.Pop(pq).(*nodeItem)
		if visited[u.id] {
			continue
		}
		visited[u.id] = true
		if u.id == goal {
			break
		}

		for _, v := range g.Neighbors(u.id) {
			if visited[v] {
				continue
			}
			w, ok := weight(u.id, v)
			if !ok {
				continue
			}
			nd := u.dist + w
			old, seen := dist[v]
			switch {
			case !seen || nd < old:
				dist[v] = nd
				parent[v] = u.id
				heap.Push(pq, &nodeItem{id: v, dist: nd})
			case nd == old && u.id < parent[v]:
				parent[v] = u.id
			}
		}
	}

	if !visited[goal] {
		return nil, math.Inf(1), false
	}

	var rev []string
	for at := goal; ; at = parent[at] {
		rev = append(rev, at)
		if at == start {
			break
		}
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path, dist[goal], true
}

type nodeItem struct {
	id   string
	dist float64
}

type nodePQ []*nodeItem

func (pq nodePQ) Len() int { return len(pq) }
func (pq nodePQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].id < pq[j].id
}
func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *nodePQ) Push(x interface{}) {
	*pq = append(*pq, x.(*nodeItem))
}
func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	it := old[n-1]
	*pq = old[:n-1]
	return it
}
