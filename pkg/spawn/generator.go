// Package spawn generates synthetic agents for stress tests and for the periodic producer.
package spawn

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
	"github.com/rishitkumar8/Railways/pkg/predict"
	"github.com/rishitkumar8/Railways/pkg/routing"
)

const (
	minSpeed    = 60
	maxSpeed    = 130
	chaosSpread = 30
	maxProgress = 0.9
)

// Generator builds random agents on a graph.
// Safe for concurrent use.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	router *routing.Router
}

// NewGenerator creates a generator seeded with seed. router may be nil,
// in which case agents travel on the direct pair [source, destination].
func NewGenerator(router *routing.Router, seed uint64) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		router: router,
	}
}

// Stress returns count agents named ST1..STn. With chaos, speeds spread ±30 km/h.
// Graphs with fewer than two stations are replaced by network.DefaultSnapshot.
func (g *Generator) Stress(ctx context.Context, graph *network.Graph, count int, chaos bool) []domain.Agent {
	graph = usable(graph)
	weights := g.weigh(ctx, graph)
	out := make([]domain.Agent, 0, count)
	for i := 1; i <= count; i++ {
		a := g.one(graph, weights, chaos)
		a.ID = fmt.Sprintf("ST%d", i)
		a.Name = fmt.Sprintf("Stress-%d", i)
		out = append(out, a)
	}
	return out
}

// Spawn returns one chaotic agent named SP<idx>.
func (g *Generator) Spawn(ctx context.Context, graph *network.Graph, idx int) domain.Agent {
	graph = usable(graph)
	a := g.one(graph, g.weigh(ctx, graph), true)
	a.ID = fmt.Sprintf("SP%03d", idx)
	a.Name = fmt.Sprintf("Spawned-%d", idx)
	a.TrainType = "synthetic"
	return a
}

func (g *Generator) weigh(ctx context.Context, graph *network.Graph) routing.Weights {
	if g.router == nil {
		return nil
	}
	return g.router.Weigh(ctx, graph)
}

func (g *Generator) one(graph *network.Graph, weights routing.Weights, chaos bool) domain.Agent {
	stations := graph.Stations()

	g.mu.Lock()
	src := stations[g.rng.IntN(len(stations))]
	dst := src
	for dst == src {
		dst = stations[g.rng.IntN(len(stations))]
	}
	speed := float64(minSpeed + g.rng.IntN(maxSpeed-minSpeed+1))
	if chaos {
		speed += float64(g.rng.IntN(2*chaosSpread+1) - chaosSpread)
	}
	progress := g.rng.Float64() * maxProgress
	priority := 1 + g.rng.IntN(3)
	g.mu.Unlock()

	path := []string{src, dst}
	if g.router != nil {
		if route, ok := g.router.RouteWeighted(graph, weights, nil, src, dst); ok {
			path = route.Path
		}
	}

	a := domain.Agent{
		Source:      src,
		Destination: dst,
		Path:        path,
		Progress:    progress,
		Speed:       speed,
		Priority:    domain.IntPtr(priority),
		Status:      "MOVING",
	}
	pos := predict.Current(graph, a)
	a.Lat, a.Lon = pos.Lat, pos.Lon
	return a
}

func usable(graph *network.Graph) *network.Graph {
	if graph == nil || graph.Len() < 2 {
		return network.Build(network.DefaultSnapshot())
	}
	return graph
}
