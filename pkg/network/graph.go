// Package network builds the station graph used by every evaluation cycle.
package network

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

// Graph is an immutable adjacency model of stations and undirected edges.
type Graph struct {
	stations map[string]domain.Coordinate
	adj      map[string][]string
	edges    []domain.Edge
	skipped  []domain.Edge
	dist     map[domain.EdgeKey]float64
}

// Build indexes a snapshot. Edges whose endpoints are unknown, self loops
// and duplicates are skipped; Build never fails.
func Build(snapshot domain.NetworkSnapshot) *Graph {
	g := &Graph{
		stations: make(map[string]domain.Coordinate, len(snapshot.Stations)),
		adj:      make(map[string][]string, len(snapshot.Stations)),
		dist:     make(map[domain.EdgeKey]float64, len(snapshot.Edges)),
	}

	for id, c := range snapshot.Stations {
		if id == "" || !finite(c) {
			continue
		}
		g.stations[id] = c
	}

	for _, e := range snapshot.Edges {
		a, okA := g.stations[e.From]
		b, okB := g.stations[e.To]
		if !okA || !okB || e.From == e.To {
			g.skipped = append(g.skipped, e)
			continue
		}
		k := e.Key()
		if _, dup := g.dist[k]; dup {
			continue
		}
		g.dist[k] = Haversine(a, b)
		g.edges = append(g.edges, e)
		g.adj[e.From] = append(g.adj[e.From], e.To)
		g.adj[e.To] = append(g.adj[e.To], e.From)
	}

	for id := range g.adj {
		sort.Strings(g.adj[id])
	}
	return g
}

// Station returns the coordinate of id.
func (g *Graph) Station(id string) (domain.Coordinate, bool) {
	c, ok := g.stations[id]
	return c, ok
}

// HasStation reports whether id is part of the graph.
func (g *Graph) HasStation(id string) bool {
	_, ok := g.stations[id]
	return ok
}

// Stations returns every station id, sorted.
func (g *Graph) Stations() []string {
	ids := make([]string, 0, len(g.stations))
	for id := range g.stations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Neighbors returns the stations adjacent to id, sorted.
func (g *Graph) Neighbors(id string) []string {
	return g.adj[id]
}

// HasEdge reports whether u-v is a valid edge.
func (g *Graph) HasEdge(u, v string) bool {
	_, ok := g.dist[domain.NewEdgeKey(u, v)]
	return ok
}

// Edges returns the accepted edges in input order.
func (g *Graph) Edges() []domain.Edge {
	return g.edges
}

// Skipped returns the edges rejected by Build.
func (g *Graph) Skipped() []domain.Edge {
	return g.skipped
}

// Len returns the number of stations.
func (g *Graph) Len() int {
	return len(g.stations)
}

// Distance returns the great-circle distance in metres between two stations.
// The second value is false when either station is unknown.
func (g *Graph) Distance(u, v string) (float64, bool) {
	if d, ok := g.dist[domain.NewEdgeKey(u, v)]; ok {
		return d, true
	}
	a, okA := g.stations[u]
	b, okB := g.stations[v]
	if !okA || !okB {
		return 0, false
	}
	return Haversine(a, b), true
}

// Snapshot converts the graph back to its wire form, without skipped edges.
func (g *Graph) Snapshot() domain.NetworkSnapshot {
	stations := make(map[string]domain.Coordinate, len(g.stations))
	for id, c := range g.stations {
		stations[id] = c
	}
	return domain.NetworkSnapshot{
		Stations: stations,
		Edges:    append([]domain.Edge(nil), g.edges...),
	}
}

// Haversine returns the great-circle distance in metres.
func Haversine(a, b domain.Coordinate) float64 {
	return geo.DistanceHaversine(point(a), point(b))
}

// Interpolate returns the point at fraction f of the straight line a-b.
func Interpolate(a, b domain.Coordinate, f float64) domain.Coordinate {
	f = domain.Clamp01(f)
	return domain.Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*f,
		Lon: a.Lon + (b.Lon-a.Lon)*f,
	}
}

func point(c domain.Coordinate) orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

func finite(c domain.Coordinate) bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lon) && !math.IsInf(c.Lat, 0) && !math.IsInf(c.Lon, 0)
}
