package domain

import (
	"encoding/json"
	"sort"
)

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Station is a named point of the network.
type Station struct {
	ID string `json:"id"`
	Coordinate
}

// Edge is an undirected track between two stations.
// On the wire it is a two element array: ["A", "B"].
type Edge struct {
	From string
	To   string
}

// MarshalJSON encodes the edge as a pair.
func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.From, e.To})
}

// UnmarshalJSON accepts either ["A","B"] or {"from":"A","to":"B"}.
// Malformed edges decode with missing endpoints left empty, so the graph
// builder skips and counts them instead of failing the whole payload.
func (e *Edge) UnmarshalJSON(data []byte) error {
	*e = Edge{}

	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return nil
		}
		_ = json.Unmarshal(pair[0], &e.From)
		_ = json.Unmarshal(pair[1], &e.To)
		return nil
	}

	var obj struct {
		From any `json:"from"`
		To   any `json:"to"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		e.From, _ = obj.From.(string)
		e.To, _ = obj.To.(string)
	}
	return nil
}

// Key returns the orientation independent identity of the edge.
func (e Edge) Key() EdgeKey {
	return NewEdgeKey(e.From, e.To)
}

func (e Edge) String() string {
	return e.From + "-" + e.To
}

// EdgeKey identifies an undirected edge. A is always <= B.
type EdgeKey struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewEdgeKey normalizes the station order.
func NewEdgeKey(u, v string) EdgeKey {
	if v < u {
		u, v = v, u
	}
	return EdgeKey{A: u, B: v}
}

// Edge converts the key back to an edge, A to B.
func (k EdgeKey) Edge() Edge {
	return Edge{From: k.A, To: k.B}
}

func (k EdgeKey) String() string {
	return k.A + "-" + k.B
}

// EdgeSet is a set of undirected edges.
// The zero value is an empty, read-only set; use Clone or NewEdgeSet before adding.
type EdgeSet map[EdgeKey]struct{}

// NewEdgeSet builds a set from the given edges.
func NewEdgeSet(edges ...Edge) EdgeSet {
	s := make(EdgeSet, len(edges))
	for _, e := range edges {
		s[e.Key()] = struct{}{}
	}
	return s
}

// Contains reports whether the edge u-v (in either direction) is in the set.
func (s EdgeSet) Contains(u, v string) bool {
	_, ok := s[NewEdgeKey(u, v)]
	return ok
}

// Add inserts u-v. It returns false if the edge was already present.
func (s EdgeSet) Add(u, v string) bool {
	k := NewEdgeKey(u, v)
	if _, ok := s[k]; ok {
		return false
	}
	s[k] = struct{}{}
	return true
}

// Remove deletes u-v. It returns false if the edge was absent.
func (s EdgeSet) Remove(u, v string) bool {
	k := NewEdgeKey(u, v)
	if _, ok := s[k]; !ok {
		return false
	}
	delete(s, k)
	return true
}

// Clone returns an independent copy.
func (s EdgeSet) Clone() EdgeSet {
	c := make(EdgeSet, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

// Keys returns the edges sorted by (A, B).
func (s EdgeSet) Keys() []EdgeKey {
	keys := make([]EdgeKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	return keys
}

// NetworkSnapshot is the graph as supplied by a caller.
type NetworkSnapshot struct {
	Stations map[string]Coordinate `json:"stations"`
	Edges    []Edge                `json:"edges"`
}

// IsEmpty reports whether the snapshot has no station.
func (n NetworkSnapshot) IsEmpty() bool {
	return len(n.Stations) == 0
}
