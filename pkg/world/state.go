// Package world holds the mutable state shared by evaluation cycles.
//
// Readers get an immutable *Snapshot through an atomic load. Writers
// serialize on a single mutex and publish a new snapshot (copy-on-write),
// so a cycle always observes a consistent graph, roster and blocked set.
package world

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rishitkumar8/Railways/internal/logging"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
)

// ReleasePolicy decides when a blocked edge returns to service.
type ReleasePolicy string

const (
	// ReleasePermanent keeps edges blocked for the process lifetime.
	ReleasePermanent ReleasePolicy = "permanent"
	// ReleaseOnClear frees an edge once its owner no longer has it ahead, or leaves the roster.
	ReleaseOnClear ReleasePolicy = "release_on_clear"
	// ReleaseTTL frees an edge after a fixed duration.
	ReleaseTTL ReleasePolicy = "ttl"
)

// ParseReleasePolicy validates a policy name.
func ParseReleasePolicy(s string) (ReleasePolicy, error) {
	switch p := ReleasePolicy(s); p {
	case ReleasePermanent, ReleaseOnClear, ReleaseTTL:
		return p, nil
	case "":
		return ReleasePermanent, nil
	}
	return "", fmt.Errorf("unknown release policy %q", s)
}

// BlockedEntry records who caused an edge to be blocked.
type BlockedEntry struct {
	Edge      domain.EdgeKey `json:"edge"`
	AgentID   string         `json:"train_id"`
	Reason    string         `json:"reason"`
	BlockedAt time.Time      `json:"blocked_at"`
}

// Snapshot is an immutable view of the world. Never modify its fields.
type Snapshot struct {
	Graph     *network.Graph
	Roster    []domain.Agent
	Blocked   domain.EdgeSet
	Owners    map[domain.EdgeKey]BlockedEntry
	Version   uint64
	UpdatedAt time.Time
}

// State is the session object shared by cycles, the producer and the transports.
type State struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]

	policy ReleasePolicy
	ttl    time.Duration
	clock  func() time.Time
	logger *slog.Logger

	riskMu sync.RWMutex
	risk   map[string]domain.RiskCacheEntry

	spawnMu    sync.Mutex
	spawned    []domain.Agent
	maxSpawned int

	saved atomic.Int64
}

// Option configures the State.
type Option func(*State)

// WithReleasePolicy sets the blocked-edge policy. ttl is only used by ReleaseTTL.
func WithReleasePolicy(policy ReleasePolicy, ttl time.Duration) Option {
	return func(s *State) {
		s.policy = policy
		s.ttl = ttl
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *State) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger configures a logger for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *State) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxSpawned bounds the list of spawned agents kept for inspection.
func WithMaxSpawned(n int) Option {
	return func(s *State) {
		s.maxSpawned = n
	}
}

// WithGraph sets the initial graph snapshot.
func WithGraph(graph domain.NetworkSnapshot) Option {
	return func(s *State) {
		snap := *s.current.Load()
		snap.Graph = network.Build(graph)
		s.current.Store(&snap)
	}
}

// New creates an empty world.
func New(opts ...Option) *State {
	s := &State{
		policy:     ReleasePermanent,
		clock:      time.Now,
		logger:     logging.NewNop(),
		risk:       make(map[string]domain.RiskCacheEntry),
		maxSpawned: 100,
	}
	s.current.Store(&Snapshot{
		Graph:   network.Build(domain.NetworkSnapshot{}),
		Blocked: domain.EdgeSet{},
		Owners:  map[domain.EdgeKey]BlockedEntry{},
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current view.
func (s *State) Snapshot() *Snapshot {
	return s.current.Load()
}

// Policy returns the configured release policy.
func (s *State) Policy() ReleasePolicy {
	return s.policy
}

// update runs fn on a copy of the current snapshot and publishes it.
// Callers must hold s.mu.
func (s *State) update(fn func(next *Snapshot)) *Snapshot {
	next := *s.current.Load()
	fn(&next)
	next.Version++
	next.UpdatedAt = s.clock()
	s.current.Store(&next)
	return &next
}

// Sync replaces the graph snapshot.
func (s *State) Sync(graph domain.NetworkSnapshot) domain.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := network.Build(graph)
	snap := s.update(func(next *Snapshot) {
		next.Graph = g
	})
	if skipped := len(g.Skipped()); skipped > 0 {
		s.logger.Warn("Skipped invalid edges", "count", skipped)
	}
	return domain.SyncStatus{
		Status:       "synced",
		Stations:     g.Len(),
		Edges:        len(g.Edges()),
		SkippedEdges: len(g.Skipped()),
		Version:      snap.Version,
	}
}

// Begin publishes the graph (when not empty) and the roster of a new cycle.
func (s *State) Begin(graph domain.NetworkSnapshot, roster []domain.Agent) *Snapshot {
	var g *network.Graph
	if !graph.IsEmpty() {
		g = network.Build(graph)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(func(next *Snapshot) {
		if g != nil {
			next.Graph = g
		}
		next.Roster = append([]domain.Agent(nil), roster...)
	})
}

// BlockEdge adds u-v to the blocked set on behalf of agentID.
// It returns the snapshot holding the edge and whether the edge was newly added.
func (s *State) BlockEdge(edge domain.Edge, agentID, reason string) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if cur.Blocked.Contains(edge.From, edge.To) {
		return cur, false
	}
	snap := s.update(func(next *Snapshot) {
		next.Blocked = cur.Blocked.Clone()
		next.Blocked.Add(edge.From, edge.To)
		next.Owners = cloneOwners(cur.Owners)
		next.Owners[edge.Key()] = BlockedEntry{
			Edge:      edge.Key(),
			AgentID:   agentID,
			Reason:    reason,
			BlockedAt: s.clock(),
		}
	})
	return snap, true
}

// ReleaseEdge removes u-v from the blocked set. It returns false if it was not blocked.
func (s *State) ReleaseEdge(u, v string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if !cur.Blocked.Contains(u, v) {
		return false
	}
	s.release([]domain.EdgeKey{domain.NewEdgeKey(u, v)})
	return true
}

// ClearBlocked empties the blocked set and returns the released entries.
func (s *State) ClearBlocked() []BlockedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if len(cur.Blocked) == 0 {
		return nil
	}
	released := entries(cur)
	s.release(cur.Blocked.Keys())
	return released
}

// ApplyReleasePolicy frees the edges the policy no longer justifies, given
// the roster of the starting cycle. It returns the released entries.
func (s *State) ApplyReleasePolicy(roster []domain.Agent) []BlockedEntry {
	if s.policy == ReleasePermanent || s.policy == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if len(cur.Blocked) == 0 {
		return nil
	}

	byID := make(map[string]domain.Agent, len(roster))
	for _, a := range roster {
		byID[a.ID] = a
	}
	now := s.clock()

	var released []BlockedEntry
	for _, e := range entries(cur) {
		switch s.policy {
		case ReleaseTTL:
			if now.Sub(e.BlockedAt) >= s.ttl {
				released = append(released, e)
			}
		case ReleaseOnClear:
			owner, present := byID[e.AgentID]
			if !present || !owner.Ahead(e.Edge.A, e.Edge.B) {
				released = append(released, e)
			}
		}
	}
	if len(released) == 0 {
		return nil
	}

	keys := make([]domain.EdgeKey, len(released))
	for i, e := range released {
		keys[i] = e.Edge
	}
	s.release(keys)
	return released
}

// release drops keys from the blocked set. Callers must hold s.mu.
func (s *State) release(keys []domain.EdgeKey) {
	cur := s.current.Load()
	s.update(func(next *Snapshot) {
		next.Blocked = cur.Blocked.Clone()
		next.Owners = cloneOwners(cur.Owners)
		for _, k := range keys {
			next.Blocked.Remove(k.A, k.B)
			delete(next.Owners, k)
		}
	})
}

// Blocked returns the blocked edges with their owners, sorted by edge.
func (s *State) Blocked() []BlockedEntry {
	return entries(s.current.Load())
}

func entries(snap *Snapshot) []BlockedEntry {
	keys := snap.Blocked.Keys()
	out := make([]BlockedEntry, 0, len(keys))
	for _, k := range keys {
		e, ok := snap.Owners[k]
		if !ok {
			e = BlockedEntry{Edge: k}
		}
		out = append(out, e)
	}
	return out
}

func cloneOwners(m map[domain.EdgeKey]BlockedEntry) map[domain.EdgeKey]BlockedEntry {
	c := make(map[domain.EdgeKey]BlockedEntry, len(m)+1)
	for k, v := range m {
		c[k] = v
	}
	return c
}

// UpdateRiskCache stores the latest risk of each agent.
func (s *State) UpdateRiskCache(entries []domain.RiskCacheEntry) {
	s.riskMu.Lock()
	defer s.riskMu.Unlock()
	for _, e := range entries {
		s.risk[e.AgentID] = e
	}
}

// RiskCache returns the cached entries sorted by agent id.
func (s *State) RiskCache() []domain.RiskCacheEntry {
	s.riskMu.RLock()
	defer s.riskMu.RUnlock()
	out := make([]domain.RiskCacheEntry, 0, len(s.risk))
	for _, e := range s.risk {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// AppendSpawned records generated agents, keeping the newest maxSpawned.
func (s *State) AppendSpawned(agents ...domain.Agent) {
	s.spawnMu.Lock()
	defer s.spawnMu.Unlock()
	s.spawned = append(s.spawned, agents...)
	if s.maxSpawned > 0 && len(s.spawned) > s.maxSpawned {
		s.spawned = append([]domain.Agent(nil), s.spawned[len(s.spawned)-s.maxSpawned:]...)
	}
}

// SetMaxSpawned changes the bound applied by AppendSpawned.
func (s *State) SetMaxSpawned(n int) {
	s.spawnMu.Lock()
	defer s.spawnMu.Unlock()
	s.maxSpawned = n
}

// Spawned returns a copy of the spawned agents, oldest first.
func (s *State) Spawned() []domain.Agent {
	s.spawnMu.Lock()
	defer s.spawnMu.Unlock()
	return append([]domain.Agent(nil), s.spawned...)
}

// ClearSpawned drops every spawned agent and returns how many were removed.
func (s *State) ClearSpawned() int {
	s.spawnMu.Lock()
	defer s.spawnMu.Unlock()
	n := len(s.spawned)
	s.spawned = nil
	return n
}

// RecordSave increments the count of conflicts resolved by a reroute.
func (s *State) RecordSave() int64 {
	return s.saved.Add(1)
}

// TrainsSaved returns the number of conflicts resolved by a reroute.
func (s *State) TrainsSaved() int64 {
	return s.saved.Load()
}
