package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

// Feed implements ports.RiskFeed in memory.
// Safe for concurrent use.
type Feed struct {
	mu       sync.RWMutex
	stations map[string]float64
	segments map[string][]float64
	agents   map[string][]domain.Contribution
}

// NewFeed creates an empty in-memory feed.
func NewFeed() *Feed {
	return &Feed{
		stations: make(map[string]float64),
		segments: make(map[string][]float64),
		agents:   make(map[string][]domain.Contribution),
	}
}

// FeedFile is the on-disk form of a static feed.
// Segment keys are "FROM-TO".
type FeedFile struct {
	Stations map[string]float64               `yaml:"stations" json:"stations"`
	Segments map[string][]float64             `yaml:"segments" json:"segments"`
	Agents   map[string][]domain.Contribution `yaml:"agents" json:"agents"`
}

// LoadFile reads a YAML or JSON feed file, chosen by extension.
func LoadFile(path string) (*Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed file: %w", err)
	}

	var file FeedFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse feed json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse feed yaml: %w", err)
		}
	}

	f := NewFeed()
	ctx := context.Background()
	for id, v := range file.Stations {
		_ = f.PutStation(ctx, id, v)
	}
	for key, values := range file.Segments {
		from, to, ok := strings.Cut(key, "-")
		if !ok {
			return nil, fmt.Errorf("invalid segment key %q: expected FROM-TO", key)
		}
		_ = f.PutSegment(ctx, from, to, values)
	}
	for id, contribs := range file.Agents {
		_ = f.PutAgent(ctx, id, contribs...)
	}
	return f, nil
}

func segmentKey(from, to string) string {
	return from + "-" + to
}

// StationRisk returns the stored value for a station.
func (f *Feed) StationRisk(ctx context.Context, stationID string) domain.FeedSample {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.stations[stationID]
	if !ok {
		return domain.NoData()
	}
	return domain.Scalar("station", v)
}

// SegmentRisk returns one contribution per stored sub-segment.
func (f *Feed) SegmentRisk(ctx context.Context, from, to string) domain.FeedSample {
	f.mu.RLock()
	defer f.mu.RUnlock()
	values, ok := f.segments[segmentKey(from, to)]
	if !ok {
		return domain.NoData()
	}
	contribs := make([]domain.Contribution, len(values))
	for i, v := range values {
		contribs[i] = domain.Contribution{Source: fmt.Sprintf("%s-%d", segmentKey(from, to), i), Value: v, Weight: 1}
	}
	return domain.Sample(contribs...)
}

// AgentRisk returns the stored contributions for an agent.
func (f *Feed) AgentRisk(ctx context.Context, agentID string) domain.FeedSample {
	f.mu.RLock()
	defer f.mu.RUnlock()
	contribs, ok := f.agents[agentID]
	if !ok {
		return domain.NoData()
	}
	return domain.Sample(contribs...)
}

// PutStation stores a station value.
func (f *Feed) PutStation(ctx context.Context, stationID string, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stations[stationID] = value
	return nil
}

// PutSegment replaces the sub-segment values of from -> to.
func (f *Feed) PutSegment(ctx context.Context, from, to string, values []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.segments[segmentKey(from, to)] = append([]float64(nil), values...)
	return nil
}

// PutAgent replaces the contributions of an agent.
func (f *Feed) PutAgent(ctx context.Context, agentID string, contribs ...domain.Contribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents[agentID] = append([]domain.Contribution(nil), contribs...)
	return nil
}
