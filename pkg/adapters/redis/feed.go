package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

// Feed implements ports.RiskFeed on top of Redis.
//
// Layout, relative to the prefix:
//
//	station             hash   station id -> value
//	segment:FROM-TO     list   one value per sub-segment, in track order
//	agent:ID            hash   source -> {"value":..,"weight":..}
type Feed struct {
	client  *backend.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// Option configures the Redis feed.
type Option func(*Feed)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(f *Feed) {
		f.prefix = prefix
	}
}

// WithTTL sets the expiration of segment and agent samples written through the feed.
func WithTTL(ttl time.Duration) Option {
	return func(f *Feed) {
		f.ttl = ttl
	}
}

// WithTimeout bounds every read. A slow server degrades to an unavailable sample.
func WithTimeout(d time.Duration) Option {
	return func(f *Feed) {
		f.timeout = d
	}
}

// New creates a new Redis feed with options.
func New(address, password string, db int, opts ...Option) *Feed {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis feed from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Feed {
	f := &Feed{
		client:  client,
		prefix:  "railways:risk:",
		timeout: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Ping checks the connection.
func (f *Feed) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (f *Feed) Close() error {
	return f.client.Close()
}

func (f *Feed) stationKey() string { return f.prefix + "station" }

func (f *Feed) segmentKey(from, to string) string { return f.prefix + "segment:" + from + "-" + to }

func (f *Feed) agentKey(id string) string { return f.prefix + "agent:" + id }

func (f *Feed) readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, f.timeout)
}

// StationRisk reads the station hash.
func (f *Feed) StationRisk(ctx context.Context, stationID string) domain.FeedSample {
	ctx, cancel := f.readContext(ctx)
	defer cancel()

	v, err := f.client.HGet(ctx, f.stationKey(), stationID).Float64()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.NoData()
		}
		return domain.Unavailable(fmt.Errorf("station risk %s: %w", stationID, err))
	}
	return domain.Scalar("station", v)
}

// SegmentRisk reads every sub-segment value of from -> to.
func (f *Feed) SegmentRisk(ctx context.Context, from, to string) domain.FeedSample {
	ctx, cancel := f.readContext(ctx)
	defer cancel()

	raw, err := f.client.LRange(ctx, f.segmentKey(from, to), 0, -1).Result()
	if err != nil {
		return domain.Unavailable(fmt.Errorf("segment risk %s-%s: %w", from, to, err))
	}
	if len(raw) == 0 {
		return domain.NoData()
	}

	contribs := make([]domain.Contribution, 0, len(raw))
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		contribs = append(contribs, domain.Contribution{
			Source: fmt.Sprintf("%s-%s-%d", from, to, i),
			Value:  v,
			Weight: 1,
		})
	}
	return domain.Sample(contribs...)
}

type storedContribution struct {
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
}

// AgentRisk reads the contributions of an agent, ordered by source.
func (f *Feed) AgentRisk(ctx context.Context, agentID string) domain.FeedSample {
	ctx, cancel := f.readContext(ctx)
	defer cancel()

	fields, err := f.client.HGetAll(ctx, f.agentKey(agentID)).Result()
	if err != nil {
		return domain.Unavailable(fmt.Errorf("agent risk %s: %w", agentID, err))
	}
	if len(fields) == 0 {
		return domain.NoData()
	}

	sources := make([]string, 0, len(fields))
	for src := range fields {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	contribs := make([]domain.Contribution, 0, len(fields))
	for _, src := range sources {
		var c storedContribution
		if err := json.Unmarshal([]byte(fields[src]), &c); err != nil {
			continue
		}
		contribs = append(contribs, domain.Contribution{Source: src, Value: c.Value, Weight: c.Weight})
	}
	return domain.Sample(contribs...)
}

// PutStation stores a station value.
func (f *Feed) PutStation(ctx context.Context, stationID string, value float64) error {
	if err := f.client.HSet(ctx, f.stationKey(), stationID, value).Err(); err != nil {
		return fmt.Errorf("failed to store station risk: %w", err)
	}
	return nil
}

// PutSegment replaces the sub-segment values of from -> to.
func (f *Feed) PutSegment(ctx context.Context, from, to string, values []float64) error {
	key := f.segmentKey(from, to)
	pipe := f.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		args := make([]interface{}, len(values))
		for i, v := range values {
			args[i] = v
		}
		pipe.RPush(ctx, key, args...)
		if f.ttl > 0 {
			pipe.Expire(ctx, key, f.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store segment risk: %w", err)
	}
	return nil
}

// PutAgent replaces the contributions of an agent.
func (f *Feed) PutAgent(ctx context.Context, agentID string, contribs ...domain.Contribution) error {
	key := f.agentKey(agentID)
	pipe := f.client.TxPipeline()
	pipe.Del(ctx, key)
	for _, c := range contribs {
		data, err := json.Marshal(storedContribution{Value: c.Value, Weight: c.Weight})
		if err != nil {
			return fmt.Errorf("failed to marshal contribution: %w", err)
		}
		pipe.HSet(ctx, key, c.Source, data)
	}
	if len(contribs) > 0 && f.ttl > 0 {
		pipe.Expire(ctx, key, f.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store agent risk: %w", err)
	}
	return nil
}
