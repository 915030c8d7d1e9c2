package spawn

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rishitkumar8/Railways/internal/logging"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
)

const (
	// DefaultInterval is the pause between two spawns.
	DefaultInterval = 10 * time.Second
	// DefaultMaxAgents bounds the number of live spawned agents.
	DefaultMaxAgents = 100
	// MinInterval is the smallest accepted interval.
	MinInterval = time.Second

	queueSize = 1024
)

// Status describes the producer configuration.
type Status struct {
	Enabled   bool `json:"enabled"`
	Interval  int  `json:"interval_seconds"`
	MaxAgents int  `json:"max_trains"`
	Spawned   int  `json:"spawned_count"`
	Queued    int  `json:"queued"`
}

// Producer periodically generates agents into a bounded queue that
// evaluation cycles drain. It is disabled until SetEnabled(true).
type Producer struct {
	gen    *Generator
	graph  func() *network.Graph
	active func() int
	logger *slog.Logger

	queue   chan domain.Agent
	wake    chan struct{}
	enabled atomic.Bool
	seq     atomic.Int64

	mu        sync.Mutex
	interval  time.Duration
	maxAgents int
	cancel    context.CancelFunc
	done      chan struct{}
}

// ProducerOption configures the Producer.
type ProducerOption func(*Producer)

// WithInterval sets the initial spawn interval.
func WithInterval(d time.Duration) ProducerOption {
	return func(p *Producer) {
		if d >= MinInterval {
			p.interval = d
		}
	}
}

// WithMaxAgents sets the initial live agent bound.
func WithMaxAgents(n int) ProducerOption {
	return func(p *Producer) {
		if n >= 1 {
			p.maxAgents = n
		}
	}
}

// WithEnabled sets the initial enabled flag.
func WithEnabled(enabled bool) ProducerOption {
	return func(p *Producer) {
		p.enabled.Store(enabled)
	}
}

// WithActiveCount reports how many spawned agents are already live outside the queue.
func WithActiveCount(fn func() int) ProducerOption {
	return func(p *Producer) {
		if fn != nil {
			p.active = fn
		}
	}
}

// WithProducerLogger configures a logger.
func WithProducerLogger(logger *slog.Logger) ProducerOption {
	return func(p *Producer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProducer creates a producer that spawns on the graph returned by graph.
func NewProducer(gen *Generator, graph func() *network.Graph, opts ...ProducerOption) *Producer {
	p := &Producer{
		gen:       gen,
		graph:     graph,
		active:    func() int { return 0 },
		logger:    logging.NewNop(),
		queue:     make(chan domain.Agent, queueSize),
		wake:      make(chan struct{}, 1),
		interval:  DefaultInterval,
		maxAgents: DefaultMaxAgents,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs the spawn loop until ctx is canceled or Stop is called.
// Calling Start twice is a no-op.
func (p *Producer) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go func() {
		defer close(done)
		p.loop(ctx)
	}()
}

// Stop ends the spawn loop and waits for it to exit.
func (p *Producer) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Producer) loop(ctx context.Context) {
	timer := time.NewTimer(p.Interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
			p.Tick(ctx)
		}
		timer.Reset(p.Interval())
	}
}

// Tick attempts one spawn. It returns false when disabled, at capacity or when the queue is full.
func (p *Producer) Tick(ctx context.Context) (domain.Agent, bool) {
	if !p.enabled.Load() {
		return domain.Agent{}, false
	}
	total := p.active() + len(p.queue)
	if total >= p.MaxAgents() {
		return domain.Agent{}, false
	}

	var g *network.Graph
	if p.graph != nil {
		g = p.graph()
	}
	agent := p.gen.Spawn(ctx, g, int(p.seq.Add(1)))

	select {
	case p.queue <- agent:
		p.logger.Info(fmt.Sprintf("Spawned train %s (total %d)", agent.ID, total+1), "train_id", agent.ID)
		return agent, true
	default:
		p.logger.Warn("Spawn queue full, dropping agent", "train_id", agent.ID)
		return domain.Agent{}, false
	}
}

// Drain returns every queued agent without blocking.
func (p *Producer) Drain() []domain.Agent {
	var out []domain.Agent
	for {
		select {
		case a := <-p.queue:
			out = append(out, a)
		default:
			return out
		}
	}
}

// SetEnabled toggles spawning.
func (p *Producer) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// Enabled reports whether spawning is on.
func (p *Producer) Enabled() bool {
	return p.enabled.Load()
}

// Configure changes the interval and agent bound. Zero values keep the current setting.
// Intervals below MinInterval are raised to it.
func (p *Producer) Configure(interval time.Duration, maxAgents int) {
	p.mu.Lock()
	if interval > 0 {
		p.interval = max(interval, MinInterval)
	}
	if maxAgents > 0 {
		p.maxAgents = maxAgents
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Interval returns the spawn interval.
func (p *Producer) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// MaxAgents returns the live agent bound.
func (p *Producer) MaxAgents() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxAgents
}

// Status returns the current configuration and counters.
func (p *Producer) Status() Status {
	return Status{
		Enabled:   p.Enabled(),
		Interval:  int(p.Interval() / time.Second),
		MaxAgents: p.MaxAgents(),
		Spawned:   p.active(),
		Queued:    len(p.queue),
	}
}
