package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultBufferSize is the number of records kept by NewBuffer.
const DefaultBufferSize = 2000

// Entry is a log record kept in memory.
type Entry struct {
	Time    time.Time      `json:"timestamp"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	TrainID string         `json:"train_id,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Buffer is a bounded ring of recent log records.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	level   slog.Level
}

// NewBuffer creates a ring holding up to size records at or above level.
func NewBuffer(size int, level slog.Level) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{entries: make([]Entry, size), level: level}
}

func (b *Buffer) add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[b.next] = e
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

// Query returns the most recent entries, oldest first.
// level filters by exact level name (case-insensitive), trainID by the train_id attribute;
// empty values match everything. limit <= 0 means no limit.
func (b *Buffer) Query(level, trainID string, limit int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.next
	if b.full {
		n = len(b.entries)
	}
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		idx := i
		if b.full {
			idx = (b.next + i) % len(b.entries)
		}
		e := b.entries[idx]
		if level != "" && !strings.EqualFold(e.Level, level) {
			continue
		}
		if trainID != "" && e.TrainID != trainID {
			continue
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Len returns the number of stored records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		return len(b.entries)
	}
	return b.next
}

// Handler returns a slog.Handler that records into b and forwards to next.
// next may be nil.
func (b *Buffer) Handler(next slog.Handler) slog.Handler {
	return &bufferHandler{buf: b, next: next}
}

type bufferHandler struct {
	buf    *Buffer
	next   slog.Handler
	attrs  []slog.Attr
	groups []string
}

func (h *bufferHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.buf.level {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

func (h *bufferHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.buf.level {
		e := Entry{
			Time:    r.Time,
			Level:   r.Level.String(),
			Message: r.Message,
			Attrs:   make(map[string]any),
		}
		keep := func(key string, a slog.Attr) {
			if a.Key == "train_id" {
				e.TrainID = a.Value.String()
			}
			e.Attrs[key] = attrValue(a.Value)
		}
		for _, a := range h.attrs {
			keep(a.Key, a)
		}
		r.Attrs(func(a slog.Attr) bool {
			keep(h.prefix(a.Key), a)
			return true
		})
		if len(e.Attrs) == 0 {
			e.Attrs = nil
		}
		h.buf.add(e)
	}

	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

// attrValue converts v into a value that survives JSON encoding.
func attrValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindDuration, slog.KindGroup:
		return v.String()
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		}
	}
	return v.Any()
}

func (h *bufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix(a.Key)
		c.attrs = append(c.attrs, a)
	}
	if h.next != nil {
		c.next = h.next.WithAttrs(attrs)
	}
	return &c
}

func (h *bufferHandler) prefix(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	return strings.Join(h.groups, ".") + "." + key
}

func (h *bufferHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.groups = append(append([]string(nil), h.groups...), name)
	if h.next != nil {
		c.next = h.next.WithGroup(name)
	}
	return &c
}
