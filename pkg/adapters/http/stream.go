package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/rishitkumar8/Railways/pkg/domain"
)

// StreamManager fans cycle events out to server-sent event subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]map[domain.EventType]struct{} // channel -> topics (empty = all)
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan string]map[domain.EventType]struct{}),
	}
}

// Subscribe registers a channel for the given topics; no topic means every event.
func (sm *StreamManager) Subscribe(topics ...domain.EventType) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	set := make(map[domain.EventType]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}
	sm.subscribers[ch] = set

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Broadcast sends msg to every subscriber of topic.
func (sm *StreamManager) Broadcast(topic domain.EventType, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch, topics := range sm.subscribers {
		if len(topics) > 0 {
			if _, ok := topics[topic]; !ok {
				continue
			}
		}
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			slog.Warn("SSE: Client buffer full, dropping message", "topic", topic)
		}
	}
}

// Subscribers returns the number of connected clients.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Hooks returns cycle hooks that broadcast every event as JSON.
func (sm *StreamManager) Hooks() domain.CycleHooks {
	return domain.CycleHooks{
		OnConflict: func(_ context.Context, e *domain.ConflictEvent) {
			sm.publish(e.Type, e)
		},
		OnDecision: func(_ context.Context, e *domain.DecisionEvent) {
			sm.publish(e.Type, e)
		},
		OnEdgeBlocked: func(_ context.Context, e *domain.EdgeEvent) {
			sm.publish(e.Type, e)
		},
		OnEdgeReleased: func(_ context.Context, e *domain.EdgeEvent) {
			sm.publish(e.Type, e)
		},
	}
}

func (sm *StreamManager) publish(topic domain.EventType, v any) {
	if sm.Subscribers() == 0 {
		return
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		slog.Error("StreamManager: encode failed", "topic", topic, "error", err)
		return
	}
	sm.Broadcast(topic, string(bytes))
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		slog.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var topics []domain.EventType
	if raw := r.URL.Query().Get("topic"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, domain.EventType(t))
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(topics...)
	defer cancel()
	slog.Info("SSE: Client subscribed", "topics", topics)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			slog.Info("SSE Client Disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
