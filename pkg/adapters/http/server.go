package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	railways "github.com/rishitkumar8/Railways"
	"github.com/rishitkumar8/Railways/internal/presentation/graph"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
	"github.com/rishitkumar8/Railways/pkg/ports"
)

// Engine defines what the HTTP transport needs from the conflict engine.
type Engine interface {
	ports.CycleEngine
	Graph() *network.Graph
	BlockedEntries() []railways.BlockedEntry
	ReleaseEdge(ctx context.Context, u, v string) bool
	ClearBlocked(ctx context.Context) []railways.BlockedEntry
	Health(ctx context.Context) (railways.Health, error)
	Parameters(ctx context.Context) railways.Parameters
	StressPayload(ctx context.Context, count int, chaos bool) railways.StressPayload
	SpawnStatus() railways.SpawnStatus
	ToggleSpawn(enabled bool) railways.SpawnStatus
	ConfigureSpawn(interval time.Duration, maxAgents int) railways.SpawnStatus
	SpawnedAgents() []domain.Agent
	ClearSpawned() int
	Logs(level, trainID string, limit int) ([]railways.LogEntry, int)
	MetricsHandler() http.Handler
}

var _ Engine = (*railways.Engine)(nil)

// Server serves the engine over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager
}

// Option configures the handler.
type Option func(*Server)

// WithStreams shares a stream manager, typically one whose Hooks were
// registered on the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			slog.Error("Failed to load OpenAPI spec", "error", err)
			return
		}
		w.Write(spec)
	})

	r.Post("/decide", server.Decide)
	r.Post("/apply_reroute", server.ApplyReroute)
	r.Post("/sync", server.Sync)

	r.Get("/health", server.Health)
	r.Get("/info", server.Info)
	r.Get("/metrics", server.Metrics)
	r.Get("/parameters", server.Parameters)
	r.Get("/graph", server.Graph)

	r.Route("/blocked", func(r chi.Router) {
		r.Get("/", server.ListBlocked)
		r.Delete("/", server.ClearBlocked)
		r.Delete("/{from}/{to}", server.ReleaseBlocked)
	})

	r.Route("/spawn", func(r chi.Router) {
		r.Post("/toggle", server.SpawnToggle)
		r.Post("/config", server.SpawnConfig)
		r.Get("/status", server.SpawnStatus)
		r.Get("/trains", server.SpawnTrains)
		r.Delete("/clear", server.SpawnClear)
	})

	r.Get("/stress", server.Stress)
	r.Get("/logs", server.Logs)
	r.Get("/events", server.SubscribeEvents)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize())
	return json.NewDecoder(r.Body).Decode(v)
}

// engineError maps caller errors to 400 and everything else to 500.
func engineError(w http.ResponseWriter, op string, err error) {
	if domain.IsCallerError(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Warn(op+": rejected", "error", err)
		return
	}
	if errors.Is(err, context.Canceled) {
		slog.Warn(op+": canceled", "error", err)
		return
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
	slog.Error(op+" failed", "error", err)
}

// Decide handles the POST /decide request.
func (s *Server) Decide(w http.ResponseWriter, r *http.Request) {
	var body railways.DecidePayload
	if err := decodeBody(w, r, &body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("Decide: Invalid request body", "error", err)
		return
	}

	for i := range body.Trains {
		id, err := SanitizeID(body.Trains[i].ID)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid train id: %v", err), http.StatusBadRequest)
			slog.Warn("Decide: Train id rejected", "error", err, "index", i)
			return
		}
		body.Trains[i].ID = id
	}

	decision, err := s.Engine.Evaluate(r.Context(), body.Graph, body.Trains)
	if err != nil {
		engineError(w, "Decide", err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

type rerouteRequest struct {
	TrainID string   `json:"train_id"`
	NewPath []string `json:"new_path"`
}

// ApplyReroute handles the POST /apply_reroute request.
func (s *Server) ApplyReroute(w http.ResponseWriter, r *http.Request) {
	var body rerouteRequest
	if err := decodeBody(w, r, &body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("ApplyReroute: Invalid request body", "error", err)
		return
	}

	id, err := SanitizeID(body.TrainID)
	if err == nil {
		body.NewPath, err = sanitizeAll(body.NewPath)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		slog.Warn("ApplyReroute: Input rejected", "error", err)
		return
	}

	ack, err := s.Engine.ApplyReroute(r.Context(), id, body.NewPath)
	if err != nil {
		engineError(w, "ApplyReroute", err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

// Sync handles the POST /sync request.
func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	var body domain.NetworkSnapshot
	if err := decodeBody(w, r, &body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("Sync: Invalid request body", "error", err)
		return
	}

	status, err := s.Engine.Sync(r.Context(), body)
	if err != nil {
		engineError(w, "Sync", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Health handles the GET /health request.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	h, err := s.Engine.Health(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		slog.Error("Health check failed", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		railways.Health
		Version string `json:"version"`
	}{h, railways.Version})
}

// Info handles the GET /info request.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		slog.Warn("Info: failed to load OpenAPI spec", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "railways-http",
		"version":     railways.Version,
		"api_version": apiVersion,
	})
}

// Metrics handles the GET /metrics request.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	h := s.Engine.MetricsHandler()
	if h == nil {
		http.Error(w, "Metrics disabled", http.StatusNotFound)
		return
	}
	h.ServeHTTP(w, r)
}

// Parameters handles the GET /parameters request.
func (s *Server) Parameters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Parameters(r.Context()))
}

// Graph handles the GET /graph request.
func (s *Server) Graph(w http.ResponseWriter, r *http.Request) {
	g := s.Engine.Graph()
	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, g.Snapshot())
	case "mermaid":
		overlay := &graph.GraphOverlay{}
		for _, b := range s.Engine.BlockedEntries() {
			overlay.Blocked = append(overlay.Blocked, b.Edge)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, graph.GenerateMermaid(g, overlay))
	default:
		http.Error(w, "Unsupported format", http.StatusBadRequest)
	}
}

// ListBlocked handles the GET /blocked request.
func (s *Server) ListBlocked(w http.ResponseWriter, r *http.Request) {
	entries := s.Engine.BlockedEntries()
	if entries == nil {
		entries = []railways.BlockedEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blocked": entries,
		"count":   len(entries),
	})
}

// ClearBlocked handles the DELETE /blocked request.
func (s *Server) ClearBlocked(w http.ResponseWriter, r *http.Request) {
	cleared := s.Engine.ClearBlocked(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"cleared": len(cleared)})
}

// ReleaseBlocked handles the DELETE /blocked/{from}/{to} request.
func (s *Server) ReleaseBlocked(w http.ResponseWriter, r *http.Request) {
	from, to := chi.URLParam(r, "from"), chi.URLParam(r, "to")
	if !s.Engine.ReleaseEdge(r.Context(), from, to) {
		http.Error(w, "Edge not blocked", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SpawnToggle handles the POST /spawn/toggle request.
func (s *Server) SpawnToggle(w http.ResponseWriter, r *http.Request) {
	enabled, err := strconv.ParseBool(r.URL.Query().Get("enabled"))
	if err != nil {
		http.Error(w, "Invalid enabled flag", http.StatusBadRequest)
		slog.Warn("SpawnToggle: Invalid enabled flag", "error", err)
		return
	}
	st := s.Engine.ToggleSpawn(enabled)
	writeJSON(w, http.StatusOK, map[string]any{
		"spawn_enabled":    st.Enabled,
		"interval_seconds": st.Interval,
		"max_trains":       st.MaxAgents,
	})
}

// SpawnConfig handles the POST /spawn/config request. Values below one are
// raised to one; missing values keep the current setting.
func (s *Server) SpawnConfig(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	interval, err := intParam(q.Get("interval"))
	if err != nil {
		http.Error(w, "Invalid interval", http.StatusBadRequest)
		return
	}
	maxTrains, err := intParam(q.Get("max_trains_limit"))
	if err != nil {
		http.Error(w, "Invalid max_trains_limit", http.StatusBadRequest)
		return
	}

	var d time.Duration
	if q.Has("interval") {
		d = time.Duration(max(1, interval)) * time.Second
	}
	if q.Has("max_trains_limit") {
		maxTrains = max(1, maxTrains)
	}
	st := s.Engine.ConfigureSpawn(d, maxTrains)
	writeJSON(w, http.StatusOK, map[string]any{
		"interval_seconds": st.Interval,
		"max_trains":       st.MaxAgents,
	})
}

// SpawnStatus handles the GET /spawn/status request.
func (s *Server) SpawnStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.SpawnStatus())
}

// SpawnTrains handles the GET /spawn/trains request.
func (s *Server) SpawnTrains(w http.ResponseWriter, r *http.Request) {
	trains := s.Engine.SpawnedAgents()
	if trains == nil {
		trains = []domain.Agent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"trains": trains,
		"count":  len(trains),
	})
}

// SpawnClear handles the DELETE /spawn/clear request.
func (s *Server) SpawnClear(w http.ResponseWriter, r *http.Request) {
	n := s.Engine.ClearSpawned()
	writeJSON(w, http.StatusOK, map[string]int{
		"cleared":   n,
		"remaining": 0,
	})
}

// Stress handles the GET /stress request.
func (s *Server) Stress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count, err := intParam(q.Get("count"))
	if err != nil {
		http.Error(w, "Invalid count", http.StatusBadRequest)
		return
	}
	chaos := false
	if raw := q.Get("chaos"); raw != "" {
		if chaos, err = strconv.ParseBool(raw); err != nil {
			http.Error(w, "Invalid chaos flag", http.StatusBadRequest)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.Engine.StressPayload(r.Context(), count, chaos))
}

// Logs handles the GET /logs request.
func (s *Server) Logs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 200
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, total := s.Engine.Logs(q.Get("level"), q.Get("train_id"), limit)
	if entries == nil {
		entries = []railways.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  entries,
		"total": total,
	})
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
