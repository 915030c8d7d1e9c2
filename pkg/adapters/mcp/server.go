package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	railways "github.com/rishitkumar8/Railways"
	"github.com/rishitkumar8/Railways/pkg/domain"
	"github.com/rishitkumar8/Railways/pkg/network"
	"github.com/rishitkumar8/Railways/pkg/ports"
)

const (
	networkURI    = "railways://network"
	parametersURI = "railways://parameters"
)

// Engine defines the interface required by the MCP server.
type Engine interface {
	ports.CycleEngine
	Graph() *network.Graph
	BlockedEntries() []railways.BlockedEntry
	ReleaseEdge(ctx context.Context, u, v string) bool
	Parameters(ctx context.Context) railways.Parameters
	StressPayload(ctx context.Context, count int, chaos bool) railways.StressPayload
}

// EvaluateArgs is the input of the evaluate_cycle tool.
type EvaluateArgs struct {
	Trains []domain.Agent          `json:"trains"`
	Graph  *domain.NetworkSnapshot `json:"graph,omitempty"`
}

// RerouteArgs is the input of the apply_reroute tool.
type RerouteArgs struct {
	TrainID string   `json:"train_id"`
	NewPath []string `json:"new_path"`
}

// Server wraps the Railways engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("railways-mcp", strings.TrimSpace(railways.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mainly for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("CORS Middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: evaluate_cycle
	evaluateTool := mcp.NewTool("evaluate_cycle",
		mcp.WithDescription("Score every pair of trains, pick the worst conflict and return the decision. The graph is optional; the last synced one is used when omitted."),
		mcp.WithArray("trains", mcp.Required(),
			mcp.Description("Trains with id, path, progress (0-1), speed (km/h) and priority"),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithObject("graph", mcp.Description("Network snapshot: {stations: {id: {lat, lon}}, edges: [[from, to]]}")),
		mcp.WithOutputSchema[domain.Decision](),
	)
	s.mcpServer.AddTool(evaluateTool, mcp.NewStructuredToolHandler(s.handleEvaluate))

	// TOOL: sync_graph
	syncTool := mcp.NewTool("sync_graph",
		mcp.WithDescription("Replace the station graph used by later cycles."),
		mcp.WithObject("stations", mcp.Required(), mcp.Description("Map of station id to {lat, lon}")),
		mcp.WithArray("edges", mcp.Required(),
			mcp.Description("Undirected edges as [from, to] pairs"),
			mcp.Items(map[string]any{"type": "array", "items": map[string]any{"type": "string"}}),
		),
		mcp.WithOutputSchema[domain.SyncStatus](),
	)
	s.mcpServer.AddTool(syncTool, mcp.NewStructuredToolHandler(s.handleSync))

	// TOOL: apply_reroute
	rerouteTool := mcp.NewTool("apply_reroute",
		mcp.WithDescription("Acknowledge a new path for a train. The engine state is not changed."),
		mcp.WithString("train_id", mcp.Required(), mcp.Description("Train identifier")),
		mcp.WithArray("new_path", mcp.Required(),
			mcp.Description("Station ids of the new path"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithOutputSchema[domain.RerouteAck](),
	)
	s.mcpServer.AddTool(rerouteTool, mcp.NewStructuredToolHandler(s.handleReroute))

	// TOOL: blocked_edges
	s.mcpServer.AddTool(mcp.NewTool("blocked_edges",
		mcp.WithDescription("List the edges the router currently avoids."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries := s.engine.BlockedEntries()
		if entries == nil {
			entries = []railways.BlockedEntry{}
		}
		jsonBytes, _ := json.Marshal(entries)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: release_edge
	s.mcpServer.AddTool(mcp.NewTool("release_edge",
		mcp.WithDescription("Return a blocked edge to service."),
		mcp.WithString("from", mcp.Required(), mcp.Description("First station")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Second station")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		from := request.GetString("from", "")
		to := request.GetString("to", "")
		if !s.engine.ReleaseEdge(ctx, from, to) {
			return mcp.NewToolResultError(fmt.Sprintf("edge %s-%s is not blocked", from, to)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("released %s-%s", from, to)), nil
	})

	// TOOL: stress_payload
	s.mcpServer.AddTool(mcp.NewTool("stress_payload",
		mcp.WithDescription("Generate random trains on the current graph, ready for evaluate_cycle."),
		mcp.WithNumber("count", mcp.Description("Number of trains (default 50)")),
		mcp.WithBoolean("chaos", mcp.Description("Widen the speed range")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		count := request.GetInt("count", 0)
		chaos := request.GetBool("chaos", false)
		jsonBytes, _ := json.Marshal(s.engine.StressPayload(ctx, count, chaos))
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest, args EvaluateArgs) (domain.Decision, error) {
	var graph domain.NetworkSnapshot
	if args.Graph != nil {
		graph = *args.Graph
	}
	d, err := s.engine.Evaluate(ctx, graph, args.Trains)
	if err != nil {
		slog.Warn("MCP Evaluate: cycle rejected", "error", err)
		return domain.Decision{}, fmt.Errorf("evaluate failed: %w", err)
	}
	return d, nil
}

func (s *Server) handleSync(ctx context.Context, request mcp.CallToolRequest, args domain.NetworkSnapshot) (domain.SyncStatus, error) {
	st, err := s.engine.Sync(ctx, args)
	if err != nil {
		return domain.SyncStatus{}, fmt.Errorf("sync failed: %w", err)
	}
	return st, nil
}

func (s *Server) handleReroute(ctx context.Context, request mcp.CallToolRequest, args RerouteArgs) (domain.RerouteAck, error) {
	ack, err := s.engine.ApplyReroute(ctx, args.TrainID, args.NewPath)
	if err != nil {
		return domain.RerouteAck{}, fmt.Errorf("reroute rejected: %w", err)
	}
	return ack, nil
}

func (s *Server) registerResources() {
	// EXPOSE: railways://network
	s.mcpServer.AddResource(mcp.NewResource(networkURI, "Current Station Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Graph().Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      networkURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: railways://parameters
	s.mcpServer.AddResource(mcp.NewResource(parametersURI, "Risk Cache And Parameters",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Parameters(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to encode parameters: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      parametersURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
