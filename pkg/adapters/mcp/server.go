// Package mcp exposes the planning pipeline as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine is the subset of *lattice.Engine the MCP server needs.
type Engine interface {
	Parse(ctx context.Context, r io.Reader) (*domain.Document, error)
	Collect(ctx context.Context, doc *domain.Document) (*domain.Report, error)
	Validate(doc *domain.Document) *lattice.ValidationResult
	Write(w io.Writer, doc *domain.Document) error
	Unit() float64
}

var _ Engine = (*lattice.Engine)(nil)

// PlanArgs are the arguments of plan_lattice.
type PlanArgs struct {
	Synth string `json:"synth" jsonschema_description:"Full text of the synth document"`
}

// PlanResponse is the structured result of plan_lattice.
type PlanResponse struct {
	Report *domain.Report `json:"report" jsonschema_description:"Resolution summary and placement commands"`
	Error  string         `json:"error,omitempty" jsonschema_description:"Set when nothing could be placed"`
}

// ValidateResponse is the structured result of validate_lattice.
type ValidateResponse struct {
	Valid  bool                      `json:"valid" jsonschema_description:"False when any error-level issue was found"`
	Result *lattice.ValidationResult `json:"result" jsonschema_description:"Every issue found"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("lattice-mcp", lattice.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: plan_lattice
	planTool := mcp.NewTool("plan_lattice",
		mcp.WithDescription("Parse a synth document, resolve its object groups against the scene and list every placement command."),
		mcp.WithString("synth", mcp.Required(), mcp.Description("Full text of the synth document")),
		mcp.WithOutputSchema[PlanResponse](),
	)
	s.mcpServer.AddTool(planTool, mcp.NewStructuredToolHandler(s.handlePlan))

	// TOOL: validate_lattice
	validateTool := mcp.NewTool("validate_lattice",
		mcp.WithDescription("Check a synth document for out-of-range cells, mislabelled, empty or unused groups."),
		mcp.WithString("synth", mcp.Required(), mcp.Description("Full text of the synth document")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: format_lattice
	s.mcpServer.AddTool(mcp.NewTool("format_lattice",
		mcp.WithDescription("Rewrite a synth document in canonical layout."),
		mcp.WithString("synth", mcp.Required(), mcp.Description("Full text of the synth document")),
	), s.handleFormat)
}

func (s *Server) parse(ctx context.Context, synth string) (*domain.Document, error) {
	doc, err := s.engine.Parse(ctx, strings.NewReader(synth))
	if err != nil {
		s.logger.Warn("MCP: synth rejected", "error", err)
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return doc, nil
}

// Handler methods for structured tools

func (s *Server) handlePlan(ctx context.Context, request mcp.CallToolRequest, args PlanArgs) (PlanResponse, error) {
	doc, err := s.parse(ctx, args.Synth)
	if err != nil {
		return PlanResponse{}, err
	}
	report, err := s.engine.Collect(ctx, doc)
	if err != nil {
		// Nothing found still carries a useful report.
		if errors.Is(err, domain.ErrNoObjectsFound) && report != nil {
			return PlanResponse{Report: report, Error: err.Error()}, nil
		}
		return PlanResponse{}, fmt.Errorf("plan failed: %w", err)
	}
	return PlanResponse{Report: report}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args PlanArgs) (ValidateResponse, error) {
	doc, err := s.parse(ctx, args.Synth)
	if err != nil {
		return ValidateResponse{}, err
	}
	res := s.engine.Validate(doc)
	return ValidateResponse{Valid: res.Err() == nil, Result: res}, nil
}

func (s *Server) handleFormat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	synth, err := request.RequireString("synth")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.parse(ctx, synth)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var sb strings.Builder
	if err := s.engine.Write(&sb, doc); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("format failed: %v", err)), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) registerResources() {
	// EXPOSE: lattice://info
	s.mcpServer.AddResource(mcp.NewResource("lattice://info", "Engine settings",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(s.info())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "lattice://info",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) info() map[string]any {
	return map[string]any{
		"version":        lattice.Version,
		"unit":           s.engine.Unit(),
		"extents_marker": domain.ExtentsMarker,
		"objects_marker": domain.ObjectsMarker,
	}
}
