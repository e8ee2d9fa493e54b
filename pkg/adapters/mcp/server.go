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

	"github.com/aretw0/botsmith"
	"github.com/aretw0/botsmith/internal/presentation/graph"
	"github.com/aretw0/botsmith/internal/resolver"
	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/aretw0/botsmith/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphArgs selects a graph: either inline or by name from the loader.
type GraphArgs struct {
	Graph   string `json:"graph,omitempty"`
	Name    string `json:"name,omitempty"`
	EmitAll bool   `json:"emit_all,omitempty"`
}

// CompileArgs are the arguments of compile_bot and validate_graph.
type CompileArgs struct {
	GraphArgs
	ProjectName string `json:"project_name,omitempty"`
	ProjectID   int64  `json:"project_id,omitempty"`
	Database    bool   `json:"database,omitempty"`
}

// CompileResponse aligns with the HTTP Bundle schema.
type CompileResponse struct {
	Program     string              `json:"program" jsonschema_description:"The generated bot.py"`
	Files       []botsmith.Artifact `json:"files" jsonschema_description:"Every generated file"`
	Diagnostics domain.Diagnostics  `json:"diagnostics" jsonschema_description:"Findings reported during compilation"`
}

// ValidateResponse aligns with the HTTP ValidationReport schema.
type ValidateResponse struct {
	Valid       bool               `json:"valid" jsonschema_description:"False when an error diagnostic was reported"`
	Diagnostics domain.Diagnostics `json:"diagnostics" jsonschema_description:"Findings reported during compilation"`
}

// Server exposes the compiler as an MCP server.
type Server struct {
	loader    ports.GraphLoader
	options   []botsmith.Option
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. loader may be nil, in which
// case graphs can only be passed inline.
func NewServer(loader ports.GraphLoader, opts ...botsmith.Option) *Server {
	s := &Server{
		loader:    loader,
		options:   opts,
		mcpServer: server.NewMCPServer("botsmith-mcp", strings.TrimSpace(botsmith.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

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
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("shutdown signal received, stopping MCP server")
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	graphParams := []mcp.ToolOption{
		mcp.WithString("graph", mcp.Description("The graph document as JSON or YAML (optional if name is given)")),
		mcp.WithString("name", mcp.Description("Name of a stored graph (optional if graph is given)")),
		mcp.WithBoolean("emit_all", mcp.Description("Also emit nodes no entry point can reach")),
	}
	compileParams := append(append([]mcp.ToolOption(nil), graphParams...),
		mcp.WithString("project_name", mcp.Description("Project name shown in the generated files")),
		mcp.WithNumber("project_id", mcp.Description("Project id used for message logging")),
		mcp.WithBoolean("database", mcp.Description("Persist users and messages in PostgreSQL")),
	)

	// TOOL: compile_bot
	s.mcpServer.AddTool(mcp.NewTool("compile_bot", append([]mcp.ToolOption{
		mcp.WithDescription("Compile a bot graph into an aiogram program, requirements, README, Dockerfile and .env."),
		mcp.WithOutputSchema[CompileResponse](),
	}, compileParams...)...), mcp.NewStructuredToolHandler(s.handleCompile))

	// TOOL: validate_graph
	s.mcpServer.AddTool(mcp.NewTool("validate_graph", append([]mcp.ToolOption{
		mcp.WithDescription("Report the diagnostics of a bot graph without rendering files."),
		mcp.WithOutputSchema[ValidateResponse](),
	}, compileParams...)...), mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: graph_mermaid
	s.mcpServer.AddTool(mcp.NewTool("graph_mermaid", append([]mcp.ToolOption{
		mcp.WithDescription("Render the control flow of a bot graph as a Mermaid flowchart."),
	}, graphParams...)...), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GraphArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		g, err := s.loadGraph(ctx, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(graph.GenerateMermaid(g, resolver.Resolve(g, args.EmitAll))), nil
	})
}

func (s *Server) loadGraph(ctx context.Context, args GraphArgs) (*domain.Graph, error) {
	data := []byte(args.Graph)
	if strings.TrimSpace(args.Graph) == "" {
		if args.Name == "" {
			return nil, errors.New("either graph or name is required")
		}
		if s.loader == nil {
			return nil, errors.New("no graph store configured")
		}
		var err error
		data, err = s.loader.GetGraph(ctx, args.Name)
		if err != nil {
			return nil, err
		}
	}
	return botsmith.Parse(data)
}

func (s *Server) compileOptions(args CompileArgs) []botsmith.Option {
	opts := append([]botsmith.Option(nil), s.options...)
	if args.ProjectName != "" || args.ProjectID != 0 {
		opts = append(opts, botsmith.WithProject(args.ProjectName, args.ProjectID))
	}
	if args.Database {
		opts = append(opts, botsmith.WithDatabase(true))
	}
	if args.EmitAll {
		opts = append(opts, botsmith.WithEmitAll(true))
	}
	return opts
}

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest, args CompileArgs) (CompileResponse, error) {
	g, err := s.loadGraph(ctx, args.GraphArgs)
	if err != nil {
		return CompileResponse{}, err
	}
	bundle, err := botsmith.Compile(ctx, g, s.compileOptions(args)...)
	if err != nil {
		return CompileResponse{}, fmt.Errorf("compile failed: %w", err)
	}
	if bundle.Diagnostics == nil {
		bundle.Diagnostics = domain.Diagnostics{}
	}
	return CompileResponse{Program: bundle.Program, Files: bundle.Files, Diagnostics: bundle.Diagnostics}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args CompileArgs) (ValidateResponse, error) {
	g, err := s.loadGraph(ctx, args.GraphArgs)
	if err != nil {
		return ValidateResponse{}, err
	}
	diags, err := botsmith.Validate(ctx, g, s.compileOptions(args)...)
	if err != nil {
		return ValidateResponse{}, fmt.Errorf("validate failed: %w", err)
	}
	if diags == nil {
		diags = domain.Diagnostics{}
	}
	return ValidateResponse{Valid: !diags.HasErrors(), Diagnostics: diags}, nil
}

func (s *Server) registerResources() {
	if s.loader == nil {
		return
	}
	// EXPOSE: botsmith://graphs
	s.mcpServer.AddResource(mcp.NewResource("botsmith://graphs", "Stored Graphs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.loader.ListGraphs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list graphs: %w", err)
		}
		jsonBytes, _ := json.Marshal(names)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "botsmith://graphs",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
