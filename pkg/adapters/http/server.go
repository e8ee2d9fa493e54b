package http

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/botsmith"
	"github.com/aretw0/botsmith/internal/presentation/graph"
	"github.com/aretw0/botsmith/internal/resolver"
	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/aretw0/botsmith/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxBodySize bounds request bodies.
const MaxBodySize = 4 << 20

//go:embed openapi.yaml
var rawSpec []byte

var loadSpec = sync.OnceValues(func() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return doc, nil
})

// Server serves the compiler over HTTP.
type Server struct {
	// Loader serves stored graphs. The /graphs routes answer 404 without it.
	Loader ports.GraphLoader
	// Options are applied to every compilation before the request's own.
	Options []botsmith.Option
	// Gatherer backs /metrics. It defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	router routers.Router
}

// NewHandler creates the HTTP handler. It fails only if the embedded API
// description cannot be loaded.
func NewHandler(s *Server) (http.Handler, error) {
	doc, err := loadSpec()
	if err != nil {
		return nil, err
	}
	s.router, err = legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build request router: %w", err)
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.Gatherer == nil {
		s.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(s.validateRequest)
		r.Post("/compile", s.Compile)
		r.Post("/validate", s.Validate)
		r.Post("/graph", s.Graph)
		r.Get("/graphs", s.ListGraphs)
		r.Post("/graphs/{name}/compile", s.CompileStored)
	})

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Logger.Debug("http request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// validateRequest checks the request against the API description.
func (s *Server) validateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

		route, params, err := s.router.FindRoute(r)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		in := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: params,
			Route:      route,
			Options:    &openapi3filter.Options{MultiError: false},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), in); err != nil {
			s.Logger.Warn("request rejected", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>botsmith API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// CompileOptions mirrors the per-request compile settings.
type CompileOptions struct {
	ProjectName string `json:"projectName"`
	ProjectID   int64  `json:"projectId"`
	Database    bool   `json:"database"`
	Comments    *bool  `json:"comments"`
	Logging     *bool  `json:"logging"`
	EmitAll     bool   `json:"emitAll"`
}

func (o CompileOptions) apply(base []botsmith.Option) []botsmith.Option {
	opts := append([]botsmith.Option(nil), base...)
	if o.ProjectName != "" || o.ProjectID != 0 {
		opts = append(opts, botsmith.WithProject(o.ProjectName, o.ProjectID))
	}
	if o.Database {
		opts = append(opts, botsmith.WithDatabase(true))
	}
	if o.Comments != nil {
		opts = append(opts, botsmith.WithComments(*o.Comments))
	}
	if o.Logging != nil {
		opts = append(opts, botsmith.WithLogging(*o.Logging))
	}
	if o.EmitAll {
		opts = append(opts, botsmith.WithEmitAll(true))
	}
	return opts
}

// CompileRequest is the body of /compile, /validate and /graph.
type CompileRequest struct {
	Graph   json.RawMessage `json:"graph"`
	Options CompileOptions  `json:"options"`
}

// ValidationReport is the body returned by /validate.
type ValidationReport struct {
	Valid       bool               `json:"valid"`
	Diagnostics domain.Diagnostics `json:"diagnostics"`
}

func decodeRequest(r *http.Request) (*domain.Graph, CompileOptions, error) {
	var body CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, CompileOptions{}, fmt.Errorf("invalid request body: %w", err)
	}
	g, err := botsmith.Parse(body.Graph)
	if err != nil {
		return nil, CompileOptions{}, err
	}
	return g, body.Options, nil
}

// Compile handles the POST /compile request.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	g, opts, err := decodeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.compile(w, r, g, opts)
}

func (s *Server) compile(w http.ResponseWriter, r *http.Request, g *domain.Graph, opts CompileOptions) {
	bundle, err := botsmith.Compile(r.Context(), g, opts.apply(s.Options)...)
	if err != nil {
		s.Logger.Error("compile failed", "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	if bundle.Diagnostics == nil {
		bundle.Diagnostics = domain.Diagnostics{}
	}
	writeJSON(w, http.StatusOK, bundle)
}

// Validate handles the POST /validate request.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	g, opts, err := decodeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	diags, err := botsmith.Validate(r.Context(), g, opts.apply(s.Options)...)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if diags == nil {
		diags = domain.Diagnostics{}
	}
	writeJSON(w, http.StatusOK, ValidationReport{Valid: !diags.HasErrors(), Diagnostics: diags})
}

// Graph handles the POST /graph request.
func (s *Server) Graph(w http.ResponseWriter, r *http.Request) {
	g, opts, err := decodeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(g, resolver.Resolve(g, opts.EmitAll)))
}

// ListGraphs handles the GET /graphs request.
func (s *Server) ListGraphs(w http.ResponseWriter, r *http.Request) {
	if s.Loader == nil {
		writeError(w, http.StatusNotFound, errors.New("no graph store configured"))
		return
	}
	names, err := s.Loader.ListGraphs(r.Context())
	if err != nil {
		s.Logger.Error("list graphs failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// CompileStored handles the POST /graphs/{name}/compile request.
func (s *Server) CompileStored(w http.ResponseWriter, r *http.Request) {
	if s.Loader == nil {
		writeError(w, http.StatusNotFound, errors.New("no graph store configured"))
		return
	}
	var opts CompileOptions
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &opts); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	name := chi.URLParam(r, "name")
	data, err := s.Loader.GetGraph(r.Context(), name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	g, err := botsmith.Parse(data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("graph %q: %w", name, err))
		return
	}
	s.compile(w, r, g, opts)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := loadSpec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "botsmith-http",
		"version":     strings.TrimSpace(botsmith.Version),
		"api_version": apiVersion,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrGraphNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyGraph), errors.Is(err, botsmith.ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
