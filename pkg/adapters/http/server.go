// Package http serves the planning pipeline over HTTP.
//
// Every request carries a synth document in its body and is handled by its own
// engine pass; the server keeps no per-document state.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxBodyBytes caps the size of an uploaded synth document.
const DefaultMaxBodyBytes = 32 << 20

// Engine is the subset of *lattice.Engine the server needs.
type Engine interface {
	Parse(ctx context.Context, r io.Reader) (*domain.Document, error)
	Collect(ctx context.Context, doc *domain.Document) (*domain.Report, error)
	Execute(ctx context.Context, doc *domain.Document, inst ports.Instantiator) (*domain.Report, error)
	Validate(doc *domain.Document) *lattice.ValidationResult
	Write(w io.Writer, doc *domain.Document) error
}

var _ Engine = (*lattice.Engine)(nil)

// Server handles the planning routes.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger   *slog.Logger
	gatherer prometheus.Gatherer
	maxBody  int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBody = n
	}
}

// NewServer creates a server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.validateRequests)
	r.Get("/openapi.yaml", s.ServeSpec)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	r.Post("/plan", s.Plan)
	r.Post("/validate", s.Validate)
	r.Post("/fmt", s.Format)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
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

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error    string         `json:"error"`
	Kind     string         `json:"kind,omitempty"`
	Line     int            `json:"line,omitempty"`
	Expected string         `json:"expected,omitempty"`
	Found    string         `json:"found,omitempty"`
	Report   *domain.Report `json:"report,omitempty"`
}

func (s *Server) parse(w http.ResponseWriter, r *http.Request) (*domain.Document, bool) {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	doc, err := s.Engine.Parse(r.Context(), body)
	if err != nil {
		s.fail(w, r, nil, err)
		return nil, false
	}
	return doc, true
}

// fail maps pipeline errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, report *domain.Report, err error) {
	resp := ErrorResponse{Error: err.Error(), Report: report}
	status := http.StatusInternalServerError

	var fe *domain.FormatError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &fe):
		status = http.StatusUnprocessableEntity
		resp.Kind = fe.Kind.Error()
		resp.Line = fe.Line
		resp.Expected = fe.Expected
		resp.Found = fe.Found
	case errors.As(err, &mbe):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrIndexOutOfRange):
		status = http.StatusUnprocessableEntity
		resp.Kind = domain.ErrIndexOutOfRange.Error()
	case errors.Is(err, domain.ErrNoObjectsFound):
		status = http.StatusNotFound
		resp.Kind = domain.ErrNoObjectsFound.Error()
	case errors.Is(err, context.Canceled):
		status = 499
	}

	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

// Plan handles POST /plan. The response is the report with every command,
// or, with ?format=jsonl or ?format=text, the commands as lines.
// The format values are listed in api/openapi.yaml.
func (s *Server) Plan(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.parse(w, r)
	if !ok {
		return
	}

	params, err := bindPlanParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	format := PlanFormatReport
	if params.Format != nil {
		format = *params.Format
	}
	if format == PlanFormatReport {
		report, err := s.Engine.Collect(r.Context(), doc)
		if err != nil {
			s.fail(w, r, report, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	f, err := file.ParseFormat(string(format))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	// Lines are buffered by the sink, so a failed run still yields a JSON error.
	var sb strings.Builder
	report, err := s.Engine.Execute(r.Context(), doc, file.NewSink(&sb, f))
	if err != nil {
		s.fail(w, r, report, err)
		return
	}
	if f == file.FormatJSONL {
		w.Header().Set("Content-Type", "application/x-ndjson")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Header().Set("X-Lattice-Placed", fmt.Sprint(report.Placed))
	io.WriteString(w, sb.String())
}

// Validate handles POST /validate.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.parse(w, r)
	if !ok {
		return
	}
	res := s.Engine.Validate(doc)
	status := http.StatusOK
	if res.Err() != nil {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

// Format handles POST /fmt, returning the document in canonical layout.
func (s *Server) Format(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.parse(w, r)
	if !ok {
		return
	}
	var sb strings.Builder
	if err := s.Engine.Write(&sb, doc); err != nil {
		s.fail(w, r, nil, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, sb.String())
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lattice-http",
		"version": lattice.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
