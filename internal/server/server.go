// Package server exposes the dashboard views as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cannonQ/pow-tracker-site/internal/ai"
	"github.com/cannonQ/pow-tracker-site/internal/dashboard"
	"github.com/cannonQ/pow-tracker-site/internal/data"
	"github.com/cannonQ/pow-tracker-site/internal/data/collector"
	"github.com/cannonQ/pow-tracker-site/internal/observability"
)

const defaultHistoryDays = 30

type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// Options holds the optional collaborators of the server.
type Options struct {
	// Storage enables /api/projects/{name}/history.
	Storage data.SnapshotStorage
	// Summarizer enables /api/projects/{name}/summary.
	Summarizer ai.Summarizer
	// Gatherer enables /metrics.
	Gatherer prometheus.Gatherer
	Metrics  *observability.Metrics
}

// Server is a lightweight HTTP API for the dashboard.
type Server struct {
	httpServer *http.Server
	loader     collector.RecordLoader
	builder    *dashboard.Builder
	opts       Options
	logger     Logger
	now        func() time.Time
	startedAt  time.Time
}

// NewServer creates a new API server bound to addr.
func NewServer(addr string, loader collector.RecordLoader, builder *dashboard.Builder, logger Logger, opts Options) *Server {
	s := &Server{
		loader:    loader,
		builder:   builder,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		startedAt: time.Now(),
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects", s.instrument("projects", s.handleProjects))
	mux.HandleFunc("GET /api/projects/{name}", s.instrument("project", s.handleProject))
	mux.HandleFunc("GET /api/projects/{name}/history", s.instrument("history", s.handleHistory))
	mux.HandleFunc("GET /api/projects/{name}/summary", s.instrument("summary", s.handleSummary))
	mux.HandleFunc("GET /api/stats", s.instrument("stats", s.handleStats))
	mux.HandleFunc("GET /healthz", s.instrument("healthz", s.handleHealth))
	if s.opts.Gatherer != nil {
		mux.Handle("GET /metrics", observability.Handler(s.opts.Gatherer))
	}
	return mux
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving HTTP requests.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("api server listening", "addr", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server stopped", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		s.opts.Metrics.RecordHTTP(route, rec.code)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) views(ctx context.Context) ([]dashboard.ProjectView, error) {
	records, err := s.loader.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.builder.BuildAll(ctx, records, s.now()), nil
}

// GET /api/projects?filter=&sort=&search=
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	views, err := s.views(r.Context())
	if err != nil {
		s.logger.Error("failed to load projects", "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to load projects")
		return
	}

	params := r.URL.Query()
	q := dashboard.ParseQuery(params.Get("filter"), params.Get("sort"), params.Get("search"))
	selected := dashboard.SelectAndOrder(views, q)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":    q,
		"count":    len(selected),
		"stats":    dashboard.ComputeStats(views),
		"projects": selected,
	})
}

// GET /api/projects/{name}
func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	view, ok := s.project(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// GET /api/projects/{name}/history?days=30
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.Storage == nil {
		s.writeError(w, http.StatusNotImplemented, "history storage not configured")
		return
	}
	days := defaultHistoryDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	name := r.PathValue("name")
	end := s.now()
	history, err := s.opts.Storage.GetHistory(r.Context(), name, end.AddDate(0, 0, -days), end)
	if err != nil {
		s.logger.Error("failed to read history", "project", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"project":   name,
		"snapshots": history,
	})
}

// GET /api/projects/{name}/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.opts.Summarizer == nil {
		s.writeError(w, http.StatusNotImplemented, "summarizer not configured")
		return
	}
	view, ok := s.project(w, r)
	if !ok {
		return
	}
	summary, err := s.opts.Summarizer.SummarizeProject(r.Context(), &view)
	if err != nil {
		s.logger.Error("failed to summarize project", "project", view.Name, "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to summarize project")
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	views, err := s.views(r.Context())
	if err != nil {
		s.logger.Error("failed to load projects", "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to load projects")
		return
	}
	s.writeJSON(w, http.StatusOK, dashboard.ComputeStats(views))
}

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"uptime_s": time.Since(s.startedAt).Seconds(),
	})
}

// project writes an error response and returns false when the named project
// cannot be built.
func (s *Server) project(w http.ResponseWriter, r *http.Request) (dashboard.ProjectView, bool) {
	name := r.PathValue("name")
	records, err := s.loader.LoadAll(r.Context())
	if err != nil {
		s.logger.Error("failed to load projects", "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to load projects")
		return dashboard.ProjectView{}, false
	}
	view, ok := s.builder.BuildOne(r.Context(), records, name, s.now())
	if !ok {
		s.writeError(w, http.StatusNotFound, "project not found")
		return dashboard.ProjectView{}, false
	}
	return view, true
}
