// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/export"
	"github.com/jeranaias/opbench/internal/logging"
	"github.com/jeranaias/opbench/internal/runner"
	"github.com/jeranaias/opbench/internal/storage"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8787"

	// MaxRequestBodySize bounds POST bodies.
	MaxRequestBodySize = 64 * 1024

	// DefaultListLimit applies when /v1/sweeps has no limit parameter.
	DefaultListLimit = 50
)

// ============================================================================
// SERVER
// ============================================================================

// History is the part of the sweep store the API reads and writes.
type History interface {
	List(ctx context.Context, filter storage.ListFilter) ([]storage.SweepMeta, error)
	Get(ctx context.Context, id string) (*benchmark.SweepResult, error)
	Save(ctx context.Context, r *benchmark.SweepResult) error
}

// Config configures the listener and request policies.
type Config struct {
	Addr string
	// Token enables bearer authentication when set.
	Token string
	// AllowedIPs lists IPs or CIDR ranges; empty allows all.
	AllowedIPs []string
	// RequestsPerMinute limits each client. 0 disables limiting.
	RequestsPerMinute int
	// Version is reported by /health.
	Version string
}

// Server serves sweep results over HTTP.
type Server struct {
	cfg      Config
	groups   []benchmark.RunGroup
	history  History
	runner   *runner.Runner
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   *http.ServeMux
	started  time.Time

	mu       sync.Mutex
	server   *http.Server
	shutdown bool
}

// NewServer creates a server for groups.
func NewServer(cfg Config, groups []benchmark.RunGroup) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	s := &Server{
		cfg:     cfg,
		groups:  groups,
		logger:  logging.Discard(),
		router:  http.NewServeMux(),
		started: time.Now(),
	}
	s.setupRoutes()
	return s
}

// WithHistory sets the sweep store.
func (s *Server) WithHistory(h History) *Server {
	s.history = h
	return s
}

// WithRunner enables POST /v1/sweeps.
func (s *Server) WithRunner(r *runner.Runner) *Server {
	s.runner = r
	return s
}

// WithGatherer enables /metrics.
func (s *Server) WithGatherer(g prometheus.Gatherer) *Server {
	s.gatherer = g
	return s
}

// WithLogger sets the request and error logger.
func (s *Server) WithLogger(logger *slog.Logger) *Server {
	s.logger = logger
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /v1/groups", s.handleGroups)
	s.router.HandleFunc("GET /v1/sweeps", s.handleListSweeps)
	s.router.HandleFunc("GET /v1/sweeps/{id}", s.handleGetSweep)
	s.router.HandleFunc("POST /v1/sweeps", s.handleRunSweep)
	s.router.HandleFunc("GET /metrics", s.handleMetrics)
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
	}
	if s.cfg.RequestsPerMinute > 0 {
		middlewares = append(middlewares, RateLimitMiddleware(NewRateLimiter(s.cfg.RequestsPerMinute), s.logger))
	}
	if s.cfg.Token != "" || len(s.cfg.AllowedIPs) > 0 {
		middlewares = append(middlewares, AuthMiddleware(&AuthConfig{
			BearerToken: s.cfg.Token,
			AllowedIPs:  s.cfg.AllowedIPs,
		}, s.logger))
	}
	return Chain(middlewares...)(s.router)
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("server started", "addr", ln.Addr().String(), "version", s.cfg.Version)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones. A later
// Serve returns immediately.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("server shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HEALTH
// ============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime"`
	Groups  int    `json:"groups"`
	History string `json:"history"`
	Runner  bool   `json:"runner"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:  "ok",
		Version: s.cfg.Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Groups:  len(s.groups),
		History: "not_configured",
		Runner:  s.runner != nil,
	}

	if s.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := s.history.List(ctx, storage.ListFilter{Limit: 1}); err != nil {
			health.History = "unavailable"
			health.Status = "degraded"
		} else {
			health.History = "ok"
		}
	}

	s.writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// GROUPS
// ============================================================================

// GroupSummary describes one run group.
type GroupSummary struct {
	Index          int      `json:"index"`
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Sizes          []int    `json:"sizes"`
	Options        []string `json:"options,omitempty"`
	SelectedOption string   `json:"selected_option,omitempty"`
	Runs           []string `json:"runs"`
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	out := make([]GroupSummary, len(s.groups))
	for i := range s.groups {
		g := &s.groups[i]
		steps := g.Steps()
		sizes := make([]int, len(steps))
		for j, step := range steps {
			sizes[j] = g.Size(step)
		}
		out[i] = GroupSummary{
			Index:          i + 1,
			Slug:           g.Slug(),
			Name:           g.Name,
			Sizes:          sizes,
			Options:        g.Options,
			SelectedOption: g.SelectedOption,
			Runs:           g.RunNames(),
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

// ============================================================================
// SWEEPS
// ============================================================================

func (s *Server) handleListSweeps(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no history configured")
		return
	}

	filter := storage.ListFilter{Limit: DefaultListLimit}
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		filter.Limit = limit
	}
	if key := q.Get("group"); key != "" {
		g, err := benchmark.FindGroup(s.groups, key)
		if err != nil {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		filter.Group = g.Name
	}

	metas, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list sweeps", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list sweeps")
		return
	}
	s.writeJSON(w, http.StatusOK, metas)
}

func (s *Server) handleGetSweep(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no history configured")
		return
	}

	result, err := s.history.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("failed to load sweep", "id", r.PathValue("id"), "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load sweep")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" || format == "json" {
		s.writeJSON(w, http.StatusOK, result)
		return
	}

	exporter, err := export.ForFormat(format, export.DefaultOptions())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := exporter.Export(result)
	if err != nil {
		s.logger.Error("failed to export sweep", "id", result.ID, "format", format, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to export sweep")
		return
	}
	w.Header().Set("Content-Type", exporter.MimeType())
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// SweepRequest is the body of POST /v1/sweeps.
type SweepRequest struct {
	// Group is a 1-based index, slug or name prefix.
	Group  string `json:"group"`
	Option string `json:"option,omitempty"`
	Save   bool   `json:"save,omitempty"`
}

func (s *Server) handleRunSweep(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeError(w, http.StatusServiceUnavailable, "sweeps are disabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Save && s.history == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no history configured")
		return
	}

	group, err := benchmark.FindGroup(s.groups, req.Group)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	ctx := logging.WithLogger(r.Context(), s.logger)
	result, err := s.runner.Sweep(ctx, group, req.Option, nil)
	switch {
	case errors.Is(err, runner.ErrSweepInProgress):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, benchmark.ErrUnknownOption):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case result != nil && result.Canceled:
		s.writeError(w, http.StatusServiceUnavailable, "sweep canceled")
		return
	case err != nil:
		s.logger.Error("sweep failed", "group", group.Name, "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if req.Save {
		if err := s.history.Save(context.WithoutCancel(r.Context()), result); err != nil {
			s.logger.Error("failed to save sweep", "id", result.ID, "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to save sweep")
			return
		}
		status = http.StatusCreated
	}
	s.writeJSON(w, status, result)
}

// ============================================================================
// METRICS
// ============================================================================

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.gatherer == nil {
		s.writeError(w, http.StatusNotFound, "metrics are disabled")
		return
	}
	runner.Handler(s.gatherer).ServeHTTP(w, r)
}

// ============================================================================
// HELPERS
// ============================================================================

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
