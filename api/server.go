// Package api provides the local HTTP gateway for the analysis tools.
//
// It exposes data availability, the tool catalog, tool execution with JSON
// arguments and prometheus metrics. The gateway is unauthenticated and meant
// to sit next to an orchestration layer on the same host.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	jsoniter "github.com/json-iterator/go"

	"github.com/seenimoa/nsequant/internal/classify"
	"github.com/seenimoa/nsequant/internal/config"
	"github.com/seenimoa/nsequant/internal/logging"
	"github.com/seenimoa/nsequant/internal/screen"
	"github.com/seenimoa/nsequant/internal/store"
	"github.com/seenimoa/nsequant/internal/tools"
	"github.com/seenimoa/nsequant/pkg/models"
	"github.com/seenimoa/nsequant/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes caps tool argument bodies.
const maxBodyBytes = 1 << 20

// Version is reported by /health. The CLI sets it at startup.
var Version = "dev"

// Server is the HTTP gateway.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	engine  *screen.Engine
	tools   *tools.Registry
	metrics *gatewayMetrics
	log     *slog.Logger
	started time.Time
}

// NewServer wires routes and middleware around an engine and its tool
// registry.
func NewServer(cfg *config.Config, engine *screen.Engine, registry *tools.Registry, log *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	srv := &Server{
		cfg:     cfg,
		engine:  engine,
		tools:   registry,
		metrics: newGatewayMetrics(),
		log:     logging.OrNop(log).With("component", "api"),
		started: time.Now(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled or the process gets
// SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("gateway listening", "addr", addr, "tools", s.tools.Count())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api: listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}
	s.log.Info("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/availability", s.handleAvailability)
		r.Get("/config", s.handleGetConfig)

		r.Get("/tools", s.handleListTools)
		r.Post("/tools/batch", s.handleBatch)
		r.Post("/tools/{name}", s.handleRunTool)
	})

	return r
}

// requestLogger logs one structured line per request and feeds the HTTP
// metrics.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		s.metrics.duration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.log.Debug("request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", elapsed.Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchRequest is the body for POST /api/v1/tools/batch.
type BatchRequest struct {
	Calls []tools.Call `json:"calls"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":   "ok",
			"version":  Version,
			"tools":    s.tools.Count(),
			"uptime_s": int(time.Since(s.started).Seconds()),
			"time_ist": utils.FormatDateTimeIST(utils.NowIST()),
		},
	})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	av, err := s.engine.CheckAvailability(r.Context())
	if err != nil {
		s.writeToolError(w, "availability", err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: av})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.tools.Describe()})
}

func (s *Server) handleRunTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	out, err := s.execute(r.Context(), name, body)
	if err != nil {
		s.writeToolError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Calls) == 0 {
		writeError(w, http.StatusBadRequest, "calls is required")
		return
	}
	results := s.tools.ExecuteAll(r.Context(), req.Calls)
	for _, res := range results {
		s.observe(res.Name, res.Elapsed, res.Result, res.Err)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: results})
}

// execute runs one tool and records its metrics.
func (s *Server) execute(ctx context.Context, name string, args []byte) (any, error) {
	start := time.Now()
	out, err := s.tools.Execute(ctx, name, args)
	s.observe(name, time.Since(start), out, err)
	return out, err
}

func (s *Server) observe(name string, elapsed time.Duration, out any, err error) {
	label := name
	if _, ok := s.tools.Get(name); !ok {
		label = "unknown"
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case isNoData(out):
		outcome = "no_data"
	}
	s.metrics.toolCalls.WithLabelValues(label, outcome).Inc()
	s.metrics.toolDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	if res, ok := out.(*models.Result); ok && res != nil {
		s.metrics.toolResults.WithLabelValues(label).Observe(float64(res.Count))
	}
}

func isNoData(out any) bool {
	res, ok := out.(*models.Result)
	return ok && res != nil && res.Status == models.StatusNoData
}

func (s *Server) writeToolError(w http.ResponseWriter, name string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("tool failed", "tool", name, "error", err)
	}
	writeError(w, status, err.Error())
}

// statusFor maps engine errors to HTTP status codes. Caller mistakes are
// 4xx; data problems are 503.
func statusFor(err error) int {
	var (
		uie *screen.InvalidUniverseError
		uix *classify.UnknownIndexError
		usx *classify.UnknownSectorError
		dse *store.DataSourceError
	)
	switch {
	case errors.Is(err, tools.ErrToolNotFound):
		return http.StatusNotFound
	case errors.Is(err, tools.ErrInvalidArguments),
		errors.As(err, &uie), errors.As(err, &uix), errors.As(err, &usx):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &dse), errors.Is(err, store.ErrNoSource), errors.Is(err, store.ErrNoRecords):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
