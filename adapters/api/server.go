// Package api serves the measurement registry, stored reports and
// evaluation runs over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"simeval/app"
	"simeval/internal/logging"
	"simeval/internal/registry"
	"simeval/ports"
)

// Evaluator runs evaluations on behalf of POST /evaluations.
type Evaluator interface {
	Evaluate(ctx context.Context, req app.EvaluationRequest) (*app.EvaluationResult, error)
}

// Server represents the HTTP API
type Server struct {
	router    *chi.Mux
	registry  *registry.Registry
	reports   ports.ReportRepository
	evaluator Evaluator
	dataDir   string
	log       *slog.Logger
}

// Config holds API server configuration
type Config struct {
	Port string
	// RequestTimeout bounds every request, evaluations included.
	RequestTimeout time.Duration
	// DataDir roots the event file paths of POST /evaluations; relative
	// paths that leave it are rejected.
	DataDir string
}

// NewServer creates the API. reports and evaluator may be nil; their routes
// then answer 503.
func NewServer(reg *registry.Registry, reports ports.ReportRepository, evaluator Evaluator, cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		registry:  reg,
		reports:   reports,
		evaluator: evaluator,
		dataDir:   cfg.DataDir,
		log:       logging.New("api"),
	}

	s.setupMiddleware(cfg)
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
	if cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(cfg.RequestTimeout))
	}
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Get("/measurements", s.handleListMeasurements)
	s.router.Get("/measurements/{id}", s.handleGetMeasurement)

	s.router.Get("/reports", s.handleListReports)
	s.router.Get("/reports/{runID}", s.handleGetReport)

	s.router.Post("/evaluations", s.handleEvaluate)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "port", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}
