package http

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/rainfall-ews/internal/dashboard"
	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/model"
	"github.com/couchcryptid/rainfall-ews/internal/observability"
	"github.com/couchcryptid/rainfall-ews/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templateFS embed.FS

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Predictor scores observations. It is implemented by pipeline.Analyzer.
type Predictor interface {
	ReadinessChecker
	Analyze(ctx context.Context, obs domain.Observation) (pipeline.Analysis, error)
	Evaluate(ctx context.Context, obs domain.Observation) (pipeline.Analysis, error)
	Assets() *model.Assets
	Station() string
}

// Server serves the dashboard, the JSON API and the health, readiness and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	predictor  Predictor
	logger     *slog.Logger
	metrics    *observability.Metrics
	templates  *template.Template
	rand       dashboard.Rand
}

// Option configures a Server.
type Option func(*Server)

// WithRand sets the source used for scenarios and the trend curve.
func WithRand(r dashboard.Rand) Option {
	return func(s *Server) { s.rand = r }
}

// NewServer creates an HTTP server with the dashboard and API routes.
func NewServer(addr string, predictor Predictor, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		predictor: predictor,
		logger:    logger,
		metrics:   metrics,
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
		rand:      dashboard.DefaultRand,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(gzip)

	r.Get("/", s.handleIndex)
	r.Post("/analyze", s.handleAnalyze)
	r.Post("/report", s.handleReport)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/predict", s.handlePredict)
		r.Get("/model", s.handleModel)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(s.predictor))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func gzip(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
