// Package server exposes the analyzer over an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/foodlens/internal/analyze"
	"github.com/ppiankov/foodlens/internal/metrics"
	"github.com/ppiankov/foodlens/internal/model"
	"github.com/ppiankov/foodlens/internal/pipeline"
	"github.com/ppiankov/foodlens/internal/registry"
)

// Scanner runs a full scan for POST /v1/scan
type Scanner interface {
	Run(ctx context.Context, req pipeline.Request) (*model.Report, error)
}

// Server serves the foodlens HTTP API
type Server struct {
	analyzer       *analyze.Analyzer
	registry       *registry.Registry
	scanner        Scanner // nil disables /v1/scan
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer // nil disables /metrics
	logger         *slog.Logger
	validate       *validator.Validate
	maxIngredients int
}

// Option customizes a Server
type Option func(*Server)

// WithScanner enables POST /v1/scan
func WithScanner(s Scanner) Option {
	return func(srv *Server) { srv.scanner = s }
}

// WithMetrics records request metrics and serves gatherer on /metrics
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(srv *Server) {
		srv.metrics = m
		srv.gatherer = gatherer
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// New creates a server over reg. A nil registry uses the built-in catalog.
func New(cfg model.ServerConfig, reg *registry.Registry, opts ...Option) *Server {
	if reg == nil {
		reg = registry.Default()
	}

	s := &Server{
		analyzer:       analyze.New(reg),
		registry:       reg,
		logger:         slog.Default(),
		maxIngredients: cfg.MaxIngredients,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.validate = validator.New()
	_ = s.validate.RegisterValidation("maxingredients", s.validateMaxIngredients)

	return s
}

// validateMaxIngredients caps list length at the configured limit (0 = unlimited)
func (s *Server) validateMaxIngredients(fl validator.FieldLevel) bool {
	return s.maxIngredients <= 0 || fl.Field().Len() <= s.maxIngredients
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/safety", s.handleSafety)
		r.Post("/scan", s.handleScan)
		r.Get("/registry", s.handleRegistry)
		r.Get("/registry/{name}", s.handleRegistryEntry)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("foodlens API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
