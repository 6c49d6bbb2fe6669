// Package server provides the admin pages and JSON endpoints of modboard.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/modboard/internal/config"
	"github.com/hyperjump/modboard/internal/extract"
	"github.com/hyperjump/modboard/internal/highlight"
	"github.com/hyperjump/modboard/internal/metrics"
	"github.com/hyperjump/modboard/internal/models"
	"github.com/hyperjump/modboard/internal/render"
	"github.com/hyperjump/modboard/internal/review"
	"go.uber.org/zap"
)

// Upstream is the moderation backend as the server uses it.
type Upstream interface {
	review.StatusUpdater
	review.MetricsGenerator
	GetContent(ctx context.Context, id int64) (*models.ContentDetail, error)
	GetMetrics(ctx context.Context, days int) (models.Metrics, error)
	ListContent(ctx context.Context, q models.ContentQuery) (*models.ContentList, error)
	Moderate(ctx context.Context, req models.ModerateRequest) (*models.ModerateResult, error)
}

// Server is the HTTP server for the moderation admin UI.
type Server struct {
	upstream    Upstream
	renderer    *render.Renderer
	highlighter *highlight.Highlighter
	extractor   *extract.Extractor
	refresher   *review.MetricsRefresher
	metrics     *metrics.Recorder
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies. cfg must have
// passed Validate. A nil recorder gets a private registry.
func NewServer(
	cfg *config.Config,
	up Upstream,
	renderer *render.Renderer,
	rec *metrics.Recorder,
	logger *zap.Logger,
) (*Server, error) {
	policy, err := highlight.ParseCollisionPolicy(cfg.Highlight.CollisionPolicy)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = metrics.NewRecorder(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		upstream: up,
		renderer: renderer,
		highlighter: highlight.New(
			highlight.WithCollisionPolicy(policy),
			highlight.WithClassPrefix(cfg.Highlight.ClassPrefix),
		),
		extractor: extract.NewExtractor(cfg.Upload.Extensions, cfg.Upload.MaxBytes),
		refresher: review.NewMetricsRefresher(up, review.WithLogger(logger)),
		metrics:   rec,
		config:    cfg,
		logger:    logger,
	}, nil
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(s.metrics.Middleware)

	r.Get("/", s.handleIndex)
	r.Get("/upload", s.handleUploadForm)
	r.Post("/upload", s.handleUpload)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/", http.RedirectHandler("/admin/dashboard", http.StatusFound).ServeHTTP)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/flagged", s.handleFlagged)
		r.Get("/review/{id}", s.handleReview)
		r.Post("/review/{id}/status", s.handleUpdateStatus)
		r.Post("/batch", s.handleBatch)
		r.Post("/metrics/refresh", s.handleMetricsRefresh)
	})

	r.Post("/api/v1/highlight", s.handleHighlight)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
