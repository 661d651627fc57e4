// Package api serves the recommendation operation and the probe endpoints
// over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"venue-recommender/internal/common/database"
	"venue-recommender/internal/common/logger"
	"venue-recommender/internal/models"
)

// Recommender runs the recommendation pipeline.
type Recommender interface {
	Execute(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error)
}

type Options struct {
	Recommender Recommender
	// Backends are pinged by /ready.
	Backends       []database.Pinger
	ReadyTimeout   time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Logger         logger.Logger
}

type Router struct {
	recommender    Recommender
	backends       []database.Pinger
	readyTimeout   time.Duration
	requestTimeout time.Duration
	maxBodyBytes   int64
	logger         logger.Logger
}

func NewRouter(opts Options) *Router {
	r := &Router{
		recommender:    opts.Recommender,
		backends:       opts.Backends,
		readyTimeout:   opts.ReadyTimeout,
		requestTimeout: opts.RequestTimeout,
		maxBodyBytes:   opts.MaxBodyBytes,
		logger:         opts.Logger,
	}
	if r.readyTimeout <= 0 {
		r.readyTimeout = 2 * time.Second
	}
	if r.requestTimeout <= 0 {
		r.requestTimeout = 30 * time.Second
	}
	if r.maxBodyBytes <= 0 {
		r.maxBodyBytes = 64 << 10
	}
	if r.logger == nil {
		r.logger = logger.NewNoOpLogger()
	}
	return r
}

// Handler builds the chi route tree.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// ========================
	// Probes
	// ========================
	r.Get("/health", router.Health)
	r.Get("/ready", router.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Recommendation API
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(router.requestTimeout))
		r.Post("/recommendations", router.Recommend)
	})

	return r
}
