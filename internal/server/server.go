// Package server exposes the analysis and recommendation core over HTTP.
// All responses are JSON; scores are reported exactly as the engine
// produced them, without renormalization.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soundrooms/resonance/configs"
	"github.com/soundrooms/resonance/internal/logging"
	"github.com/soundrooms/resonance/internal/store"
	"github.com/soundrooms/resonance/pkg/audio/features"
	"github.com/soundrooms/resonance/pkg/recommend"
)

// Server wires the HTTP boundary to the extraction and recommendation core
type Server struct {
	cfg       *configs.Config
	store     *store.Store
	extractor *features.Extractor
	engine    *recommend.Engine
	cache     *recommend.Cache
	validate  *validator.Validate
	logger    logging.Logger

	httpServer *http.Server
}

// New assembles a Server from already-constructed components
func New(cfg *configs.Config, st *store.Store, extractor *features.Extractor, engine *recommend.Engine, cache *recommend.Cache) *Server {
	s := &Server{
		cfg:       cfg,
		store:     st,
		extractor: extractor,
		engine:    engine,
		cache:     cache,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logging.WithFields(logging.Fields{"component": "server"}),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Router builds the chi route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/audio", func(r chi.Router) {
			r.Post("/{audioFileID}/features", s.handleUploadFeatures)
			r.Get("/{audioFileID}/features", s.handleGetFeatures)
			r.Post("/similarity", s.handleSimilarity)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/rooms/{userID}", s.handleRoomRecommendations)
			r.Get("/similar-rooms/{roomID}", s.handleSimilarRooms)
			r.Get("/preferences/{userID}", s.handleGetPreferences)
			r.Put("/preferences/{userID}", s.handleUpdatePreferences)
			r.Post("/interactions", s.handleRecordInteraction)
			r.Get("/stats/{userID}", s.handleUserStats)
		})
	})

	return r
}

// Start runs the HTTP server until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", logging.Fields{"addr": s.cfg.Server.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		s.logger.Info("http server shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "resonance",
		"version": features.AnalysisVersion,
	})
}
