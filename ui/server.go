package ui

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"savdash/app"
)

// Config holds HTTP server settings
type Config struct {
	Port           string
	AllowedOrigins []string
}

// Server exposes the dataset, statistics and filter services over JSON
type Server struct {
	config   Config
	router   *chi.Mux
	datasets *app.DatasetService
	stats    *app.StatisticsService
	filters  *app.FilterService
}

// NewServer wires routes and middleware around the services
func NewServer(config Config, datasets *app.DatasetService, stats *app.StatisticsService, filters *app.FilterService) *Server {
	if config.Port == "" {
		config.Port = "8080"
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		config:   config,
		router:   chi.NewRouter(),
		datasets: datasets,
		stats:    stats,
		filters:  filters,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", s.handleListDatasets)
			r.Post("/", s.handleImportDataset)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDataset)
				r.Get("/rows", s.handleDatasetRows)
				r.Get("/quality", s.handleDatasetQuality)
				r.Get("/variables/{code}/statistics", s.handleVariableStatistics)
				r.Post("/sessions", s.handleCreateSession)
			})
		})

		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Get("/available", s.handleAvailableVariables)
			r.Post("/generate", s.handleGenerateFilters)
			r.Post("/filters", s.handleAddManualFilter)
			r.Delete("/filters/{fid}", s.handleRemoveFilter)
			r.Patch("/filters/{fid}", s.handleToggleFilter)
			r.Get("/export", s.handleExport)
		})
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	zap.L().Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
