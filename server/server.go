// Package server exposes the live graph over HTTP and drives the simulation
// loop that keeps it moving.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/TFMV/fdgraph/expand"
	"github.com/TFMV/fdgraph/graph"
	"github.com/TFMV/fdgraph/metrics"
	"github.com/TFMV/fdgraph/render"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Config for the server
type Config struct {
	Addr            string
	TickInterval    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	Width           float64
	Height          float64
	Boxes           *render.BoxMetrics
}

// DefaultConfig returns the stock server settings
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		TickInterval:    16 * time.Millisecond,
		ShutdownTimeout: 10 * time.Second,
		Width:           800,
		Height:          600,
	}
}

// Server serves one Manager and its expansion Controller
type Server struct {
	manager  *graph.Manager
	expander *expand.Controller
	metrics  *metrics.Collector
	logger   *zap.Logger
	config   Config
}

// New creates a server. Zero config fields take defaults.
func New(manager *graph.Manager, expander *expand.Controller, collector *metrics.Collector, logger *zap.Logger, config Config) *Server {
	defaults := DefaultConfig()
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if config.Width <= 0 {
		config.Width = defaults.Width
	}
	if config.Height <= 0 {
		config.Height = defaults.Height
	}
	if config.Boxes == nil {
		config.Boxes = render.NewBoxMetrics()
	}
	if collector == nil {
		collector = metrics.NewCollector("fdgraph")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		manager:  manager,
		expander: expander,
		metrics:  collector,
		logger:   logger,
		config:   config,
	}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))

	if len(s.config.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", s.handleHealth)
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Route("/graph", func(r chi.Router) {
			r.Get("/", s.handleGraph)
			r.Delete("/", s.handleClear)
			r.Get("/render", s.handleRender)
			r.Post("/upload", s.handleUpload)
			r.Post("/{id}/load", s.handleLoad)
			r.Post("/{id}/expand", s.handleExpand)
		})
		r.Route("/expansion", func(r chi.Router) {
			r.Get("/", s.handleExpansion)
			r.Post("/cancel", s.handleCancel)
		})
		r.Route("/select", func(r chi.Router) {
			r.Put("/{id}", s.handleSelect)
			r.Patch("/", s.handleDrag)
			r.Delete("/", s.handleDeselect)
		})
	})

	return router
}

// Loop steps the simulation every tick until ctx is done
func (s *Server) Loop(ctx context.Context) {
	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	stable := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			settled := s.manager.Simulate()
			vertices, edges := s.manager.Stats()
			s.metrics.ObserveTick(time.Since(start), vertices, edges)
			if settled != stable {
				s.logger.Debug("layout stability changed",
					zap.Bool("stable", settled),
					zap.Int("vertices", vertices))
				stable = settled
			}
		}
	}
}

// Run serves HTTP and the simulation loop until ctx is done, then shuts down
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go s.Loop(loopCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", s.config.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	s.expander.Cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}
