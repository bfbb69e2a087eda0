package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mbanner77/allocengine/pkg/infrastructure/config"
)

// Server is the HTTP surface the planning dashboard talks to
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
}

// NewServer creates the API server and wires its routes
func NewServer(cfg *config.Config, handlers *Handlers, registry *prometheus.Registry) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: handlers,
	}
	s.setupMiddleware()
	s.setupRoutes(registry)
	return s
}

// Router returns the configured chi router
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes(registry *prometheus.Registry) {
	s.router.Get("/health", s.handlers.HealthCheck)
	if registry != nil {
		s.router.Method("GET", "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1/allocation", func(r chi.Router) {
		r.Route("/variants", func(r chi.Router) {
			r.Get("/", s.handlers.ListVariants)
			r.Post("/", s.handlers.CreateVariant)
			r.Get("/{variantID}", s.handlers.GetVariant)
			r.Put("/{variantID}/policy", s.handlers.UpdateVariantPolicy)
			r.Post("/{variantID}/simulate", s.handlers.SimulateVariant)
			r.Post("/{variantID}/validate", s.handlers.ValidateVariant)
			r.Post("/{variantID}/release", s.handlers.ReleaseVariant)
			r.Post("/{variantID}/transfer", s.handlers.TransferVariant)
		})
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handlers.ListRuns)
			r.Get("/{runID}", s.handlers.GetRun)
			r.Get("/{runID}/lines", s.handlers.GetRunLines)
			r.Get("/{runID}/kpis", s.handlers.GetRunKPIs)
			r.Get("/{runID}/exceptions", s.handlers.GetRunExceptions)
			r.Get("/{runID}/journal", s.handlers.GetRunJournal)
		})
	})
}
