package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/nbdistill/internal/config"
	"github.com/dgallion1/nbdistill/internal/distill"
	"github.com/dgallion1/nbdistill/internal/pipeline"
)

// Server is the HTTP API server for nbdistill.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	svc          *distill.Service
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, svc *distill.Service, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		svc:          svc,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/distill", s.handleDistill)
		r.Post("/api/distill/async", s.handleDistillAsync)
		r.Get("/api/distill/{jobID}/status", s.handleDistillStatus)
		r.Get("/api/distill/{jobID}/result", s.handleDistillResult)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
