package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ocralab/ocra/internal/api/handler"
	mw "github.com/ocralab/ocra/internal/api/middleware"
	"github.com/ocralab/ocra/internal/auth"
	"github.com/ocralab/ocra/internal/config"
	"github.com/ocralab/ocra/internal/core"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	cfg      *config.Config
	ready    func() error
}

// NewServer wires the HTTP API. ready reports backend readiness for
// /readyz; pass nil when there is no backend to check (dev mode).
func NewServer(logger zerolog.Logger, services *core.Services, flow *auth.Flow, cfg *config.Config, ready func() error) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		cfg:      cfg,
		ready:    ready,
	}

	s.setupMiddleware()
	s.setupRoutes(flow)

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(chimw.Recoverer)
	s.router.Use(mw.Metrics)
	s.router.Use(mw.CORS(s.cfg.CORSOrigins))
}

func (s *Server) setupRoutes(flow *auth.Flow) {
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	authHandler := handler.NewAuth(flow, s.services, s.cfg.FrontendURL, s.logger)
	s.router.Get("/auth/login", authHandler.Login)
	s.router.Get("/auth/callback", authHandler.Callback)
	s.router.Post("/auth/logout", authHandler.Logout)

	sessionHandler := handler.NewSession(s.services, s.logger)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/sessions", sessionHandler.Create)
		r.Get("/sessions/{id}", sessionHandler.Get)
		r.Delete("/sessions/{id}", sessionHandler.Delete)

		// Session-authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(s.services.Session, s.services.User))

			r.Get("/me", handler.NewMe().Get)

			audit := handler.NewAudit(s.services.Audit)
			r.Get("/users/{sub}/audit", audit.ListForUser)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAdmin)
				r.Get("/admin/audit", audit.ListAdmin)
			})
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(); err != nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
