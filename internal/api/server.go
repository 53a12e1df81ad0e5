package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/deflogis/convoy/internal/api/handler"
	mw "github.com/deflogis/convoy/internal/api/middleware"
	"github.com/deflogis/convoy/internal/api/response"
	"github.com/deflogis/convoy/internal/config"
	"github.com/deflogis/convoy/internal/core"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	pool     *pgxpool.Pool
	services *core.Services
	cfg      *config.Config

	deployer handler.Deployer
	planner  handler.Planner
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, deployer handler.Deployer, planner handler.Planner, cfg *config.Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		pool:     pool,
		services: core.NewServices(pool),
		cfg:      cfg,
		deployer: deployer,
		planner:  planner,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)
	s.router.Get("/", s.handleStatus)

	convoys := handler.NewConvoy(s.deployer, s.services.Convoy)
	routes := handler.NewRoute(s.planner)
	audit := handler.NewAudit(s.services.Audit)
	users := handler.NewUser(s.services.User)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/convoys", func(r chi.Router) {
			r.Post("/deploy", convoys.Deploy)
			r.Get("/", convoys.List)
		})
		r.Post("/routes/analyze", routes.Analyze)
		r.Get("/logs/security", audit.List)
		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", users.Signup)
			r.Post("/login", users.Login)
			r.Get("/", users.List)
		})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil {
		response.WriteError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}
	if err := s.pool.Ping(r.Context()); err != nil {
		response.WriteError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"status":            "Backend Online",
		"service":           s.cfg.ServiceName,
		"ledger_configured": s.cfg.LedgerConfigured(),
	})
}
