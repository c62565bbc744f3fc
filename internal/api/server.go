// Package api provides the HTTP API server and handlers for the BookClub application.
package api

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Login attempts allowed per client IP.
const (
	loginRatePerMinute = 10
	loginBurst         = 5
)

// Config holds the HTTP-facing settings of the server.
type Config struct {
	Name           string
	Version        string
	AllowedOrigins []string
	// TrustedProxies lists peers whose forwarding headers are believed.
	// Empty means the TCP peer address is always the client.
	TrustedProxies []netip.Prefix
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services        *Services
	health          HealthChecks
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, health HealthChecks, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Name == "" {
		cfg.Name = "BookClub API"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(tracingMiddleware)
	router.Use(requestLogger(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(services.Auth, cfg.TrustedProxies))

	humaConfig := huma.DefaultConfig(cfg.Name, cfg.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler(logger)

	s := &Server{
		services:        services,
		health:          health,
		router:          router,
		api:             api,
		logger:          logger,
		authRateLimiter: NewRateLimiter(loginRatePerMinute, time.Minute, loginBurst),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerCatalogRoutes()
	s.registerBookRoutes()
	s.registerReviewRoutes()
	s.registerProfileRoutes()
	s.registerUserRoutes()
	s.registerAccountRoutes()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI export and tests.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

// bearerSecurity marks an operation as requiring an access token.
var bearerSecurity = []map[string][]string{{"bearer": {}}}
