package http

import (
	"Shortr-Backend/internal/auth"
	"Shortr-Backend/internal/repository"
	"Shortr-Backend/internal/service"
	"net/http"
	"strings"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Server bundles the HTTP handlers and routing.
type Server struct {
	authHandlers    *auth.AuthHandlers
	linksHandler    *LinksHandler
	redirectHandler *RedirectHandler
	statsHandler    *StatsHandler
	healthHandler   *HealthHandler
	authMiddleware  *auth.Middleware
	log             *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(
	storage repository.Storage,
	linkService *service.LinkService,
	statsService *service.StatsService,
	jwtService *auth.JWTService,
	passwordService *auth.PasswordService,
	log *zap.Logger,
) *Server {
	return &Server{
		authHandlers:    auth.NewAuthHandlers(storage, jwtService, passwordService, log),
		linksHandler:    NewLinksHandler(linkService, log),
		redirectHandler: NewRedirectHandler(linkService, log),
		statsHandler:    NewStatsHandler(statsService, log),
		healthHandler:   NewHealthHandler(storage, log),
		authMiddleware:  auth.NewMiddleware(jwtService, log),
		log:             log,
	}
}

// SetupRoutes wires the route table.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health checks (no authentication)
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)

	// Swagger documentation
	mux.Handle("/api/v1/", httpSwagger.WrapHandler)

	// Auth endpoints (no authentication)
	mux.HandleFunc("/api/auth/register", s.withCORS(s.authHandlers.Register))
	mux.HandleFunc("/api/auth/login", s.withCORS(s.authHandlers.Login))

	// Link endpoints
	mux.HandleFunc("/links-by-id", s.withCORS(s.linksHandler.GetByIDs))
	mux.HandleFunc("/links", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.ListOwned)))
	mux.HandleFunc("/sync", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.SyncOwnership)))

	// Public stats projection
	mux.HandleFunc("/api/stats/", s.withCORS(s.statsHandler.GetStats))

	// Root: link creation on POST, redirect on everything else.
	// Must be registered last so explicit routes win.
	mux.HandleFunc("/", s.handleRoot)

	return mux
}

// handleRoot dispatches the catch-all route: POST / creates a link
// (owner attached when the caller presents a valid token), GET /{code}
// redirects.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/" && r.Method == http.MethodPost:
		s.withCORS(s.authMiddleware.OptionalAuth(s.linksHandler.CreateLink))(w, r)
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		s.redirectHandler.HandleRedirect(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// withCORS adds CORS headers to a handler.
func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware.CORS(handler)
}

// isSystemPath reports whether the path belongs to a non-redirect route.
func isSystemPath(path string) bool {
	systemPaths := []string{
		"/api/",
		"/health",
		"/ready",
		"/links",
		"/sync",
	}

	for _, systemPath := range systemPaths {
		if strings.HasPrefix(path, systemPath) {
			return true
		}
	}

	return false
}
