package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/config"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/usecase"

	"github.com/rs/zerolog"
)

// Server is the admin surface: list jobs, inspect one, resend a result
// email. It performs the authorization the core deliberately does not.
type Server struct {
	jobUC  usecase.JobUseCase
	auth   *AuthManager
	apiKey string
	server *http.Server
	log    *zerolog.Logger
}

func NewServer(cfg *config.AdminConfig, jobUC usecase.JobUseCase, logger *zerolog.Logger) *Server {
	compLog := logger.With().Str("component", "AdminServer").Logger()
	return &Server{
		jobUC:  jobUC,
		auth:   NewAuthManager(cfg.JWTSecret, !isLocal(cfg), cfg.SessionTTL),
		apiKey: cfg.APIKey,
		log:    &compLog,
	}
}

func isLocal(cfg *config.AdminConfig) bool { return cfg.JWTSecret == "" }

// RegisterRoutes sets up the routing for the admin API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/admin/login", s.loginHandler)

	jobsRouter := s.authMiddleware(s.jobsRouter())
	mux.Handle("/api/v1/jobs", jobsRouter)
	mux.Handle("/api/v1/jobs/", jobsRouter)
}

func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("admin API listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// authMiddleware accepts either a valid admin session JWT or the raw API key
// as a bearer token (for curl and CI convenience).
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("Admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err == nil {
			next.ServeHTTP(w, r)
			return
		}
		if bearerToken(r) == s.apiKey {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
