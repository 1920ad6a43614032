package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain"
)

// loginHandler exchanges the admin API key for a session JWT.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.apiKey == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(s.apiKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Could not create session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// jobsRouter acts as a sub-router for /api/v1/jobs
func (s *Server) jobsRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs")
		path = strings.Trim(path, "/")

		if path == "" { // Path is /api/v1/jobs
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			s.jobsListHandler(w, r)
			return
		}

		// Path is /api/v1/jobs/{id} or /api/v1/jobs/{id}/resend
		if id, ok := strings.CutSuffix(path, "/resend"); ok {
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			s.jobResendHandler(w, r, id)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.jobGetHandler(w, r, path)
	})
}

func (s *Server) jobsListHandler(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobUC.List(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"jobs": jobs, "count": len(jobs)})
}

func (s *Server) jobGetHandler(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.jobUC.Query(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load job", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *Server) jobResendHandler(w http.ResponseWriter, r *http.Request, id string) {
	err := s.jobUC.Resend(r.Context(), id)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Job not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrNotReady):
		http.Error(w, "Job has no result to resend", http.StatusConflict)
	case errors.Is(err, domain.ErrNoRecipient):
		http.Error(w, "Job has no recipient email", http.StatusConflict)
	default:
		http.Error(w, "Resend failed", http.StatusBadGateway)
	}
}
