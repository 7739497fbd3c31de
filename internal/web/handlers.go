package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/csvstats/internal/web/views"
	"github.com/go-chi/chi/v5"
)

// handleDashboard renders the upload page with the file list.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.ListFiles(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Dashboard(files).Render(r.Context(), w); err != nil {
		requestLogger(r).Error("render dashboard", "error", err)
	}
}

// handleListFiles returns every analyzed file, newest first.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.ListFiles(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": files})
}

// handleGetAnalytics returns the cached profile for a file.
func (s *Server) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")

	result, err := s.service.GetAnalytics(r.Context(), fileID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": result, "source": "cache"})
}

// handleHealth pings both stores and reports analysis slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	limiter := s.service.LimiterStatus()
	if err := s.service.Ping(ctx); err != nil {
		requestLogger(r).Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, envelope{"status": "unavailable", "analyses": limiter})
		return
	}
	writeJSON(w, http.StatusOK, envelope{"status": "ok", "analyses": limiter})
}
