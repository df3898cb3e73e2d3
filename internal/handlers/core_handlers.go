package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HandleHealth reports database reachability and record counts
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := s.DB.Ping(r.Context()); err != nil {
			slog.Error("handlers: health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unavailable",
				"error":  "database unreachable",
			})
			return
		}

		stats, err := s.Engine.Stats(r.Context())
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"users":       stats.Users,
			"posts":       stats.Posts,
			"follows":     stats.Follows,
			"uptime":      s.Metrics.Uptime().Round(time.Second).String(),
			"server_time": time.Now().UTC(),
		})
	}
}

// HandleAbout renders one of the static about pages.
func (s *Server) HandleAbout(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusOK, page, nil)
	}
}

// HandleMedia serves stored post images.
func (s *Server) HandleMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		obj, err := s.Media.Open(r.Context(), r.PathValue("key"))
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", obj.ContentType())
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeContent(w, r, obj.Key, obj.ModTime, bytes.NewReader(obj.Data))
	}
}

// HandleNotFound renders the custom 404 page for unknown paths.
func (s *Server) HandleNotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.notFound(w, r)
	}
}
