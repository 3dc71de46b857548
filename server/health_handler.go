package server

import (
	"net/http"
)

// HealthHandler reports service and database status.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.storage != nil {
			if err := s.storage.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":   "unhealthy",
					"database": "disconnected",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	}
}
