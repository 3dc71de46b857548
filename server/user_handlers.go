package server

import (
	"net/http"

	"github.com/jrsteele09/go-google-auth/users"
	"github.com/rs/zerolog/log"
)

// MeHandler returns the caller's own public profile.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			unauthenticated(w)
			return
		}
		writeJSON(w, http.StatusOK, user.Profile())
	}
}

// UsersAllHandler lists every user's public profile.
func (s *Server) UsersAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := s.userRepo.List(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to list users")
			writeJSONError(w, http.StatusInternalServerError, "failed to list users")
			return
		}

		profiles := make([]users.Profile, 0, len(all))
		for _, user := range all {
			profiles = append(profiles, user.Profile())
		}
		writeJSON(w, http.StatusOK, profiles)
	}
}
