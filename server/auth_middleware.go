package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-google-auth/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyUser stores the authenticated *users.User
const ContextKeyUser ContextKey = "user"

// RequireUser is the identity gate: it resolves the caller from the
// bearer access token and rejects the request with 401 otherwise. It has
// no persistence side effects.
func (s *Server) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bearer := bearerToken(r)
		if bearer == "" {
			unauthenticated(w)
			return
		}

		user, err := s.sessions.CurrentUser(r.Context(), bearer)
		if err != nil {
			// Invalid, expired, or a subject whose user row is gone:
			// one failure mode at the gate.
			unauthenticated(w)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUser, user)
		next(w, r.WithContext(ctx))
	}
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*users.User)
	return user, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSONError(w, http.StatusUnauthorized, "Could not validate credentials")
}
