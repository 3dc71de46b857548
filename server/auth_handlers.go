package server

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	apperrors "github.com/jrsteele09/go-google-auth/internal/errors"
	"github.com/jrsteele09/go-google-auth/server/authflowrepo"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"

	// identityExchangeTimeout bounds the Google round trip so a hang there
	// cannot hold a storage connection open.
	identityExchangeTimeout = 10 * time.Second
)

// callbackPage posts the access token back to the window that opened the
// login popup and closes it. The refresh token travels only in the cookie.
var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<body>
<script>
    window.opener.postMessage({ type: "AUTH_SUCCESS", access_token: {{.AccessToken}} }, {{.ClientOrigin}});
    window.close();
</script>
</body>
</html>
`))

// LoginHandler starts the sign-in flow: mint state, nonce and PKCE
// verifier, stash them for the callback, and redirect to Google.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := generateRandomString(32)
		nonce := generateRandomString(32)
		verifier := oauth2.GenerateVerifier()

		if err := s.flow.Upsert(state, &authflowrepo.AuthFlowState{
			CodeVerifier: verifier,
			Nonce:        nonce,
		}); err != nil {
			log.Error().Err(err).Msg("failed to store auth flow state")
			http.Error(w, "failed to start login", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, s.idp.AuthCodeURL(state, nonce, verifier), http.StatusTemporaryRedirect)
	}
}

// CallbackHandler completes the sign-in flow: single-use state lookup,
// code exchange and assertion verification, then the Login transition.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")

		if errorParam != "" {
			http.Error(w, "Authorization failed: "+errorParam, http.StatusBadRequest)
			return
		}
		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		authState, err := s.flow.Get(state)
		if err != nil {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		// Clean up state after use
		if err := s.flow.Delete(state); err != nil {
			log.Error().Err(err).Msg("failed to discard auth flow state")
			http.Error(w, "failed to complete login", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), identityExchangeTimeout)
		defer cancel()

		id, err := s.idp.Exchange(ctx, code, authState.CodeVerifier, authState.Nonce)
		if err != nil {
			// Assertion failure aborts the login: no tokens issued, no rows written
			log.Warn().Err(err).Msg("identity verification failed")
			writeJSONError(w, http.StatusUnauthorized, "Google authentication failed")
			return
		}

		_, pair, err := s.sessions.Login(r.Context(), *id)
		if err != nil {
			log.Error().Err(err).Msg("login transition failed")
			writeJSONError(w, http.StatusInternalServerError, "failed to create session")
			return
		}

		s.setRefreshCookie(w, pair.RefreshToken)

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := callbackPage.Execute(w, map[string]string{
			"AccessToken":  pair.AccessToken,
			"ClientOrigin": s.config.GetClientURL(),
		}); err != nil {
			log.Error().Err(err).Msg("failed to render callback page")
		}
	}
}

// RefreshHandler implements the sliding window endpoint.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(RefreshCookieName)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Session expired")
			return
		}

		pair, err := s.sessions.Refresh(r.Context(), cookie.Value)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrSessionExpired) {
				writeJSONError(w, http.StatusUnauthorized, "Token invalid or expired")
				return
			}
			// Anything else is a storage or issuance failure, not a bad token
			log.Error().Err(err).Msg("refresh transition failed")
			writeJSONError(w, http.StatusInternalServerError, "failed to refresh session")
			return
		}

		s.setRefreshCookie(w, pair.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]string{
			"access_token": pair.AccessToken,
			"token_type":   "bearer",
		})
	}
}

// LogoutHandler revokes the presented refresh token and clears the
// cookie. Both steps are idempotent; a missing cookie is still a success.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var presented string
		if cookie, err := r.Cookie(RefreshCookieName); err == nil {
			presented = cookie.Value
		}

		if _, err := s.sessions.Logout(r.Context(), presented); err != nil {
			log.Error().Err(err).Msg("logout revocation failed")
			writeJSONError(w, http.StatusInternalServerError, "failed to log out")
			return
		}

		s.clearRefreshCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"detail": "Logged out successfully"})
	}
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.config.GetRefreshTokenExpiry().Seconds()),
		HttpOnly: true,
		Secure:   s.env != "DEV",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.env != "DEV",
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
