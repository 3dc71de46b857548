package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-google-auth/auth"
	"github.com/jrsteele09/go-google-auth/identity"
	"github.com/jrsteele09/go-google-auth/identity/identityfake"
	"github.com/jrsteele09/go-google-auth/internal/config"
	"github.com/jrsteele09/go-google-auth/server"
	"github.com/jrsteele09/go-google-auth/server/authflowrepo"
	"github.com/jrsteele09/go-google-auth/token"
	fakeledgerrepo "github.com/jrsteele09/go-google-auth/token/ledger/repofake"
	fakeuserrepo "github.com/jrsteele09/go-google-auth/users/repofake"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	testSecret    = "test-signing-secret"
	testClientURL = "http://localhost:3000"
)

type testConfig struct{}

func (testConfig) GetPort() string        { return ":8080" }
func (testConfig) GetAppName() string     { return "Go Google Auth" }
func (testConfig) GetEnv() string         { return "DEV" }
func (testConfig) GetDatabaseURL() string { return ":memory:" }
func (testConfig) GetSecretKey() string   { return testSecret }
func (testConfig) GetClientURL() string   { return testClientURL }

func (testConfig) GetAllowedOrigins() config.AllowedOrigins {
	return config.AllowedOrigins{testClientURL: {}}
}
func (testConfig) GetAllowedMethods() string { return "GET, POST, PUT, PATCH, DELETE" }
func (testConfig) GetAllowedHeaders() string { return "Content-Type, Authorization" }

func (testConfig) GetGoogleClientID() string     { return "client-id" }
func (testConfig) GetGoogleClientSecret() string { return "client-secret" }
func (testConfig) GetGoogleRedirectURI() string  { return "http://localhost:8080/auth/callback" }

func (testConfig) GetAccessTokenExpiry() time.Duration  { return 30 * time.Minute }
func (testConfig) GetRefreshTokenExpiry() time.Duration { return 7 * 24 * time.Hour }

var _ config.Config = testConfig{}

type testFixture struct {
	userRepo   *fakeuserrepo.FakeUserRepo
	ledgerRepo *fakeledgerrepo.FakeLedgerRepo
	idp        *identityfake.FakeClient
	service    *auth.SessionService
	server     *server.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	ur := fakeuserrepo.NewFakeUserRepo()
	lr := fakeledgerrepo.NewFakeLedgerRepo()

	codec, err := token.NewCodec(testSecret, testConfig{})
	require.NoError(t, err)

	service, err := auth.NewSessionService(auth.Repos{Users: ur, Tokens: lr}, codec)
	require.NoError(t, err)

	idp := identityfake.NewFakeClient(identity.Identity{
		Subject:       "google-subject-1",
		Email:         "john.doe@example.com",
		Name:          "John Doe",
		Picture:       "https://example.com/avatar.png",
		EmailVerified: true,
		RefreshToken:  "google-refresh-1",
	})

	srv, err := server.New(testConfig{}, service, ur, idp, authflowrepo.NewInMemoryRepo(), nil)
	require.NoError(t, err)

	return &testFixture{
		userRepo:   ur,
		ledgerRepo: lr,
		idp:        idp,
		service:    service,
		server:     srv,
	}
}

// login runs the service-level Login transition and returns the pair.
func (f *testFixture) login(t *testing.T) *token.Pair {
	t.Helper()
	_, pair, err := f.service.Login(context.Background(), f.idp.Identity)
	require.NoError(t, err)
	return pair
}

func refreshCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == server.RefreshCookieName {
			return cookie
		}
	}
	return nil
}

func TestLoginRedirectsToProvider(t *testing.T) {
	f := setupTestFixture(t)

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.NotEmpty(t, location.Query().Get("state"))
	require.NotEmpty(t, location.Query().Get("nonce"))
}

// startLogin drives /auth/login and returns the state parameter Google
// would echo back.
func startLogin(t *testing.T, f *testFixture) string {
	t.Helper()
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return location.Query().Get("state")
}

func TestCallbackEstablishesSession(t *testing.T) {
	f := setupTestFixture(t)
	state := startLogin(t, f)

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state="+state, nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "auth-code", f.idp.LastCode)

	body := w.Body.String()
	require.Contains(t, body, "AUTH_SUCCESS")
	require.Contains(t, body, testClientURL)

	cookie := refreshCookie(t, w.Result())
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)

	// Exactly one user row and one ledger row
	all, err := f.userRepo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, 1, f.ledgerRepo.Len())

	// The cookie value is ledger-active
	_, err = f.ledgerRepo.FindActive(context.Background(), cookie.Value)
	require.NoError(t, err)
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	f := setupTestFixture(t)
	state := startLogin(t, f)

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state="+state, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state="+state, nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallbackRejectsMissingParams(t *testing.T) {
	f := setupTestFixture(t)

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied&state=x&code=y", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallbackAbortsOnAssertionFailure(t *testing.T) {
	f := setupTestFixture(t)
	state := startLogin(t, f)
	f.idp.Fail = true

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state="+state, nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Nil(t, refreshCookie(t, w.Result()))

	// No tokens issued, no rows written
	all, err := f.userRepo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
	require.Equal(t, 0, f.ledgerRepo.Len())
}

// failingFlowRepo models a backing store that can no longer discard
// spent login state.
type failingFlowRepo struct {
	authflowrepo.Repo
}

func (failingFlowRepo) Delete(string) error { return errors.New("store unavailable") }

func TestCallbackStateCleanupFailure(t *testing.T) {
	f := setupTestFixture(t)

	srv, err := server.New(testConfig{}, f.service, f.userRepo, f.idp, failingFlowRepo{authflowrepo.NewInMemoryRepo()}, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state="+location.Query().Get("state"), nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	// A server-side failure must not be blamed on the state parameter
	require.NotContains(t, w.Body.String(), "Invalid state")
}

func TestRefreshSlidesTheWindow(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: server.RefreshCookieName, Value: pair.RefreshToken})
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, "bearer", resp["token_type"])
	require.NotEmpty(t, resp["access_token"])

	cookie := refreshCookie(t, w.Result())
	require.NotNil(t, cookie)
	require.NotEqual(t, pair.RefreshToken, cookie.Value)

	// The superseded token no longer refreshes
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: server.RefreshCookieName, Value: pair.RefreshToken})
	w = httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshWithoutCookie(t *testing.T) {
	f := setupTestFixture(t)

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshStorageFailureIsServerError(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	// A ledger outage is not the client's fault and must not read as a
	// rejected token.
	f.ledgerRepo.FailWith = errors.New("connection reset by peer")

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: server.RefreshCookieName, Value: pair.RefreshToken})
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRefreshWithGarbageCookie(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: server.RefreshCookieName, Value: "garbage"})
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: server.RefreshCookieName, Value: pair.RefreshToken})
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, f.ledgerRepo.Get(pair.RefreshToken).IsRevoked)

	cookie := refreshCookie(t, w.Result())
	require.NotNil(t, cookie)
	require.Empty(t, cookie.Value)
	require.Negative(t, cookie.MaxAge)
}

func TestLogoutWithoutCookieStillSucceeds(t *testing.T) {
	f := setupTestFixture(t)

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.Equal(t, http.StatusOK, w.Code)
	cookie := refreshCookie(t, w.Result())
	require.NotNil(t, cookie)
	require.Negative(t, cookie.MaxAge)
}

func TestUsersMe(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var profile map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&profile))
	require.Equal(t, "john.doe@example.com", profile["email"])
	require.Equal(t, "John Doe", profile["full_name"])
	require.Equal(t, true, profile["is_active"])
	// Provider-scoped fields never leave the service
	require.NotContains(t, profile, "google_refresh_token")
	require.NotContains(t, profile, "google_id")
}

func TestUsersMeUnauthenticated(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	cases := map[string]string{
		"absent":        "",
		"malformed":     "Bearer not-a-token",
		"wrong scheme":  "Basic " + pair.AccessToken,
		"refresh token": "Bearer " + pair.RefreshToken,
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		f.server.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, name)
		require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"), name)
	}
}

func TestUsersMeExpiredToken(t *testing.T) {
	f := setupTestFixture(t)

	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	token.NowTimeFunc = func() time.Time { return issuedAt }
	defer func() { token.NowTimeFunc = time.Now }()

	pair := f.login(t)

	token.NowTimeFunc = func() time.Time { return issuedAt.Add(31 * time.Minute) }

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUsersAll(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	// A second user signs in
	f.idp.Identity = identity.Identity{
		Subject: "google-subject-2",
		Email:   "jane@example.com",
		Name:    "Jane Roe",
	}
	f.login(t)

	req := httptest.NewRequest(http.MethodGet, "/users/all", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var profiles []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&profiles))
	require.Len(t, profiles, 2)
	require.Equal(t, "john.doe@example.com", profiles[0]["email"])
	require.Equal(t, "jane@example.com", profiles[1]["email"])
}

func TestHealth(t *testing.T) {
	f := setupTestFixture(t)

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	require.Equal(t, "healthy", status["status"])
	require.Equal(t, "connected", status["database"])
}

func TestCorsAllowsConfiguredOrigin(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Origin", testClientURL)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	require.Equal(t, testClientURL, w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCorsIgnoresUnknownOrigin(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflightForProtectedEndpoint(t *testing.T) {
	f := setupTestFixture(t)

	// The SPA sends Authorization cross-origin, so the browser preflights
	// /users/* before the real GET carries the bearer token.
	for _, path := range []string{"/users/me", "/users/all"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", testClientURL)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		req.Header.Set("Access-Control-Request-Headers", "authorization")
		w := httptest.NewRecorder()
		f.server.ServeHTTP(w, req)

		require.Equal(t, http.StatusNoContent, w.Code, path)
		require.Equal(t, testClientURL, w.Header().Get("Access-Control-Allow-Origin"), path)
		require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"), path)
		require.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization", path)
		require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodGet, path)
	}
}

func TestPreflightUnknownOrigin(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/users/me", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
