package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-google-auth/auth"
	"github.com/jrsteele09/go-google-auth/identity"
	"github.com/jrsteele09/go-google-auth/internal/config"
	"github.com/jrsteele09/go-google-auth/server/authflowrepo"
	"github.com/jrsteele09/go-google-auth/users"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	sessions *auth.SessionService
	userRepo users.Repo
	idp      identity.Client
	flow     authflowrepo.Repo
	storage  Pinger
}

func New(cfg config.Config, sessions *auth.SessionService, userRepo users.Repo, idp identity.Client, flow authflowrepo.Repo, storage Pinger) (*Server, error) {
	if sessions == nil {
		return nil, fmt.Errorf("[Server New] session service is required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("[Server New] user repo is required")
	}
	if idp == nil {
		return nil, fmt.Errorf("[Server New] identity client is required")
	}
	if flow == nil {
		return nil, fmt.Errorf("[Server New] auth flow repo is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		sessions: sessions,
		userRepo: userRepo,
		idp:      idp,
		flow:     flow,
		storage:  storage,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// generateRandomString returns a URL-safe random string of n bytes entropy.
func generateRandomString(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
