package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-google-auth/auth"
	"github.com/jrsteele09/go-google-auth/identity"
	"github.com/jrsteele09/go-google-auth/internal/config"
	"github.com/jrsteele09/go-google-auth/server"
	"github.com/jrsteele09/go-google-auth/server/authflowrepo"
	"github.com/jrsteele09/go-google-auth/storage"
	"github.com/jrsteele09/go-google-auth/token"
	ledgergorm "github.com/jrsteele09/go-google-auth/token/ledger/gormrepo"
	usersgorm "github.com/jrsteele09/go-google-auth/users/gormrepo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	configureLogging(cfg.GetEnv())
	displayAppname(cfg.GetAppName())

	store, err := storage.Open(cfg.GetDatabaseURL(), cfg.GetEnv())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()

	codec, err := token.NewCodec(cfg.GetSecretKey(), cfg)
	if err != nil {
		return fmt.Errorf("build codec: %w", err)
	}

	sessions, err := auth.NewSessionService(auth.Repos{
		Users:  usersgorm.New(store.DB()),
		Tokens: ledgergorm.New(store.DB()),
	}, codec)
	if err != nil {
		return fmt.Errorf("build session service: %w", err)
	}

	// The Google client is constructed once here and injected as a
	// capability; nothing else in the process holds provider state.
	googleClient, err := identity.NewGoogleClient(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("build google client: %w", err)
	}

	srv, err := server.New(cfg, sessions, usersgorm.New(store.DB()), googleClient, authflowrepo.NewInMemoryRepo(), store)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func configureLogging(environment string) {
	if environment == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
