package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chatTracker/internal/config"
	"chatTracker/internal/db"
	grpcserver "chatTracker/internal/grpc"
	"chatTracker/internal/httpserver"
	"chatTracker/internal/logging"
	"chatTracker/internal/tracker"
	"chatTracker/repository"
)

func main() {
	// Load configuration
	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		boot.Fatal().Err(err).Msg("build logger")
	}
	log.Info().Str("config", cfg.String()).Msg("configuration loaded")

	// Open DB
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Error().Err(err).Msg("close db")
		}
	}()

	srv := newHTTPServer(cfg, d, log)

	// Start gRPC
	shutdownGRPC, err := grpcserver.StartGRPC(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start grpc")
	}
	log.Info().Str("addr", cfg.GRPC.Address).Msg("gRPC health server listening")

	go func() {
		log.Info().Str("addr", cfg.HTTP.Address).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http serve")
		}
	}()

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdownGRPC(ctx); err != nil {
		log.Error().Err(err).Msg("grpc shutdown")
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}

// newHTTPServer drops expired revocations and builds the HTTP server over d.
func newHTTPServer(cfg *config.Config, d *sql.DB, log zerolog.Logger) *http.Server {
	tokens := repository.NewTokenRepository(d)
	if n, err := tokens.PurgeExpired(context.Background(), time.Now()); err != nil {
		log.Warn().Err(err).Msg("purge expired revocations")
	} else if n > 0 {
		log.Info().Int64("purged", n).Msg("expired revocations removed")
	}

	svc := tracker.NewService(d)
	h := httpserver.NewHandler(d, svc, tokens, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	return &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      httpserver.NewRouter(h, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
