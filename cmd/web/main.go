package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/matricula/matricula/internal/client"
	"github.com/matricula/matricula/internal/config"
	"github.com/matricula/matricula/internal/logger"
	"github.com/matricula/matricula/internal/web"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.WebPort).
		Str("api", cfg.APIBaseURL).
		Msg("Starting operator front end")

	api := client.New(cfg.APIBaseURL, cfg.APITimeout)
	store := web.NewCookieStore(cfg.SessionSecret, cfg.CookieSecure)

	server, err := web.NewServer(api, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load views")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Web listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
