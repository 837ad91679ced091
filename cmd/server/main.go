package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/matricula/matricula/internal/app"
	"github.com/matricula/matricula/internal/config"
	"github.com/matricula/matricula/internal/database"
	"github.com/matricula/matricula/internal/handler"
	"github.com/matricula/matricula/internal/logger"
	"github.com/matricula/matricula/internal/middleware"
	"github.com/matricula/matricula/internal/repository"
	"github.com/matricula/matricula/internal/router"
	"github.com/matricula/matricula/internal/service"
	"github.com/matricula/matricula/internal/validator"
	"github.com/matricula/matricula/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("driver", cfg.DatabaseDriver).
		Str("log_level", cfg.LogLevel).
		Msg("Starting enrollment API")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to the Database ───────────────────────────────────────
	backend, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer backend.Close()

	stores, err := app.NewStores(backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare schema")
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	sessionRepo := repository.NewSessionRepository(rdb)
	eventRepo := repository.NewEventRepository(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, stores.Users, sessionRepo, eventRepo, log)
	userService := service.NewUserService(stores.Users, eventRepo, cfg.BcryptCost, log)
	studentService := service.NewStudentService(stores.Students, stores.Payments, eventRepo, log)
	paymentService := service.NewPaymentService(stores.Students, stores.Payments, eventRepo, log)
	exportService := service.NewExportService(stores.Students)

	if cfg.BootstrapUsername != "" {
		created, err := userService.EnsureBootstrapUser(ctx, cfg.BootstrapUsername, cfg.BootstrapPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap operator account")
		}
		if created {
			log.Info().Str("username", cfg.BootstrapUsername).Msg("Bootstrap operator created")
		}
	}

	// Long-lived connections hang off serveCtx and end with the server.
	serveCtx, serveCancel := context.WithCancel(context.Background())
	defer serveCancel()

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, userService),
		User:    handler.NewUserHandler(userService),
		Student: handler.NewStudentHandler(studentService, exportService, log),
		Payment: handler.NewPaymentHandler(paymentService),
		WS:      handler.NewWSHandler(serveCtx, eventRepo, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(backend, eventRepo, log),
	}

	// ─── Observability ────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	obs := &router.Observability{
		Registry:    reg,
		Metrics:     middleware.NewMetrics(reg),
		AuthLimiter: middleware.NewRateLimiter(10, time.Minute),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	auditWorker := worker.NewAuditWorker(worker.NewRedisQueue(rdb), stores.Audit, log)
	go func() {
		defer close(workerDone)
		auditWorker.Start(workerCtx)
	}()
	go obs.AuthLimiter.RunCleanup(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, obs, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown does not track hijacked WebSocket connections.
	srv.RegisterOnShutdown(serveCancel)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the audit worker and let it flush what is still queued.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Audit worker did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
