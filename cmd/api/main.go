package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/aquarium-api/internal/api/http"
	"github.com/spec-kit/aquarium-api/internal/api/http/handlers"
	"github.com/spec-kit/aquarium-api/internal/auth"
	"github.com/spec-kit/aquarium-api/internal/config"
	"github.com/spec-kit/aquarium-api/internal/events"
	"github.com/spec-kit/aquarium-api/internal/observability"
	"github.com/spec-kit/aquarium-api/internal/persistence"
	"github.com/spec-kit/aquarium-api/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.With(
		zap.String("service", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := persistence.OpenCredentialStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open credential store", zap.Error(err))
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger).RegisterHandlers()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, auth.WithIssuer(cfg.App.Name))
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	authService, err := service.NewAuthService(service.AuthDependencies{
		Credentials: store.Repository,
		Hasher:      auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Tokens:      tokens,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:      cfg.App.RequestTimeout(),
		AllowOrigins: cfg.CORS.AllowOrigins,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store.Probes()),
		Staff:           handlers.NewStaffHandler(authService),
		Members:         handlers.NewMembersHandler(authService),
		Sessions:        handlers.NewSessionHandler(authService),
		AuthMiddleware:  auth.NewAuthMiddleware(authService),
		StaffAdminRoles: cfg.Auth.StaffAdminRoles,
		Gatherer:        registry,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("store", store.Backend))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
