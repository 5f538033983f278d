package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	database, err := persistence.OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if cfg.Database.RunMigrations {
		if err := persistence.RunMigrations(ctx, database.Handle(), database.Driver, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	if cfg.Seed.Enabled {
		if err := persistence.Seed(ctx, database.Handle(), persistence.SeedOptions{
			DefaultPassword: cfg.Seed.DefaultPassword,
			BcryptCost:      cfg.Auth.BcryptCost,
		}, logger); err != nil {
			logger.Fatal("failed to seed database", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	resultCache := cache.New(redis.Client, cfg.Cache, metrics, logger)

	db := database.Handle()
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	lookupRepo := repository.NewLookupRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	dispatcher := events.NewInMemoryDispatcher(logger, metrics)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:    userRepo,
		RequestRepo: requestRepo,
		Cache:       resultCache,
	}, logger)
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requestRepo,
		UserRepo:    userRepo,
		LookupRepo:  lookupRepo,
		Dispatcher:  dispatcher,
	}, logger)
	notificationService := service.NewNotificationService(cfg.Notification, service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		SettingsRepo:     settingsRepo,
		Dispatcher:       dispatcher,
	}, logger)
	ratingService := service.NewRatingService(userRepo, requestRepo, resultCache, cfg.Rating.ResolutionTarget(), logger)
	analyticsService := service.NewAnalyticsService(requestRepo, userRepo, resultCache)

	worker.StartNotificationWorker(dispatcher, notificationService, resultCache)

	scheduler := worker.NewScheduler(logger, metrics, time.Minute)
	overdue := worker.NewOverdueScanner(requestRepo, notificationRepo, notificationService, cfg.Rating.ResolutionTarget(), logger)
	if err := scheduler.Add("overdue_scan", cfg.Jobs.OverdueScanSpec, overdue.Run); err != nil {
		logger.Fatal("failed to schedule overdue scan", zap.Error(err))
	}
	scheduler.Start()

	app := httptransport.NewServer(cfg.App, logger, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, database, redis),
		Auth:           handlers.NewAuthHandler(authService, service.NewSettingsService(settingsRepo, logger)),
		Users:          handlers.NewUsersHandler(authService),
		Lookups:        handlers.NewLookupsHandler(service.NewLookupService(lookupRepo)),
		Requests:       handlers.NewRequestsHandler(requestService),
		Reports:        handlers.NewReportsHandler(notificationService, ratingService, analyticsService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	scheduler.Stop(shutdownCtx)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
