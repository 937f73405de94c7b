package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/pln-care/complaint-service/internal/api/http"
	"github.com/pln-care/complaint-service/internal/api/http/handlers"
	"github.com/pln-care/complaint-service/internal/auth"
	"github.com/pln-care/complaint-service/internal/cache"
	"github.com/pln-care/complaint-service/internal/config"
	"github.com/pln-care/complaint-service/internal/events"
	"github.com/pln-care/complaint-service/internal/observability"
	"github.com/pln-care/complaint-service/internal/persistence"
	"github.com/pln-care/complaint-service/internal/repository"
	"github.com/pln-care/complaint-service/internal/service"
	"github.com/pln-care/complaint-service/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	repos := repository.NewRepos(pool)
	atomic := repository.NewAtomic(pool)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	observability.RegisterEventMetrics(dispatcher, metrics)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Repos:  repos,
		Atomic: atomic,
	})
	userService := service.NewUserService(*cfg, service.UserDependencies{
		Repos:  repos,
		Atomic: atomic,
	})
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		Repos:      repos,
		Atomic:     atomic,
		Dispatcher: dispatcher,
	})
	workReportService := service.NewWorkReportService(service.WorkReportDependencies{
		Repos:      repos,
		Atomic:     atomic,
		Dispatcher: dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	trackingCache := cache.NewTrackingCache(redis.Client, cfg.Tracking.CacheTTL(), logger)
	cache.RegisterInvalidation(dispatcher, trackingCache, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.Users)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Complaints:     handlers.NewComplaintsHandler(complaintService),
		WorkReports:    handlers.NewWorkReportsHandler(workReportService),
		Public:         handlers.NewPublicHandler(complaintService, trackingCache, logger),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
