package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/mramrohaleem/study/api/swagger"
	"github.com/mramrohaleem/study/internal/handler"
	"github.com/mramrohaleem/study/internal/middleware"
	"github.com/mramrohaleem/study/internal/models"
	"github.com/mramrohaleem/study/internal/repository"
	"github.com/mramrohaleem/study/internal/service"
	"github.com/mramrohaleem/study/pkg/cache"
	"github.com/mramrohaleem/study/pkg/config"
	"github.com/mramrohaleem/study/pkg/database"
	"github.com/mramrohaleem/study/pkg/logger"
	corsmiddleware "github.com/mramrohaleem/study/pkg/middleware/cors"
	reqidmiddleware "github.com/mramrohaleem/study/pkg/middleware/requestid"
	"github.com/mramrohaleem/study/pkg/storage"
)

// @title Study Planner API
// @version 1.0.0
// @description Exam-driven lecture scheduling, revision passes and study statistics.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	stateRepo := repository.NewStateRepository(db, defaultSettings(cfg.Planner))
	if err := stateRepo.EnsureSchema(ctx); err != nil {
		logr.Fatal("failed to prepare schema", zap.Error(err))
	}

	var redisClient redis.UniversalClient
	if client, err := cache.NewRedis(ctx, cfg.Redis); err != nil {
		logr.Warn("redis unavailable, stats cache and notifications disabled", zap.Error(err))
	} else {
		redisClient = client
		defer client.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, "study:")
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Planner.StatsCacheTTL, logr, cfg.Planner.StatsCacheEnabled && redisClient != nil)

	var publisher *repository.EventPublisher
	if redisClient != nil {
		publisher = repository.NewEventPublisher(redisClient, cfg.Notify.Channel)
	}
	notifier := service.NewNotificationService(eventPublisherOrNil(publisher), service.NotificationConfig{
		Enabled:    cfg.Notify.Enabled,
		Workers:    cfg.Notify.Workers,
		Retries:    cfg.Notify.Retries,
		RetryDelay: time.Second,
	}, metricsSvc, logr)

	plannerSvc := service.NewPlannerService(stateRepo, cacheSvc, metricsSvc, notifier, validate, logr, service.PlannerServiceConfig{
		Location: cfg.Planner.Location(),
		StatsTTL: cfg.Planner.StatsCacheTTL,
	})

	var exportHandler *handler.ExportHandler
	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(stateRepo, files, signer, service.ExportConfig{
			Enabled:    true,
			APIPrefix:  cfg.APIPrefix,
			Workers:    cfg.Exports.WorkerConcurrency,
			Retries:    cfg.Exports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			ResultTTL:  cfg.Exports.SignedURLTTL,
		}, metricsSvc, validate, logr)
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
		go runExportCleanup(ctx, exportSvc, logr)
		exportHandler = handler.NewExportHandler(exportSvc)
	}

	notifier.Start(ctx)
	defer notifier.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.ResponseMeta())

	checks := map[string]handler.Checker{"postgres": stateRepo.Ping}
	if redisClient != nil {
		checks["redis"] = cacheRepo.Ping
	}
	health := handler.NewHealthHandler(metricsSvc, checks)
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", health.Prometheus)
	r.GET("/metrics/summary", health.Stats)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Subjects: handler.NewSubjectHandler(plannerSvc),
		Lectures: handler.NewLectureHandler(plannerSvc),
		Calendar: handler.NewCalendarHandler(plannerSvc),
		Exports:  exportHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// defaultSettings seeds a fresh snapshot. Zero caps mean unbounded.
func defaultSettings(cfg config.PlannerConfig) models.Settings {
	settings := models.DefaultSettings()
	if cfg.DefaultMaxLectures > 0 {
		settings.MaxLecturesPerDay = models.Bounded(cfg.DefaultMaxLectures)
	}
	if cfg.DefaultMaxMinutes > 0 {
		settings.MaxMinutesPerDay = models.Bounded(cfg.DefaultMaxMinutes)
	}
	if cfg.StreakMinLectures > 0 {
		settings.StreakMinLectures = cfg.StreakMinLectures
	}
	if cfg.StreakMinMinutes > 0 {
		settings.StreakMinMinutes = cfg.StreakMinMinutes
	}
	return settings
}

// eventPublisherOrNil keeps a missing publisher a nil interface.
func eventPublisherOrNil(p *repository.EventPublisher) interface {
	Publish(ctx context.Context, event models.Event) (int64, error)
} {
	if p == nil {
		return nil
	}
	return p
}

func runExportCleanup(ctx context.Context, svc *service.ExportService, logr *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := svc.Cleanup()
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("export files removed", zap.Int("count", len(removed)))
			}
		}
	}
}
