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
	"go.uber.org/zap"

	_ "github.com/noah-isme/smart-classroom-api/api/swagger"
	"github.com/noah-isme/smart-classroom-api/internal/handler"
	"github.com/noah-isme/smart-classroom-api/internal/repository"
	"github.com/noah-isme/smart-classroom-api/internal/scheduling"
	"github.com/noah-isme/smart-classroom-api/internal/service"
	"github.com/noah-isme/smart-classroom-api/migrations"
	"github.com/noah-isme/smart-classroom-api/pkg/cache"
	"github.com/noah-isme/smart-classroom-api/pkg/config"
	"github.com/noah-isme/smart-classroom-api/pkg/database"
	"github.com/noah-isme/smart-classroom-api/pkg/jobs"
	"github.com/noah-isme/smart-classroom-api/pkg/logger"
	"github.com/noah-isme/smart-classroom-api/pkg/storage"
)

// @title Smart Classroom Scheduling API
// @version 1.0.0
// @description Room and faculty conflict detection, availability lookups and timetable exports.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Migrations.AutoMigrate {
		version, err := database.Migrate(ctx, db.DB, migrations.FS, logr)
		if err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("database migrated", zap.Int64("version", version))
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo, redisClient := buildCacheRepository(ctx, cfg, logr)
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()
	engine := scheduling.NewEngine(scheduling.Policy{
		RequireTypeMatch: cfg.Scheduler.RequireTypeMatch,
		ReassignRoom:     cfg.Scheduler.ReassignRoom,
	})

	roomRepo := repository.NewRoomRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	roomSvc := service.NewRoomService(roomRepo, cacheSvc, validate, logr)
	facultySvc := service.NewFacultyService(facultyRepo, cacheSvc, validate, logr)
	reconcileSvc := service.NewReconcileService(scheduleRepo, db, roomSvc, engine, cacheSvc, metricsSvc, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, db, roomSvc, facultySvc, engine, reconcileSvc, cacheSvc, metricsSvc, validate, logr,
		service.ScheduleServiceConfig{ReconcileOnDelete: cfg.Reconcile.AutoOnDelete})
	availabilitySvc := service.NewAvailabilityService(scheduleRepo, roomSvc, facultySvc, engine, validate, logr)
	analyticsSvc := service.NewAnalyticsService(scheduleRepo, roomSvc, facultySvc, cacheSvc, metricsSvc, logr)
	exportSvc := service.NewExportService(scheduleRepo, facultySvc, store, signer, validate, logr,
		service.ExportConfig{APIPrefix: cfg.APIPrefix, Retention: cfg.Exports.Retention})
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	reconcileQueue := jobs.NewQueue("reconcile", reconcileSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Reconcile.Workers,
		BufferSize: cfg.Reconcile.BufferSize,
		MaxRetries: cfg.Reconcile.Retries,
		RetryDelay: cfg.Reconcile.RetryDelay,
		Logger:     logr,
	})
	reconcileSvc.AttachQueue(reconcileQueue)
	reconcileQueue.Start(ctx)
	defer reconcileQueue.Stop()

	go runExportCleanup(ctx, exportSvc, cfg.Exports.Retention, logr)

	checks := map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	if redisClient != nil {
		checks["cache"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := newRouter(cfg, logr, routeDeps{
		rooms:         handler.NewRoomHandler(roomSvc),
		faculty:       handler.NewFacultyHandler(facultySvc),
		schedules:     handler.NewScheduleHandler(scheduleSvc, reconcileSvc),
		availability:  handler.NewAvailabilityHandler(availabilitySvc),
		analytics:     handler.NewAnalyticsHandler(analyticsSvc),
		exports:       handler.NewExportHandler(exportSvc),
		observability: handler.NewMetricsHandler(metricsSvc.Handler(), checks),
		metrics:       metricsSvc,
		tokens:        tokenSvc,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildCacheRepository picks Redis or the in-process cache. A Redis outage at startup degrades
// to the in-process cache rather than failing boot.
func buildCacheRepository(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.CacheRepository, *redis.Client) {
	if cfg.Cache.Backend == config.CacheBackendRedis {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err == nil {
			return repository.NewCacheRepository(client), client
		}
		logr.Warn("redis unavailable, using in-process cache", zap.Error(err))
	}
	return repository.NewMemoryCacheRepository(cache.NewMemory(cfg.Cache.TTL)), nil
}

func runExportCleanup(ctx context.Context, exports *service.ExportService, retention time.Duration, logr *zap.Logger) {
	interval := retention / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := exports.Cleanup(); err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
			}
		}
	}
}
