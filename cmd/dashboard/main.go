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

	_ "github.com/noah-isme/grades-dashboard/api/swagger"
	"github.com/noah-isme/grades-dashboard/internal/handler"
	"github.com/noah-isme/grades-dashboard/internal/middleware"
	"github.com/noah-isme/grades-dashboard/internal/repository"
	"github.com/noah-isme/grades-dashboard/internal/service"
	"github.com/noah-isme/grades-dashboard/pkg/cache"
	"github.com/noah-isme/grades-dashboard/pkg/chart"
	"github.com/noah-isme/grades-dashboard/pkg/config"
	"github.com/noah-isme/grades-dashboard/pkg/logger"
	corsmiddleware "github.com/noah-isme/grades-dashboard/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/grades-dashboard/pkg/middleware/requestid"
	"github.com/noah-isme/grades-dashboard/pkg/storage"
)

// @title Grades Dashboard API
// @version 1.0.0
// @description Group averages, performance bands and filtered summaries over the course grades spreadsheet
// @BasePath /api/v1
// @schemes http

const exportCleanupInterval = time.Hour

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

	metricsSvc := service.NewMetricsService()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, snapshots stay local", zap.Error(err))
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	snapshots := service.NewCacheService(cacheRepo, metricsSvc, cfg.Redis.CacheTTL, logr, redisClient != nil)

	source := repository.NewSourceRepository(cfg.Source, logr)
	gradebookSvc := service.NewGradebookService(source, snapshots, metricsSvc, service.GradebookConfig{
		Sheet:           cfg.Source.Sheet,
		RevalidateAfter: cfg.Source.CacheTTL,
		SnapshotTTL:     cfg.Redis.CacheTTL,
	}, logr)
	summarySvc := service.NewSummaryService(gradebookSvc, validator.New(), logr)
	chartSvc := service.NewChartService(summarySvc, chart.NewRenderer(cfg.Charts.Width, cfg.Charts.Height), metricsSvc, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(summarySvc, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			Retention: cfg.Exports.Retention,
		}, metricsSvc, logr, nil, nil)
	}

	refreshCfg := service.RefreshConfig{RefreshInterval: cfg.Source.RefreshInterval}
	var cleaner interface {
		Cleanup(time.Duration) ([]string, error)
	}
	if exportSvc != nil {
		refreshCfg.CleanupInterval = exportCleanupInterval
		cleaner = exportSvc
	}
	refreshSvc := service.NewRefreshService(gradebookSvc, cleaner, refreshCfg, logr)
	if err := refreshSvc.Start(ctx); err != nil {
		logr.Fatal("failed to start background jobs", zap.Error(err))
	}
	defer refreshSvc.Stop()

	go func() {
		if _, _, err := gradebookSvc.Load(ctx); err != nil {
			logr.Warn("initial gradebook load failed", zap.Error(err))
		}
	}()

	tmpl, err := handler.Templates()
	if err != nil {
		logr.Fatal("failed to parse templates", zap.Error(err))
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, gradebookSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/", handler.NewDashboardHandler(summarySvc, cfg.APIPrefix).Page)

	api := r.Group(cfg.APIPrefix)
	gradebookHandler := handler.NewGradebookHandler(summarySvc, refreshSvc)
	api.GET("/gradebook", gradebookHandler.List)
	api.GET("/gradebook/filters", gradebookHandler.Filters)
	api.GET("/gradebook/summary", gradebookHandler.Summary)
	api.POST("/gradebook/refresh", gradebookHandler.Refresh)

	chartHandler := handler.NewChartHandler(chartSvc)
	api.GET("/charts/distribution", chartHandler.Distribution)
	api.GET("/charts/student", chartHandler.Student)
	api.GET("/charts/scatter", chartHandler.Scatter)

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		api.POST("/exports", exportHandler.Create)
		api.GET("/exports/:token", exportHandler.Download)
	}
	api.GET("/system/metrics", metricsHandler.System)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "source", cfg.Source.Location())
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
