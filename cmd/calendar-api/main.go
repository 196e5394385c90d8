package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/hostlens/calendar-api/internal/handler"
	"github.com/hostlens/calendar-api/internal/middleware"
	"github.com/hostlens/calendar-api/internal/repository"
	"github.com/hostlens/calendar-api/internal/service"
	"github.com/hostlens/calendar-api/pkg/cache"
	"github.com/hostlens/calendar-api/pkg/config"
	"github.com/hostlens/calendar-api/pkg/database"
	"github.com/hostlens/calendar-api/pkg/logger"
	corsmiddleware "github.com/hostlens/calendar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hostlens/calendar-api/pkg/middleware/requestid"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis is an optimization, not a dependency: run uncached.
		logr.Sugar().Warnw("redis unavailable, availability caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	feedRepo := repository.NewFeedRepository(db)
	periodRepo := repository.NewPeriodRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	availabilitySvc := service.NewAvailabilityService(
		periodRepo,
		redisClient,
		cfg.Availability.CacheTTL,
		cfg.Availability.DefaultHorizonMonths,
		cfg.Availability.MaxHorizonMonths,
		logr,
	)
	manualBlockSvc := service.NewManualBlockService(periodRepo, availabilitySvc, validate, logr)
	feedSvc := service.NewFeedService(feedRepo, availabilitySvc, validate, logr)
	syncSvc := service.NewSyncService(feedRepo, periodRepo, availabilitySvc, metricsSvc, service.SyncConfig{
		FetchTimeout: cfg.Sync.FetchTimeout,
		Workers:      cfg.Sync.Workers,
		MaxRetries:   cfg.Sync.MaxRetries,
		RetryDelay:   cfg.Sync.RetryDelay,
		UserAgent:    cfg.Sync.UserAgent,
	}, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncSvc.Start(rootCtx)
	defer syncSvc.Stop()

	var sweeper *cron.Cron
	if cfg.Sync.Cron != "" {
		sweeper = cron.New()
		if _, err := sweeper.AddFunc(cfg.Sync.Cron, func() {
			if _, err := syncSvc.SweepAll(rootCtx); err != nil {
				logr.Sugar().Errorw("scheduled sweep failed", "error", err)
			}
		}); err != nil {
			logr.Sugar().Fatalw("invalid sync cron expression", "cron", cfg.Sync.Cron, "error", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	manualBlockHandler := handler.NewManualBlockHandler(manualBlockSvc)
	feedHandler := handler.NewFeedHandler(feedSvc)
	syncHandler := handler.NewSyncHandler(syncSvc)

	api := r.Group(cfg.APIPrefix)
	{
		properties := api.Group("/properties/:propertyId")
		properties.GET("/availability", availabilityHandler.GetAvailablePeriods)
		properties.GET("/availability/check", availabilityHandler.CheckDate)
		properties.GET("/manual-blocks", manualBlockHandler.List)
		properties.POST("/manual-blocks", manualBlockHandler.Create)
		properties.DELETE("/manual-blocks/:id", manualBlockHandler.Delete)
		properties.GET("/feeds", feedHandler.List)
		properties.POST("/feeds", feedHandler.Create)

		api.DELETE("/feeds/:id", feedHandler.Delete)
		api.POST("/feeds/:id/sync", syncHandler.SyncFeed)
		api.POST("/sync/sweep", syncHandler.Sweep)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
