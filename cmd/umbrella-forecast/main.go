package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	httpapi "github.com/umbrella-forecast/backend/internal/api/http"
	"github.com/umbrella-forecast/backend/internal/blob"
	"github.com/umbrella-forecast/backend/internal/config"
	"github.com/umbrella-forecast/backend/internal/favorites"
	"github.com/umbrella-forecast/backend/internal/observability"
	"github.com/umbrella-forecast/backend/internal/posts"
	"github.com/umbrella-forecast/backend/internal/scheduler"
	"github.com/umbrella-forecast/backend/internal/snapshot"
	"github.com/umbrella-forecast/backend/internal/store"
	"github.com/umbrella-forecast/backend/internal/users"
	"github.com/umbrella-forecast/backend/internal/weather"
	"github.com/umbrella-forecast/backend/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Document store: Redis when configured, in-memory otherwise.
	var docs store.Documents
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		docs = store.NewRedisStore(client)
		logger.Info("using redis document store", "addr", cfg.RedisAddr)
	} else {
		docs = store.NewMemoryStore()
		logger.Info("using in-memory document store")
	}

	images, err := blob.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("failed to prepare upload dir: %v", err)
	}

	// Upstream weather source with resilience and a geocoding cache.
	httpClient := &http.Client{Timeout: 10 * time.Second}
	owm := providers.NewOpenWeatherClient(httpClient, cfg.OpenWeatherAPIKey, metrics, logger)
	source := providers.NewCachedSource(owm, cfg.GeocodeCacheSize, metrics)

	weatherSvc := weather.NewService(source, weather.JST, logger, metrics)
	userSvc := users.NewService(docs, nil, logger, cfg.SessionTTL)
	ledger := posts.NewLedger(docs, nil, logger, metrics)
	favSvc := favorites.NewService(docs)
	snapshots := snapshot.NewMemoryStore(cfg.SnapshotMaxHistory, cfg.SnapshotMaxAge, nil)

	sched := scheduler.New(cfg.RefreshInterval, weatherSvc, favSvc, snapshots, logger, metrics)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "umbrella-forecast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		BodyLimit:             8 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "umbrella-forecast",
		})
	})

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	app.Static("/uploads", images.Root())

	httpapi.RegisterRoutes(app, &httpapi.Handlers{
		Users:     userSvc,
		Posts:     ledger,
		Favorites: favSvc,
		Weather:   weatherSvc,
		Snapshots: snapshots,
		Images:    images,
		Logger:    logger,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()
	logger.Info("server listening", "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}
