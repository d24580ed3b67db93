package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/api/handlers"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/cache/redis"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/enrichment"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/gmaps"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/ingest"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/metrics"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/middleware/ratelimit"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/middleware/security"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/nexudus"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/refs"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/snapshot"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/storage/sqlite"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/config"
	appLogger "github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Infinitspace Data Warehouse API Server")

	metrics.Init()

	store, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer store.Close()

	err = store.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Redis is optional: without it token caching falls back to the
	// in-process cache and enrichment locks to the in-memory locker.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without it", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var tokenCache nexudus.TokenCache
	if redisClient != nil {
		tokenCache = redisClient
	}
	tokens := nexudus.NewTokenSource(
		cfg.Nexudus.BaseURL,
		cfg.Nexudus.Token,
		cfg.Nexudus.Username,
		cfg.Nexudus.Password,
		&http.Client{Timeout: time.Duration(cfg.Nexudus.TimeoutSec) * time.Second},
		tokenCache,
	)

	nexudusClient := nexudus.NewClient(nexudus.Config{
		BaseURL:         cfg.Nexudus.BaseURL,
		PageSize:        cfg.Nexudus.PageSize,
		Timeout:         time.Duration(cfg.Nexudus.TimeoutSec) * time.Second,
		MaxAttempts:     cfg.Nexudus.MaxAttempts,
		RequestInterval: time.Duration(cfg.Nexudus.RequestInterval) * time.Millisecond,
	}, tokens)

	snapshots := buildSnapshotStore(cfg)
	coordinator := ingest.NewCoordinator(store, nexudusClient, snapshots)

	mapsClient := gmaps.NewClient(gmaps.Config{
		APIKey:  cfg.GoogleMaps.APIKey,
		Timeout: time.Duration(cfg.GoogleMaps.TimeoutSec) * time.Second,
	})

	var locks enrichment.Locker
	if redisClient != nil {
		locks = redisClient
	}
	enricher := enrichment.NewEnricher(store, mapsClient, locks, enrichment.Config{
		POICategories: cfg.GoogleMaps.POICategories,
		TransitTypes:  cfg.GoogleMaps.TransitTypes,
	})

	resolver := refs.NewResolver(store)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(cfg.Server.AllowedOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.IsDevelopment,
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.MaxRequestsPerMinute,
		Logger:               appLogger.Log,
	})
	defer limiter.Stop()

	runHandler := handlers.NewRunHandler(coordinator)
	enrichmentHandler := handlers.NewEnrichmentHandler(enricher, store)
	locationHandler := handlers.NewLocationHandler(store)
	referenceHandler := handlers.NewReferenceHandler(resolver)

	api := app.Group("/api/v1")

	api.Post("/runs", limiter.Middleware(), runHandler.StartRuns)
	api.Get("/runs/:id", runHandler.GetRun)

	api.Post("/enrichment", limiter.Middleware(), enrichmentHandler.TriggerEnrichment)
	api.Get("/enrichment/status", enrichmentHandler.GetStatus)

	api.Get("/locations", locationHandler.ListLocations)
	api.Get("/locations/:id", locationHandler.GetLocation)
	api.Get("/locations/:id/nearby", locationHandler.GetNearby)

	api.Get("/contracts/:id/products", referenceHandler.GetContractProducts)
	api.Get("/extra-services/:id/products", referenceHandler.GetServiceProducts)
	api.Get("/products/:id/services", referenceHandler.GetProductServices)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

func buildSnapshotStore(cfg *config.Config) snapshot.Store {
	if !cfg.Snapshot.Enabled {
		return nil
	}

	switch cfg.Snapshot.Backend {
	case "s3":
		store, err := snapshot.NewS3Store(context.Background(), snapshot.S3Config{
			Bucket:   cfg.Snapshot.S3Bucket,
			Region:   cfg.Snapshot.S3Region,
			Endpoint: cfg.Snapshot.S3Endpoint,
			Prefix:   cfg.Snapshot.S3Prefix,
		})
		if err != nil {
			appLogger.Fatal("Failed to create S3 snapshot store", zap.Error(err))
		}
		return store
	default:
		store, err := snapshot.NewFilesystemStore(cfg.Snapshot.Dir)
		if err != nil {
			appLogger.Fatal("Failed to create filesystem snapshot store", zap.Error(err))
		}
		return store
	}
}

func corsOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ", ")
}
