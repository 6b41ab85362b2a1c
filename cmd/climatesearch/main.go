package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/d0ren/climatesearch/internal/api/http"
	"github.com/d0ren/climatesearch/internal/climate"
	"github.com/d0ren/climatesearch/internal/climate/providers"
	"github.com/d0ren/climatesearch/internal/config"
	"github.com/d0ren/climatesearch/internal/scheduler"
	"github.com/d0ren/climatesearch/internal/search"
	"github.com/d0ren/climatesearch/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Single long-lived store client, created once and passed in everywhere.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	mongoStore, err := store.NewMongoStore(startupCtx, cfg.MongoURI, cfg.DBName, cfg.Collection, cfg.VectorIndex)
	startupCancel()
	if err != nil {
		log.Fatalf("failed to connect to store: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoStore.Close(ctx); err != nil {
			log.Printf("error closing store: %v", err)
		}
	}()

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongoStore.EnsureIndexes(indexCtx); err != nil {
		log.Printf("WARN: failed to ensure indexes: %v", err)
	}
	indexCancel()

	// Shared HTTP client for outbound provider and embedding calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewPowerProvider(httpClient, providers.PowerConfig{
		BaseURL:    cfg.PowerAPIBase,
		Community:  cfg.Ingestion.Community,
		Latitude:   cfg.Ingestion.Region.Lat,
		Longitude:  cfg.Ingestion.Region.Lon,
		Start:      cfg.Ingestion.Start,
		End:        cfg.Ingestion.End,
		Parameters: cfg.Ingestion.Parameters,
		Format:     cfg.Ingestion.Format,
	})

	embedder := search.NewEmbedder(cfg.EmbeddingURL, cfg.EmbeddingModel, httpClient)

	location := climate.NewPoint(cfg.Ingestion.Region.Lon, cfg.Ingestion.Region.Lat)
	service := climate.NewService(provider, mongoStore, embedder, location)

	// Optional periodic ingestion.
	sched := scheduler.New(cfg.IngestInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "climatesearch",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          15 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Catch-all boundary: no internal detail leaks to the caller.
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error": message,
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("climatesearch listening on :%s", cfg.Port)

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
