// Command ingest runs the full ingestion pipeline once and exits: fetch the
// configured daily series, upsert it by date, then backfill embeddings for
// records still missing one.
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/d0ren/climatesearch/internal/climate"
	"github.com/d0ren/climatesearch/internal/climate/providers"
	"github.com/d0ren/climatesearch/internal/config"
	"github.com/d0ren/climatesearch/internal/search"
	"github.com/d0ren/climatesearch/internal/store"
)

func main() {
	log.Println("starting ingestion run")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	mongoStore, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.DBName, cfg.Collection, cfg.VectorIndex)
	if err != nil {
		log.Fatalf("failed to connect to store: %v", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := mongoStore.Close(closeCtx); err != nil {
			log.Printf("error closing store: %v", err)
		}
	}()

	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

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

	if err := service.Run(ctx); err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}

	log.Println("ingestion complete")
}
