package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// AppConfig holds everything the server and ingestor need: store and
// embedding endpoints from the environment, plus the ingestion request
// parameters from an environment-selected config file.
type AppConfig struct {
	MongoURI    string
	DBName      string
	Collection  string
	VectorIndex string

	PowerAPIBase   string
	EmbeddingURL   string
	EmbeddingModel string

	// HTTPTimeout bounds outbound provider and embedding calls.
	HTTPTimeout time.Duration

	// IngestInterval controls scheduled ingestion runs; 0 disables them.
	IngestInterval time.Duration

	Port string

	Ingestion IngestionConfig
}

// IngestionConfig mirrors the provider request: fixed region, date range,
// variable list, community and response format. Loaded from
// config/<env>.json where env is dev or prod.
type IngestionConfig struct {
	Community  string   `json:"community" validate:"required"`
	Region     Region   `json:"region"`
	Start      string   `json:"start" validate:"required,len=8,numeric"`
	End        string   `json:"end" validate:"required,len=8,numeric"`
	Parameters []string `json:"parameters" validate:"required,min=1"`
	Format     string   `json:"format" validate:"required"`
}

type Region struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Load reads configuration from the environment with sensible defaults and
// the ingestion config file selected by APP_ENV.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.MongoURI = getenvDefault("MONGODB_URI", "mongodb://localhost:27017")
	cfg.DBName = getenvDefault("DB_NAME", "climate_db")
	cfg.Collection = getenvDefault("DB_COLLECTION", "climates")
	cfg.VectorIndex = getenvDefault("VECTOR_INDEX", "vector_index")

	cfg.PowerAPIBase = os.Getenv("POWER_API_BASE")
	cfg.EmbeddingURL = os.Getenv("EMBEDDING_URL")
	cfg.EmbeddingModel = os.Getenv("EMBEDDING_MODEL")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Scheduled ingestion is off unless an interval is configured.
	intervalStr := getenvDefault("INGEST_INTERVAL", "0")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_INTERVAL: %w", err)
	}
	cfg.IngestInterval = interval

	cfg.Port = getenvDefault("PORT", "8080")

	ing, err := loadIngestionConfig()
	if err != nil {
		return nil, err
	}
	cfg.Ingestion = ing

	return cfg, nil
}

// loadIngestionConfig picks dev or prod based on APP_ENV and loads the
// matching JSON file from the config directory.
func loadIngestionConfig() (IngestionConfig, error) {
	env := "dev"
	if getenvDefault("APP_ENV", "") == "production" {
		env = "prod"
	}

	dir := getenvDefault("CONFIG_DIR", "config")
	path := filepath.Join(dir, env+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return IngestionConfig{}, fmt.Errorf("read ingestion config %s: %w", path, err)
	}

	var ing IngestionConfig
	if err := json.Unmarshal(data, &ing); err != nil {
		return IngestionConfig{}, fmt.Errorf("parse ingestion config %s: %w", path, err)
	}

	if err := validate.Struct(ing); err != nil {
		return IngestionConfig{}, fmt.Errorf("invalid ingestion config %s: %w", path, err)
	}

	return ing, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
