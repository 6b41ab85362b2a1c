package climate

import (
	"context"
	"time"
)

// DailySeries is a provider's raw daily time series: variable code to
// per-day values, keyed by 8-digit YYYYMMDD date strings.
type DailySeries map[string]map[string]float64

// Provider abstracts the external daily climate data source (e.g. NASA POWER).
// The region, date range and variable list are fixed at construction time.
type Provider interface {
	Name() string
	FetchDaily(ctx context.Context) (DailySeries, error)
}

// Store is the contract the document store must satisfy: batched upsert by
// date, lookups for the backfill pass, vector similarity search, and the
// counts used for zero-result diagnostics.
type Store interface {
	UpsertDaily(ctx context.Context, records []Record) (UpsertResult, error)
	MissingEmbedding(ctx context.Context) ([]Record, error)
	SetEmbedding(ctx context.Context, date time.Time, embedding []float32) error
	VectorSearch(ctx context.Context, vector []float32, limit, numCandidates int) ([]SearchResult, error)
	Counts(ctx context.Context) (total, embedded int64, err error)
}

// Embedder produces fixed-dimension vectors for texts. Document and query
// embeddings must come from the same model to be comparable, so both methods
// belong to one implementation.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
