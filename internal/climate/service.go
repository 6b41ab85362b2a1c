package climate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

const (
	// DefaultTopK is the number of search results returned when the caller
	// does not ask for a specific count.
	DefaultTopK = 5

	// DefaultNumCandidates is the approximate-search candidate pool handed
	// to the store. Larger pools improve recall at some latency cost; the
	// pool is always at least the requested limit.
	DefaultNumCandidates = 100
)

// ErrEmptyQuery is returned by Search for missing or blank query text.
// Callers should map it to a client error.
var ErrEmptyQuery = errors.New("query must not be empty")

// Service orchestrates the ingestion and search pipelines over a provider,
// a document store and an embedding service. All pipelines are strictly
// sequential; the only concurrency is independent search requests at the
// transport layer, which share no mutable state here.
type Service struct {
	provider Provider
	store    Store
	embedder Embedder
	location GeoPoint
}

// NewService creates a new Service. The location is attached to every
// ingested record.
func NewService(provider Provider, store Store, embedder Embedder, location GeoPoint) *Service {
	return &Service{
		provider: provider,
		store:    store,
		embedder: embedder,
		location: location,
	}
}

// Ingest fetches the provider's daily series, reshapes it into per-day
// records and upserts them in a single batch keyed by date. Any provider or
// store error aborts the run; partial batches are not rolled back (the store
// upsert is atomic per document, not as a whole). Re-running with identical
// provider output is a no-op.
func (s *Service) Ingest(ctx context.Context) (UpsertResult, error) {
	series, err := s.provider.FetchDaily(ctx)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("fetch from %s: %w", s.provider.Name(), err)
	}

	records, err := Reshape(series, s.location)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("reshape %s series: %w", s.provider.Name(), err)
	}
	if len(records) == 0 {
		log.Printf("ingest: provider %s returned no records", s.provider.Name())
		return UpsertResult{}, nil
	}

	result, err := s.store.UpsertDaily(ctx, records)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert %d records: %w", len(records), err)
	}
	log.Printf("ingest: %d records prepared, %d upserted, %d modified", len(records), result.Upserted, result.Modified)
	return result, nil
}

// Backfill embeds every record that is still missing an embedding, one at a
// time, persisting each vector immediately. A failure on one record is
// logged with its date and the loop continues; the pass is idempotent and
// safely resumable, and never touches a record that already has an
// embedding.
func (s *Service) Backfill(ctx context.Context) (BackfillResult, error) {
	records, err := s.store.MissingEmbedding(ctx)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("find records missing embedding: %w", err)
	}

	result := BackfillResult{Missing: len(records)}
	for _, rec := range records {
		day := rec.Date.Format("2006-01-02")

		vector, err := s.embedder.EmbedDocument(ctx, DescribeRecord(rec))
		if err != nil {
			log.Printf("backfill: embedding failed for %s: %v", day, err)
			result.Failed++
			continue
		}
		if err := s.store.SetEmbedding(ctx, rec.Date, vector); err != nil {
			log.Printf("backfill: persisting embedding failed for %s: %v", day, err)
			result.Failed++
			continue
		}
		result.Embedded++
	}

	if result.Missing > 0 {
		log.Printf("backfill: %d missing, %d embedded, %d failed", result.Missing, result.Embedded, result.Failed)
	}
	return result, nil
}

// Run executes the full ingestion pipeline: fetch and upsert, then the
// embedding backfill pass.
func (s *Service) Run(ctx context.Context) error {
	if _, err := s.Ingest(ctx); err != nil {
		return err
	}
	if _, err := s.Backfill(ctx); err != nil {
		return err
	}
	return nil
}

// Search embeds the query text and returns at most topK records ranked
// most-similar first by the store. topK <= 0 selects DefaultTopK. Blank
// queries fail with ErrEmptyQuery before any embedding or store call.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	numCandidates := DefaultNumCandidates
	if numCandidates < topK {
		numCandidates = topK
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.VectorSearch(ctx, vector, topK, numCandidates)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	if len(results) == 0 {
		// Distinguish "nothing similar" from "collection not search-ready".
		total, embedded, err := s.store.Counts(ctx)
		if err != nil {
			log.Printf("search: zero results, diagnostics unavailable: %v", err)
		} else {
			log.Printf("search: zero results (%d records total, %d with embeddings)", total, embedded)
		}
	}
	return results, nil
}
