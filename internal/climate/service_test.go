package climate_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d0ren/climatesearch/internal/climate"
	"github.com/d0ren/climatesearch/internal/store"
)

type fakeProvider struct {
	series climate.DailySeries
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchDaily(_ context.Context) (climate.DailySeries, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

type fakeEmbedder struct {
	vector     []float32
	failOn     string // fail any text containing this substring
	docCalls   int
	queryCalls int
}

func (f *fakeEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	f.docCalls++
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding service unavailable")
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.queryCalls++
	return f.vector, nil
}

// countingStore wraps a Store and counts calls per operation.
type countingStore struct {
	inner climate.Store

	upsertCalls       int
	missingCalls      int
	setEmbeddingCalls int
	vectorSearchCalls int
	countsCalls       int
}

func (c *countingStore) UpsertDaily(ctx context.Context, records []climate.Record) (climate.UpsertResult, error) {
	c.upsertCalls++
	return c.inner.UpsertDaily(ctx, records)
}

func (c *countingStore) MissingEmbedding(ctx context.Context) ([]climate.Record, error) {
	c.missingCalls++
	return c.inner.MissingEmbedding(ctx)
}

func (c *countingStore) SetEmbedding(ctx context.Context, date time.Time, embedding []float32) error {
	c.setEmbeddingCalls++
	return c.inner.SetEmbedding(ctx, date, embedding)
}

func (c *countingStore) VectorSearch(ctx context.Context, vector []float32, limit, numCandidates int) ([]climate.SearchResult, error) {
	c.vectorSearchCalls++
	return c.inner.VectorSearch(ctx, vector, limit, numCandidates)
}

func (c *countingStore) Counts(ctx context.Context) (int64, int64, error) {
	c.countsCalls++
	return c.inner.Counts(ctx)
}

func seriesForDays(days int) climate.DailySeries {
	temps := make(map[string]float64, days)
	precip := make(map[string]float64, days)
	for i := 0; i < days; i++ {
		key := fmt.Sprintf("202301%02d", i+1)
		temps[key] = 4.0 + float64(i)
		precip[key] = 0.5 * float64(i)
	}
	return climate.DailySeries{
		climate.VarTemperature:   temps,
		climate.VarPrecipitation: precip,
	}
}

func day(d int) time.Time {
	return time.Date(2023, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestIngestThreeDayScenario(t *testing.T) {
	memStore := store.NewMemoryStore()
	provider := &fakeProvider{series: seriesForDays(3)}
	svc := climate.NewService(provider, memStore, &fakeEmbedder{}, climate.NewPoint(-95.7129, 37.0902))

	result, err := svc.Ingest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Upserted)
	assert.Equal(t, int64(0), result.Modified)

	total, _, err := memStore.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	missing, err := memStore.MissingEmbedding(context.Background())
	require.NoError(t, err)
	require.Len(t, missing, 3)
	for _, rec := range missing {
		require.NotNil(t, rec.Temperature)
		require.NotNil(t, rec.Precipitation)
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	memStore := store.NewMemoryStore()
	provider := &fakeProvider{series: seriesForDays(3)}
	svc := climate.NewService(provider, memStore, &fakeEmbedder{}, climate.NewPoint(-95.7129, 37.0902))

	_, err := svc.Ingest(context.Background())
	require.NoError(t, err)

	// Identical provider output: no new records, no modifications.
	result, err := svc.Ingest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Upserted)
	assert.Equal(t, int64(0), result.Modified)

	total, _, err := memStore.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestIngestAbortsOnProviderError(t *testing.T) {
	counting := &countingStore{inner: store.NewMemoryStore()}
	provider := &fakeProvider{err: errors.New("connection refused")}
	svc := climate.NewService(provider, counting, &fakeEmbedder{}, climate.NewPoint(0, 0))

	_, err := svc.Ingest(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, counting.upsertCalls)
}

func TestBackfillProcessesOnlyMissingRecords(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	provider := &fakeProvider{series: seriesForDays(10)}
	svc := climate.NewService(provider, memStore, embedder, climate.NewPoint(0, 0))

	_, err := svc.Ingest(ctx)
	require.NoError(t, err)

	// Pretend 6 of the 10 were embedded by an earlier run.
	for d := 1; d <= 6; d++ {
		require.NoError(t, memStore.SetEmbedding(ctx, day(d), []float32{1, 0}))
	}

	result, err := svc.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Missing)
	assert.Equal(t, 4, result.Embedded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 4, embedder.docCalls)

	total, embedded, err := memStore.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, int64(10), embedded)
}

func TestBackfillSecondRunPerformsNoWrites(t *testing.T) {
	ctx := context.Background()
	counting := &countingStore{inner: store.NewMemoryStore()}
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	provider := &fakeProvider{series: seriesForDays(4)}
	svc := climate.NewService(provider, counting, embedder, climate.NewPoint(0, 0))

	_, err := svc.Ingest(ctx)
	require.NoError(t, err)

	_, err = svc.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, embedder.docCalls)
	assert.Equal(t, 4, counting.setEmbeddingCalls)

	result, err := svc.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Missing)
	assert.Equal(t, 4, embedder.docCalls)
	assert.Equal(t, 4, counting.setEmbeddingCalls)
}

func TestBackfillIsolatesPerRecordFailures(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	provider := &fakeProvider{series: seriesForDays(10)}
	// One of the four remaining records fails at the embedding service.
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}, failOn: "January 9, 2023"}
	svc := climate.NewService(provider, memStore, embedder, climate.NewPoint(0, 0))

	_, err := svc.Ingest(ctx)
	require.NoError(t, err)
	for d := 1; d <= 6; d++ {
		require.NoError(t, memStore.SetEmbedding(ctx, day(d), []float32{1, 0}))
	}

	result, err := svc.Backfill(ctx)
	require.NoError(t, err, "a per-record failure must not escape the run")
	assert.Equal(t, 4, result.Missing)
	assert.Equal(t, 3, result.Embedded)
	assert.Equal(t, 1, result.Failed)

	total, embedded, err := memStore.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, int64(9), embedded)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	counting := &countingStore{inner: store.NewMemoryStore()}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	svc := climate.NewService(&fakeProvider{}, counting, embedder, climate.NewPoint(0, 0))

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := svc.Search(context.Background(), query, 5)
		assert.ErrorIs(t, err, climate.ErrEmptyQuery)
	}

	// No embedding or store call happens for rejected queries.
	assert.Equal(t, 0, embedder.queryCalls)
	assert.Equal(t, 0, counting.vectorSearchCalls)
}

func TestSearchRanksBySimilarityAndLimits(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	provider := &fakeProvider{series: seriesForDays(3)}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	svc := climate.NewService(provider, memStore, embedder, climate.NewPoint(-95.7129, 37.0902))

	_, err := svc.Ingest(ctx)
	require.NoError(t, err)

	// Day 2 is closest to the query vector, then day 3, then day 1.
	require.NoError(t, memStore.SetEmbedding(ctx, day(1), []float32{0, 1}))
	require.NoError(t, memStore.SetEmbedding(ctx, day(2), []float32{1, 0}))
	require.NoError(t, memStore.SetEmbedding(ctx, day(3), []float32{0.7, 0.7}))

	results, err := svc.Search(ctx, "hottest day", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Date.Equal(day(2)))
	assert.True(t, results[1].Date.Equal(day(3)))

	// Projection carries coordinates in [lon, lat] order.
	require.Len(t, results[0].Coordinates, 2)
	assert.Equal(t, -95.7129, results[0].Coordinates[0])
	assert.Equal(t, 37.0902, results[0].Coordinates[1])
}

func TestSearchDefaultTopK(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	provider := &fakeProvider{series: seriesForDays(9)}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	svc := climate.NewService(provider, memStore, embedder, climate.NewPoint(0, 0))

	_, err := svc.Ingest(ctx)
	require.NoError(t, err)
	for d := 1; d <= 9; d++ {
		require.NoError(t, memStore.SetEmbedding(ctx, day(d), []float32{1, float32(d) / 10}))
	}

	results, err := svc.Search(ctx, "rainy week", 0)
	require.NoError(t, err)
	assert.Len(t, results, climate.DefaultTopK)
}

func TestSearchZeroResultsComputesDiagnostics(t *testing.T) {
	ctx := context.Background()
	counting := &countingStore{inner: store.NewMemoryStore()}
	provider := &fakeProvider{series: seriesForDays(2)}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	svc := climate.NewService(provider, counting, embedder, climate.NewPoint(0, 0))

	// Records exist but none are embedded, so the collection is not
	// search-ready and the store returns nothing.
	_, err := svc.Ingest(ctx)
	require.NoError(t, err)

	results, err := svc.Search(ctx, "warm and dry", 5)
	require.NoError(t, err, "zero matches is a valid empty response, not an error")
	assert.Empty(t, results)
	assert.Equal(t, 1, counting.countsCalls)
}
