package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/d0ren/climatesearch/internal/climate"
)

// MemoryStore is a concurrency-safe in-memory implementation of the climate
// store, used in tests and for running without a MongoDB deployment. Vector
// search is a brute-force cosine scan over embedded records.
type MemoryStore struct {
	mu sync.RWMutex

	// key: date formatted as 2006-01-02
	records map[string]*climate.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*climate.Record),
	}
}

func dateKey(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}

// UpsertDaily mirrors the document-store upsert semantics: one upsert per
// record keyed by date, counting a modification only when values actually
// change, and never touching an existing embedding.
func (s *MemoryStore) UpsertDaily(_ context.Context, records []climate.Record) (climate.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result climate.UpsertResult
	for _, rec := range records {
		key := dateKey(rec.Date)

		existing, ok := s.records[key]
		if !ok {
			stored := rec
			stored.Embedding = nil
			s.records[key] = &stored
			result.Upserted++
			continue
		}

		if sameValues(existing, &rec) {
			continue
		}
		existing.Temperature = rec.Temperature
		existing.Precipitation = rec.Precipitation
		existing.Humidity = rec.Humidity
		existing.Solar = rec.Solar
		existing.Location = rec.Location
		result.Modified++
	}
	return result, nil
}

// MissingEmbedding returns copies of all records without an embedding,
// ordered by date ascending.
func (s *MemoryStore) MissingEmbedding(_ context.Context) ([]climate.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []climate.Record
	for _, rec := range s.records {
		if rec.Embedding == nil {
			records = append(records, *rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}

func (s *MemoryStore) SetEmbedding(_ context.Context, date time.Time, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[dateKey(date)]
	if !ok {
		return fmt.Errorf("no record for date %s", dateKey(date))
	}
	rec.Embedding = append([]float32(nil), embedding...)
	return nil
}

// VectorSearch ranks embedded records by cosine similarity to the query
// vector, most-similar first, and projects the display fields. Records
// without an embedding are silently excluded.
func (s *MemoryStore) VectorSearch(_ context.Context, vector []float32, limit, _ int) ([]climate.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		rec   *climate.Record
		score float64
	}

	var candidates []scored
	for _, rec := range s.records {
		if rec.Embedding == nil {
			continue
		}
		candidates = append(candidates, scored{rec: rec, score: cosine(vector, rec.Embedding)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rec.Date.Before(candidates[j].rec.Date)
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	results := make([]climate.SearchResult, 0, limit)
	for _, c := range candidates[:limit] {
		results = append(results, climate.SearchResult{
			Date:          c.rec.Date,
			Temperature:   c.rec.Temperature,
			Precipitation: c.rec.Precipitation,
			Humidity:      c.rec.Humidity,
			Solar:         c.rec.Solar,
			Coordinates:   append([]float64(nil), c.rec.Location.Coordinates...),
		})
	}
	return results, nil
}

func (s *MemoryStore) Counts(_ context.Context) (total, embedded int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		total++
		if rec.Embedding != nil {
			embedded++
		}
	}
	return total, embedded, nil
}

func sameValues(a, b *climate.Record) bool {
	return eqPtr(a.Temperature, b.Temperature) &&
		eqPtr(a.Precipitation, b.Precipitation) &&
		eqPtr(a.Humidity, b.Humidity) &&
		eqPtr(a.Solar, b.Solar) &&
		samePoint(a.Location, b.Location)
}

func eqPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func samePoint(a, b climate.GeoPoint) bool {
	if a.Type != b.Type || len(a.Coordinates) != len(b.Coordinates) {
		return false
	}
	for i := range a.Coordinates {
		if a.Coordinates[i] != b.Coordinates[i] {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
