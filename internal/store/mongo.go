package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/d0ren/climatesearch/internal/climate"
)

// MongoStore persists climate records in a single MongoDB collection with a
// unique date index, a 2dsphere index on location, and an Atlas vector
// search index over the embedding field. One MongoStore is created at
// startup and passed into every operation; there is no hidden global client.
type MongoStore struct {
	client      *mongo.Client
	coll        *mongo.Collection
	vectorIndex string
}

// NewMongoStore connects to MongoDB and pings it to fail fast on a bad URI.
func NewMongoStore(ctx context.Context, uri, dbName, collName, vectorIndex string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoStore{
		client:      client,
		coll:        client.Database(dbName).Collection(collName),
		vectorIndex: vectorIndex,
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique date index and the 2dsphere location
// index. The vector search index is managed on the Atlas side and only
// referenced here by name.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
	})
	return err
}

// UpsertDaily writes all records in one bulk request, one upsert per record
// keyed by exact date. The batch is atomic per document, not as a whole.
// Existing embeddings are left untouched.
func (s *MongoStore) UpsertDaily(ctx context.Context, records []climate.Record) (climate.UpsertResult, error) {
	if len(records) == 0 {
		return climate.UpsertResult{}, nil
	}

	models := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		update := bson.M{"$set": bson.M{
			"temperature":   rec.Temperature,
			"precipitation": rec.Precipitation,
			"humidity":      rec.Humidity,
			"solar":         rec.Solar,
			"location":      rec.Location,
		}}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"date": rec.Date}).
			SetUpdate(update).
			SetUpsert(true))
	}

	res, err := s.coll.BulkWrite(ctx, models)
	if err != nil {
		return climate.UpsertResult{}, err
	}
	return climate.UpsertResult{
		Upserted: res.UpsertedCount,
		Modified: res.ModifiedCount,
	}, nil
}

// MissingEmbedding returns every record that has no embedding yet, ordered
// by date so backfill progress is deterministic.
func (s *MongoStore) MissingEmbedding(ctx context.Context) ([]climate.Record, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"embedding": bson.M{"$exists": false}},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var records []climate.Record
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SetEmbedding persists a single record's embedding immediately.
func (s *MongoStore) SetEmbedding(ctx context.Context, date time.Time, embedding []float32) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"date": date},
		bson.M{"$set": bson.M{"embedding": embedding}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no record for date %s", date.Format("2006-01-02"))
	}
	return nil
}

// VectorSearch runs an Atlas $vectorSearch over the embedding field and
// projects the display fields; the document id and the embedding itself
// never leave the store. Records without an embedding are excluded by the
// index itself.
func (s *MongoStore) VectorSearch(ctx context.Context, vector []float32, limit, numCandidates int) ([]climate.SearchResult, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.vectorIndex},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "limit", Value: limit},
			{Key: "numCandidates", Value: numCandidates},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "date", Value: 1},
			{Key: "temperature", Value: 1},
			{Key: "precipitation", Value: 1},
			{Key: "humidity", Value: 1},
			{Key: "solar", Value: 1},
			{Key: "coordinates", Value: "$location.coordinates"},
		}}},
	}

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var results []climate.SearchResult
	if err := cur.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Counts reports the total record count and how many are search-ready.
func (s *MongoStore) Counts(ctx context.Context) (total, embedded int64, err error) {
	total, err = s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, err
	}
	embedded, err = s.coll.CountDocuments(ctx, bson.M{"embedding": bson.M{"$exists": true}})
	if err != nil {
		return 0, 0, err
	}
	return total, embedded, nil
}
