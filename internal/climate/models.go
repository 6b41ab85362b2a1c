package climate

import "time"

// GeoPoint is a GeoJSON point. Coordinates are always [longitude, latitude],
// matching the 2dsphere index convention; reversing them silently corrupts
// every geospatial query.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewPoint builds a GeoPoint from a longitude/latitude pair.
func NewPoint(lon, lat float64) GeoPoint {
	return GeoPoint{
		Type:        "Point",
		Coordinates: []float64{lon, lat},
	}
}

// Record is one day of climate measurements at a fixed geographic point.
// Measurement fields are nil when the provider had no value for that day.
// The date is the upsert key: midnight UTC, unique per record.
type Record struct {
	Date          time.Time `bson:"date" json:"date"`
	Temperature   *float64  `bson:"temperature" json:"temperature"`
	Precipitation *float64  `bson:"precipitation" json:"precipitation"`
	Humidity      *float64  `bson:"humidity" json:"humidity"`
	Solar         *float64  `bson:"solar" json:"solar"`
	Location      GeoPoint  `bson:"location" json:"location"`

	// Embedding is absent until the backfill pass has processed the record.
	// A record without it is excluded from vector search but still exists
	// for raw queries.
	Embedding []float32 `bson:"embedding,omitempty" json:"-"`
}

// SearchResult is the projected view returned to search callers. It never
// carries the embedding vector or the document id.
type SearchResult struct {
	Date          time.Time `bson:"date" json:"date"`
	Temperature   *float64  `bson:"temperature" json:"temperature"`
	Precipitation *float64  `bson:"precipitation" json:"precipitation"`
	Humidity      *float64  `bson:"humidity" json:"humidity"`
	Solar         *float64  `bson:"solar" json:"solar"`
	Coordinates   []float64 `bson:"coordinates" json:"coordinates"`
}

// UpsertResult reports how a batched upsert landed. Upserted counts newly
// created records, Modified counts existing records whose values changed;
// re-ingesting identical data yields zero for both.
type UpsertResult struct {
	Upserted int64 `json:"upserted"`
	Modified int64 `json:"modified"`
}

// BackfillResult summarizes one embedding-backfill pass.
type BackfillResult struct {
	Missing  int `json:"missing"`
	Embedded int `json:"embedded"`
	Failed   int `json:"failed"`
}
