package monitoring

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"insight_gateway/internal/storage"
)

const (
	monitoringDatabase   = "monitoring"
	monitoringCollection = "requests"
	recentLimit          = 20
)

// MongoStore persists request logs in the document store.
type MongoStore struct {
	db *storage.Mongo
}

// NewMongoStore creates a document-store backed request log store.
func NewMongoStore(db *storage.Mongo) *MongoStore {
	return &MongoStore{db: db}
}

// InsertMany appends a batch of entries.
func (s *MongoStore) InsertMany(ctx context.Context, entries []RequestLog) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = e
	}

	if _, err := s.collection().InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert log entries: %w", err)
	}
	return nil
}

// Aggregate summarizes the trailing window with a handful of queries plus a
// group-by-provider pipeline.
func (s *MongoStore) Aggregate(ctx context.Context, since time.Time) (*WindowAggregate, error) {
	coll := s.collection()
	windowFilter := bson.M{"timestamp": bson.M{"$gte": since}}

	total, err := coll.CountDocuments(ctx, windowFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count log entries: %w", err)
	}

	agg := &WindowAggregate{Total: total, ProviderUsage: map[string]int64{}}

	// Successes with their summed response time
	successCursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gte": since}, "success": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"count":    bson.M{"$sum": 1},
			"duration": bson.M{"$sum": "$responseTime"},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate successes: %w", err)
	}
	var successRows []struct {
		Count    int64 `bson:"count"`
		Duration int64 `bson:"duration"`
	}
	if err := successCursor.All(ctx, &successRows); err != nil {
		return nil, fmt.Errorf("failed to decode success aggregation: %w", err)
	}
	if len(successRows) > 0 {
		agg.Successes = successRows[0].Count
		agg.SuccessDuration = successRows[0].Duration
	}

	// Usage grouped by the literal provider string recorded at log time
	usageCursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: windowFilter}},
		{{Key: "$group", Value: bson.M{"_id": "$provider", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate provider usage: %w", err)
	}
	var usageRows []struct {
		Provider string `bson:"_id"`
		Count    int64  `bson:"count"`
	}
	if err := usageCursor.All(ctx, &usageRows); err != nil {
		return nil, fmt.Errorf("failed to decode usage aggregation: %w", err)
	}
	for _, row := range usageRows {
		agg.ProviderUsage[row.Provider] = row.Count
	}

	recentCursor, err := coll.Find(ctx, windowFilter,
		options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(recentLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent entries: %w", err)
	}
	if err := recentCursor.All(ctx, &agg.Recent); err != nil {
		return nil, fmt.Errorf("failed to decode recent entries: %w", err)
	}

	return agg, nil
}

// DeleteBefore removes entries older than cutoff.
func (s *MongoStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.collection().DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old log entries: %w", err)
	}
	return result.DeletedCount, nil
}

func (s *MongoStore) collection() *mongo.Collection {
	return s.db.Collection(monitoringDatabase, monitoringCollection)
}
