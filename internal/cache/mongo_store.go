package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"insight_gateway/internal/storage"
)

const (
	cacheDatabase   = "insights_cache"
	cacheCollection = "insights"
)

// MongoStore persists cache entries in the document store.
type MongoStore struct {
	db *storage.Mongo
}

// NewMongoStore creates a document-store backed cache store.
func NewMongoStore(db *storage.Mongo) *MongoStore {
	return &MongoStore{db: db}
}

// Get reads the entry for hash. Expiry is part of the query filter, not a
// comparison after the fact.
func (s *MongoStore) Get(ctx context.Context, hash string, now time.Time) (*Entry, error) {
	var e Entry
	err := s.collection().FindOne(ctx, bson.M{
		"_id":       hash,
		"expiresAt": bson.M{"$gt": now},
	}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return &e, nil
}

// Put replaces the entry for its hash so recomputation never leaves
// duplicates.
func (s *MongoStore) Put(ctx context.Context, e *Entry) error {
	_, err := s.collection().ReplaceOne(
		ctx,
		bson.M{"_id": e.Hash},
		e,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// DeleteExpired removes all entries past their expiry.
func (s *MongoStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.collection().DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	return result.DeletedCount, nil
}

func (s *MongoStore) collection() *mongo.Collection {
	return s.db.Collection(cacheDatabase, cacheCollection)
}
