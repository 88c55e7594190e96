package ratelimit

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
	rateLimitDatabase   = "rate_limits"
	rateLimitCollection = "requests"
)

// MongoStore persists window counters in the document store.
type MongoStore struct {
	db *storage.Mongo
}

// NewMongoStore creates a document-store backed counter store.
func NewMongoStore(db *storage.Mongo) *MongoStore {
	return &MongoStore{db: db}
}

// PurgeBefore deletes counters whose window started before cutoff.
func (s *MongoStore) PurgeBefore(ctx context.Context, cutoff time.Time) error {
	_, err := s.collection().DeleteMany(ctx, bson.M{"window": bson.M{"$lt": cutoff}})
	if err != nil {
		return fmt.Errorf("failed to purge rate-limit entries: %w", err)
	}
	return nil
}

// Get reads the counter for key, ignoring entries from expired windows.
func (s *MongoStore) Get(ctx context.Context, key string, since time.Time) (*Entry, error) {
	var e Entry
	err := s.collection().FindOne(ctx, bson.M{
		"_id":    key,
		"window": bson.M{"$gte": since},
	}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rate-limit entry: %w", err)
	}
	return &e, nil
}

// Put replaces the counter for its key, inserting when absent.
func (s *MongoStore) Put(ctx context.Context, e *Entry) error {
	_, err := s.collection().ReplaceOne(
		ctx,
		bson.M{"_id": e.Key},
		e,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to write rate-limit entry: %w", err)
	}
	return nil
}

func (s *MongoStore) collection() *mongo.Collection {
	return s.db.Collection(rateLimitDatabase, rateLimitCollection)
}
