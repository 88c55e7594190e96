package settings

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"insight_gateway/internal/storage"
)

const (
	settingsDatabase   = "settings"
	settingsCollection = "provider"
	settingsDocID      = "provider-settings"
)

// MongoRepository stores the settings singleton as a single document with a
// fixed _id, replaced wholesale on every save.
type MongoRepository struct {
	db *storage.Mongo
}

// NewMongoRepository creates a document-store settings repository.
func NewMongoRepository(db *storage.Mongo) *MongoRepository {
	return &MongoRepository{db: db}
}

type settingsDoc struct {
	ID string `bson:"_id"`
	ProviderSettings `bson:",inline"`
}

// Load reads the settings document. A liveness probe runs first so a dead
// connection degrades quickly instead of hanging on the query.
func (r *MongoRepository) Load(ctx context.Context) (*ProviderSettings, error) {
	if err := r.db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("document store unreachable: %w", err)
	}

	var doc settingsDoc
	err := r.collection().FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return &doc.ProviderSettings, nil
}

// Save replaces the settings document, creating it if absent.
func (r *MongoRepository) Save(ctx context.Context, s *ProviderSettings) error {
	doc := settingsDoc{ID: settingsDocID, ProviderSettings: *s}
	_, err := r.collection().ReplaceOne(
		ctx,
		bson.M{"_id": settingsDocID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

func (r *MongoRepository) collection() *mongo.Collection {
	return r.db.Collection(settingsDatabase, settingsCollection)
}
