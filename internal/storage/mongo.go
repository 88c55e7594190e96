package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"insight_gateway/internal/config"
)

// Mongo wraps a shared document store client. It is constructed once at
// process start and passed into every component that needs persistence, so
// the connection pool is reused across requests.
type Mongo struct {
	client *mongo.Client
}

// NewMongo connects to the document store. Returns ErrNotConfigured when no
// URI is set so callers can select their fallback path at startup.
func NewMongo(ctx context.Context, cfg config.MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, ErrNotConfigured
	}

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetRetryWrites(true).
		SetRetryReads(true)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("document store ping failed: %w", err)
	}

	return &Mongo{client: client}, nil
}

// Ping probes liveness of the connection.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Collection returns a handle for the given database and collection.
func (m *Mongo) Collection(database, collection string) *mongo.Collection {
	return m.client.Database(database).Collection(collection)
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
