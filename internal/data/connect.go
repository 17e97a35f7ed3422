package data

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Connect opens a MongoDB client and verifies the primary is reachable
// within connectTimeout.
func Connect(ctx context.Context, uri string, maxPoolSize uint64, connectTimeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(maxPoolSize).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, nil
}

// Open returns the models for driver ("mongo" or "memory") together with a
// function releasing the underlying connection. The MongoDB indexes are
// created before the models are handed out.
func Open(ctx context.Context, driver, uri, name string, maxPoolSize uint64, connectTimeout time.Duration) (Models, func(), error) {
	if driver == "memory" {
		return NewMemoryModels(), func() {}, nil
	}

	client, err := Connect(ctx, uri, maxPoolSize, connectTimeout)
	if err != nil {
		return Models{}, nil, err
	}

	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}

	db := client.Database(name)
	if err := EnsureIndexes(ctx, db); err != nil {
		closeFn()
		return Models{}, nil, err
	}

	return NewModels(db), closeFn, nil
}
