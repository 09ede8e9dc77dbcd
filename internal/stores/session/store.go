package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const disconnectTimeout = 5 * time.Second

// Database is the narrow view of the document store the locator needs:
// field-equality queries and bounded collection scans
type Database interface {
	// CollectionNames lists the queryable collections of the database
	CollectionNames(ctx context.Context) ([]string, error)

	// Find returns every document in collection matching filter
	Find(ctx context.Context, collection string, filter any) ([]bson.M, error)

	// Scan returns up to limit documents from collection in natural order
	Scan(ctx context.Context, collection string, limit int64) ([]bson.M, error)
}

// MongoDatabase implements Database over a MongoDB connection
type MongoDatabase struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDatabase connects to MongoDB and verifies the connection with a ping
func NewMongoDatabase(ctx context.Context, uri, database string) (*MongoDatabase, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoDatabase{
		client: client,
		db:     client.Database(database),
	}, nil
}

// CollectionNames lists non-system collections in sorted order so that
// lookups visit them deterministically
func (m *MongoDatabase) CollectionNames(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	filtered := make([]string, 0, len(names))
	for _, name := range names {
		// system collections do not hold business data
		if strings.HasPrefix(name, "system.") {
			continue
		}
		filtered = append(filtered, name)
	}
	sort.Strings(filtered)
	return filtered, nil
}

// Find returns every document in collection matching filter
func (m *MongoDatabase) Find(ctx context.Context, collection string, filter any) ([]bson.M, error) {
	cursor, err := m.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents from %s: %w", collection, err)
	}
	return docs, nil
}

// Scan returns up to limit documents from collection in natural order
func (m *MongoDatabase) Scan(ctx context.Context, collection string, limit int64) ([]bson.M, error) {
	opts := options.Find().SetLimit(limit)
	cursor, err := m.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents from %s: %w", collection, err)
	}
	return docs, nil
}

// Close releases the underlying MongoDB client
func (m *MongoDatabase) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
