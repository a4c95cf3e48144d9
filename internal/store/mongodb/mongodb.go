package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// record is one key/value document. The store key doubles as the Mongo _id.
type record struct {
	Key   string `bson:"_id"`
	Value []byte `bson:"value"`
}

// Store persists record-store keys in a single MongoDB collection.
type Store struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// New connects to MongoDB and verifies the connection with a ping.
func New(ctx context.Context, uri string, dbName string) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{
		client:   client,
		dbName:   dbName,
		collName: "records",
	}, nil
}

func (s *Store) collection() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(s.collName)
}

// Get returns the stored value and whether the key exists.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc record
	err := s.collection().FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mongodb find %s: %w", key, err)
	}
	return doc.Value, true, nil
}

// Set stores value under key, replacing any prior value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection().ReplaceOne(ctx, bson.M{"_id": key}, record{Key: key, Value: value}, opts)
	if err != nil {
		return fmt.Errorf("mongodb upsert %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.collection().DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongodb delete %s: %w", key, err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
