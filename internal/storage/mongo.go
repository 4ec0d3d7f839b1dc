package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shelfcheck/internal/types"
)

// MongoStorage appends run results to a MongoDB collection, one document
// per record, stamped with the run time.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStorage connects to MongoDB and verifies the connection.
func NewMongoStorage(uri, database, collection string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) Store(records []types.BookAvailability) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = map[string]any{
			"title":     r.Title,
			"author":    r.Author,
			"isbn":      r.ISBN,
			"library":   r.Library,
			"available": r.Available,
			"format":    string(r.Format),
			"branch":    r.Branch,
			"run_at":    now,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("insert: %w", err)}
	}

	s.count += len(records)
	s.logger.Debug("records stored in mongodb", "count", len(records), "total", s.count)
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_records", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return &types.StorageError{Backend: "mongodb", Err: err}
	}
	return nil
}
