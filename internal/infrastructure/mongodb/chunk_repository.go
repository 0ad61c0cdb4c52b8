package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/mongodb"
)

// ChunkRepository implements domain.ChunkRepository using MongoDB
type ChunkRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

// NewChunkRepository creates a new ChunkRepository
func NewChunkRepository(client *mongodb.Client, m *metrics.Metrics) *ChunkRepository {
	collection := client.Database().Collection("chunks")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "chunkId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "batchId", Value: 1}, {Key: "chunkNumber", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "cartId", Value: 1}, {Key: "status", Value: 1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &ChunkRepository{
		collection: collection,
		metrics:    m,
	}
}

func (r *ChunkRepository) observe(operation string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.RecordMongoOperation("chunks", operation, time.Since(start), err)
	}
}

// Save inserts a new chunk
func (r *ChunkRepository) Save(ctx context.Context, chunk *domain.Chunk) error {
	start := time.Now()
	result, err := r.collection.InsertOne(ctx, chunk)
	r.observe("insertOne", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		chunk.ID = oid
	}

	return nil
}

// FindByChunkID finds a chunk by its chunk ID. Returns nil when absent.
func (r *ChunkRepository) FindByChunkID(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	start := time.Now()
	var chunk domain.Chunk
	err := r.collection.FindOne(ctx, bson.M{"chunkId": chunkID}).Decode(&chunk)
	if err == mongo.ErrNoDocuments {
		r.observe("findOne", start, nil)
		return nil, nil
	}
	r.observe("findOne", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find chunk: %w", err)
	}

	return &chunk, nil
}

// FindByBatchID finds all chunks of a batch ordered by chunk number
func (r *ChunkRepository) FindByBatchID(ctx context.Context, batchID string) ([]*domain.Chunk, error) {
	start := time.Now()
	opts := options.Find().SetSort(mongodb.SortAscending("chunkNumber"))

	cursor, err := r.collection.Find(ctx, bson.M{"batchId": batchID}, opts)
	r.observe("find", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find chunks: %w", err)
	}
	defer cursor.Close(ctx)

	var chunks []*domain.Chunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("failed to decode chunks: %w", err)
	}

	return chunks, nil
}

// FindByCartID finds the active chunk bound to a cart. Completed chunks are
// excluded so a recycled cart resumes the right work.
func (r *ChunkRepository) FindByCartID(ctx context.Context, cartID string) (*domain.Chunk, error) {
	start := time.Now()
	var chunk domain.Chunk
	err := r.collection.FindOne(ctx, bson.M{
		"cartId": cartID,
		"status": bson.M{"$ne": domain.ChunkStatusCompleted},
	}).Decode(&chunk)
	if err == mongo.ErrNoDocuments {
		r.observe("findOne", start, nil)
		return nil, nil
	}
	r.observe("findOne", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find chunk for cart: %w", err)
	}

	return &chunk, nil
}

// Update replaces the stored chunk document
func (r *ChunkRepository) Update(ctx context.Context, chunk *domain.Chunk) error {
	start := time.Now()
	result, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"chunkId": chunk.ChunkID},
		chunk,
	)
	r.observe("replaceOne", start, err)
	if err != nil {
		return fmt.Errorf("failed to update chunk: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("chunk not found: %s", chunk.ChunkID)
	}

	return nil
}
