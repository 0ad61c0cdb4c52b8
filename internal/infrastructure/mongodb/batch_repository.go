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

// BatchRepository implements domain.BatchRepository using MongoDB.
// DeleteCascade and ResetAll run transactionally because they touch the
// batches, chunks, orders and carts collections together.
type BatchRepository struct {
	client     *mongodb.Client
	collection *mongo.Collection
	chunks     *mongo.Collection
	orders     *mongo.Collection
	carts      *mongo.Collection
	metrics    *metrics.Metrics
}

// NewBatchRepository creates a new BatchRepository
func NewBatchRepository(client *mongodb.Client, m *metrics.Metrics) *BatchRepository {
	db := client.Database()
	collection := db.Collection("batches")

	// Create indexes
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "batchId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "cellAssignments.cellId", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "isPersonalized", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &BatchRepository{
		client:     client,
		collection: collection,
		chunks:     db.Collection("chunks"),
		orders:     db.Collection("orders"),
		carts:      db.Collection("carts"),
		metrics:    m,
	}
}

func (r *BatchRepository) observe(operation string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.RecordMongoOperation("batches", operation, time.Since(start), err)
	}
}

// Save inserts a new batch
func (r *BatchRepository) Save(ctx context.Context, batch *domain.Batch) error {
	start := time.Now()
	result, err := r.collection.InsertOne(ctx, batch)
	r.observe("insertOne", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		batch.ID = oid
	}

	return nil
}

// FindByBatchID finds a batch by its batch ID. Returns nil when absent.
func (r *BatchRepository) FindByBatchID(ctx context.Context, batchID string) (*domain.Batch, error) {
	start := time.Now()
	var batch domain.Batch
	err := r.collection.FindOne(ctx, bson.M{"batchId": batchID}).Decode(&batch)
	if err == mongo.ErrNoDocuments {
		r.observe("findOne", start, nil)
		return nil, nil
	}
	r.observe("findOne", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find batch: %w", err)
	}

	return &batch, nil
}

// FindByCell finds batches assigned to a cell
func (r *BatchRepository) FindByCell(ctx context.Context, cellID string, includeCompleted bool) ([]*domain.Batch, error) {
	filter := bson.M{"cellAssignments.cellId": cellID}
	if !includeCompleted {
		filter["status"] = bson.M{"$ne": domain.BatchStatusCompleted}
	}
	return r.findMany(ctx, filter)
}

// FindPersonalizedPool finds personalized batches not assigned to any cell
func (r *BatchRepository) FindPersonalizedPool(ctx context.Context, includeCompleted bool) ([]*domain.Batch, error) {
	filter := bson.M{
		"isPersonalized":  true,
		"cellAssignments": bson.M{"$size": 0},
	}
	if !includeCompleted {
		filter["status"] = bson.M{"$ne": domain.BatchStatusCompleted}
	}
	return r.findMany(ctx, filter)
}

// FindAll returns every batch
func (r *BatchRepository) FindAll(ctx context.Context) ([]*domain.Batch, error) {
	return r.findMany(ctx, bson.M{})
}

func (r *BatchRepository) findMany(ctx context.Context, filter bson.M) ([]*domain.Batch, error) {
	start := time.Now()
	opts := options.Find().SetSort(mongodb.SortAscending("createdAt"))

	cursor, err := r.collection.Find(ctx, filter, opts)
	r.observe("find", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find batches: %w", err)
	}
	defer cursor.Close(ctx)

	var batches []*domain.Batch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, fmt.Errorf("failed to decode batches: %w", err)
	}

	return batches, nil
}

// Update replaces the stored batch document
func (r *BatchRepository) Update(ctx context.Context, batch *domain.Batch) error {
	start := time.Now()
	result, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"batchId": batch.BatchID},
		batch,
	)
	r.observe("replaceOne", start, err)
	if err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("batch not found: %s", batch.BatchID)
	}

	return nil
}

// DeleteCascade removes the batch and its chunks and unlinks the batch's
// orders in one transaction. Orders are never deleted, only detached.
func (r *BatchRepository) DeleteCascade(ctx context.Context, batchID string) (domain.DeleteCounts, error) {
	start := time.Now()

	result, err := r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		counts := domain.DeleteCounts{}

		unlinked, err := r.orders.UpdateMany(sessCtx,
			bson.M{"batchId": batchID},
			bson.M{"$unset": bson.M{"batchId": "", "chunkId": "", "binNumber": ""}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to unlink orders: %w", err)
		}
		counts.OrdersUnlinked = int(unlinked.ModifiedCount)

		chunks, err := r.chunks.DeleteMany(sessCtx, bson.M{"batchId": batchID})
		if err != nil {
			return nil, fmt.Errorf("failed to delete chunks: %w", err)
		}
		counts.Chunks = int(chunks.DeletedCount)

		batches, err := r.collection.DeleteMany(sessCtx, bson.M{"batchId": batchID})
		if err != nil {
			return nil, fmt.Errorf("failed to delete batch: %w", err)
		}
		counts.Batches = int(batches.DeletedCount)

		return counts, nil
	})

	r.observe("deleteCascade", start, err)
	if err != nil {
		return domain.DeleteCounts{}, err
	}

	return result.(domain.DeleteCounts), nil
}

// ResetAll detaches every order, removes all batches and chunks, and returns
// every cart to AVAILABLE. Idempotent.
func (r *BatchRepository) ResetAll(ctx context.Context) (domain.ResetCounts, error) {
	start := time.Now()

	result, err := r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		counts := domain.ResetCounts{}

		unlinked, err := r.orders.UpdateMany(sessCtx,
			bson.M{"batchId": bson.M{"$exists": true}},
			bson.M{"$unset": bson.M{"batchId": "", "chunkId": "", "binNumber": ""}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to unlink orders: %w", err)
		}
		counts.OrdersUnlinked = int(unlinked.ModifiedCount)

		chunks, err := r.chunks.DeleteMany(sessCtx, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("failed to delete chunks: %w", err)
		}
		counts.Chunks = int(chunks.DeletedCount)

		batches, err := r.collection.DeleteMany(sessCtx, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("failed to delete batches: %w", err)
		}
		counts.Batches = int(batches.DeletedCount)

		carts, err := r.carts.UpdateMany(sessCtx,
			bson.M{"status": domain.CartStatusInUse},
			bson.M{
				"$set": bson.M{
					"status":    domain.CartStatusAvailable,
					"updatedAt": time.Now().UTC(),
				},
				"$unset": bson.M{"checkedOutBy": "", "phase": "", "chunkId": ""},
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to reset carts: %w", err)
		}
		counts.CartsReset = int(carts.ModifiedCount)

		return counts, nil
	})

	r.observe("resetAll", start, err)
	if err != nil {
		return domain.ResetCounts{}, err
	}

	return result.(domain.ResetCounts), nil
}
