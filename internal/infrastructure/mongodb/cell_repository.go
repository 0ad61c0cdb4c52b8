package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/mongodb"
)

// CellRepository implements domain.CellRepository using MongoDB
type CellRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

// NewCellRepository creates a new CellRepository
func NewCellRepository(client *mongodb.Client, m *metrics.Metrics) *CellRepository {
	collection := client.Database().Collection("cells")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cellId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &CellRepository{
		collection: collection,
		metrics:    m,
	}
}

func (r *CellRepository) observe(operation string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.RecordMongoOperation("cells", operation, time.Since(start), err)
	}
}

// FindByCellID finds a cell by its cell ID. Returns nil when absent.
func (r *CellRepository) FindByCellID(ctx context.Context, cellID string) (*domain.PickCell, error) {
	start := time.Now()
	var cell domain.PickCell
	err := r.collection.FindOne(ctx, bson.M{"cellId": cellID}).Decode(&cell)
	if err == mongo.ErrNoDocuments {
		r.observe("findOne", start, nil)
		return nil, nil
	}
	r.observe("findOne", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find cell: %w", err)
	}

	return &cell, nil
}

// FindAll returns cells ordered by name
func (r *CellRepository) FindAll(ctx context.Context, activeOnly bool) ([]*domain.PickCell, error) {
	start := time.Now()

	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(mongodb.SortAscending("name"))

	cursor, err := r.collection.Find(ctx, filter, opts)
	r.observe("find", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find cells: %w", err)
	}
	defer cursor.Close(ctx)

	var cells []*domain.PickCell
	if err := cursor.All(ctx, &cells); err != nil {
		return nil, fmt.Errorf("failed to decode cells: %w", err)
	}

	return cells, nil
}
