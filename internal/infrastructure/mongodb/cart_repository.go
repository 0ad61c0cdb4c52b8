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

// CartRepository implements domain.CartRepository using MongoDB
type CartRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

// NewCartRepository creates a new CartRepository
func NewCartRepository(client *mongodb.Client, m *metrics.Metrics) *CartRepository {
	collection := client.Database().Collection("carts")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cartId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &CartRepository{
		collection: collection,
		metrics:    m,
	}
}

func (r *CartRepository) observe(operation string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.RecordMongoOperation("carts", operation, time.Since(start), err)
	}
}

// FindByCartID finds a cart by its cart ID. Returns nil when absent.
func (r *CartRepository) FindByCartID(ctx context.Context, cartID string) (*domain.PickCart, error) {
	start := time.Now()
	var cart domain.PickCart
	err := r.collection.FindOne(ctx, bson.M{"cartId": cartID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		r.observe("findOne", start, nil)
		return nil, nil
	}
	r.observe("findOne", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	return &cart, nil
}

// FindAll returns every cart ordered by name
func (r *CartRepository) FindAll(ctx context.Context) ([]*domain.PickCart, error) {
	return r.findMany(ctx, bson.M{})
}

// FindAvailable returns carts not checked out by any station
func (r *CartRepository) FindAvailable(ctx context.Context) ([]*domain.PickCart, error) {
	return r.findMany(ctx, bson.M{"status": domain.CartStatusAvailable})
}

func (r *CartRepository) findMany(ctx context.Context, filter bson.M) ([]*domain.PickCart, error) {
	start := time.Now()
	opts := options.Find().SetSort(mongodb.SortAscending("name"))

	cursor, err := r.collection.Find(ctx, filter, opts)
	r.observe("find", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find carts: %w", err)
	}
	defer cursor.Close(ctx)

	var carts []*domain.PickCart
	if err := cursor.All(ctx, &carts); err != nil {
		return nil, fmt.Errorf("failed to decode carts: %w", err)
	}

	return carts, nil
}

// Update replaces the stored cart document
func (r *CartRepository) Update(ctx context.Context, cart *domain.PickCart) error {
	start := time.Now()
	result, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"cartId": cart.CartID},
		cart,
	)
	r.observe("replaceOne", start, err)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrCartNotFound
	}

	return nil
}

// ClaimCart atomically flips an AVAILABLE cart to IN_USE. The conditional
// findOneAndUpdate is the store-level guard against two stations grabbing
// the same cart.
func (r *CartRepository) ClaimCart(ctx context.Context, cartID, workerName string, phase domain.WorkPhase) (*domain.PickCart, error) {
	start := time.Now()

	filter := bson.M{
		"cartId": cartID,
		"status": domain.CartStatusAvailable,
	}
	update := mongodb.BuildUpdateWithTimestamp(bson.M{
		"status":       domain.CartStatusInUse,
		"checkedOutBy": workerName,
		"phase":        phase,
	})
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var cart domain.PickCart
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		r.observe("findOneAndUpdate", start, nil)

		// Distinguish a missing cart from one another station holds
		existing, findErr := r.FindByCartID(ctx, cartID)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, domain.ErrCartNotFound
		}
		return nil, domain.ErrCartInUse
	}
	r.observe("findOneAndUpdate", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to claim cart: %w", err)
	}

	return &cart, nil
}
