package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrChunkNotFound       = errors.New("chunk not found")
	ErrOrderNotInChunk     = errors.New("order not found in chunk")
	ErrOrderAlreadyShipped = errors.New("order is already shipped")
	ErrChunkCompleted      = errors.New("chunk is already completed")
)

// ChunkStatus represents the lifecycle status of a chunk
type ChunkStatus string

const (
	ChunkStatusPicking   ChunkStatus = "PICKING"
	ChunkStatusPicked    ChunkStatus = "PICKED"
	ChunkStatusShipping  ChunkStatus = "SHIPPING"
	ChunkStatusEngraving ChunkStatus = "ENGRAVING"
	ChunkStatusCompleted ChunkStatus = "COMPLETED"
)

// OrderStatus represents the shipment-side status of a chunk order
type OrderStatus string

const (
	OrderStatusAwaitingShipment OrderStatus = "AWAITING_SHIPMENT"
	OrderStatusShipped          OrderStatus = "SHIPPED"
)

// OrderLineKind classifies a line item for verification eligibility
type OrderLineKind string

const (
	LineKindProduct   OrderLineKind = "product"
	LineKindInsurance OrderLineKind = "insurance"
	LineKindShipping  OrderLineKind = "shipping"
)

// OrderLine is one line item of a chunk order
type OrderLine struct {
	SKU                  string        `bson:"sku" json:"sku"`
	Name                 string        `bson:"name,omitempty" json:"name,omitempty"`
	Quantity             int           `bson:"quantity" json:"quantity"`
	Kind                 OrderLineKind `bson:"kind" json:"kind"`
	CustomizationBarcode string        `bson:"customizationBarcode,omitempty" json:"customizationBarcode,omitempty"`
}

// ChunkOrder is one order bound to a numbered bin on the cart
type ChunkOrder struct {
	OrderNumber    string      `bson:"orderNumber" json:"orderNumber"`
	BinNumber      int         `bson:"binNumber" json:"binNumber"`
	ShelfNumber    int         `bson:"shelfNumber,omitempty" json:"shelfNumber,omitempty"` // bulk mode; 0 = unset (legacy positional grouping)
	Status         OrderStatus `bson:"status" json:"status"`
	Lines          []OrderLine `bson:"lines" json:"lines"`
	TrackingNumber string      `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	LabelURL       string      `bson:"labelUrl,omitempty" json:"labelUrl,omitempty"`
	ShippedAt      *time.Time  `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
}

// ChunkBulkBatchAssignment binds one cart shelf (1..3) to a bulk sub-group
type ChunkBulkBatchAssignment struct {
	ShelfNumber    int                  `bson:"shelfNumber" json:"shelfNumber"`
	GroupSignature string               `bson:"groupSignature" json:"groupSignature"`
	OrderCount     int                  `bson:"orderCount" json:"orderCount"`
	SkuLayout      []BulkSkuLayoutEntry `bson:"skuLayout" json:"skuLayout"`
}

// EngravingProgress is the persisted snapshot of an engraving session.
// Item indices are positions in the personalized-only, bin-sorted sequence.
type EngravingProgress struct {
	CompletedItems []int `bson:"completedItems" json:"completedItems"`
	CurrentIndex   int   `bson:"currentIndex" json:"currentIndex"`
	TotalPausedMs  int64 `bson:"totalPausedMs" json:"totalPausedMs"`
}

// Chunk is the unit of work checked out to one physical cart
type Chunk struct {
	ID                primitive.ObjectID         `bson:"_id,omitempty"`
	ChunkID           string                     `bson:"chunkId"`
	BatchID           string                     `bson:"batchId"`
	CartID            string                     `bson:"cartId"`
	ChunkNumber       int                        `bson:"chunkNumber"`
	Status            ChunkStatus                `bson:"status"`
	PickingMode       BatchType                  `bson:"pickingMode"`
	IsPersonalized    bool                       `bson:"isPersonalized"`
	Orders            []ChunkOrder               `bson:"orders"`
	BulkAssignments   []ChunkBulkBatchAssignment `bson:"bulkAssignments,omitempty"`
	EngraverName      string                     `bson:"engraverName,omitempty"`
	EngravingProgress *EngravingProgress         `bson:"engravingProgress,omitempty"`
	CreatedAt         time.Time                  `bson:"createdAt"`
	UpdatedAt         time.Time                  `bson:"updatedAt"`
	CompletedAt       *time.Time                 `bson:"completedAt,omitempty"`
	DomainEvents      []DomainEvent              `bson:"-"`
}

// NewChunk creates a chunk binding a contiguous slice of a batch's orders to
// one cart. Orders arrive pre-sorted; bin numbers are assigned by the caller
// via the bin layout engine.
func NewChunk(batch *Batch, cartID string, chunkNumber int, orders []ChunkOrder) (*Chunk, error) {
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}

	now := time.Now().UTC()
	for i := range orders {
		if orders[i].Status == "" {
			orders[i].Status = OrderStatusAwaitingShipment
		}
	}

	chunk := &Chunk{
		ChunkID:        "CHUNK-" + uuid.New().String()[:8],
		BatchID:        batch.BatchID,
		CartID:         cartID,
		ChunkNumber:    chunkNumber,
		Status:         ChunkStatusPicking,
		PickingMode:    batch.Type,
		IsPersonalized: batch.IsPersonalized,
		Orders:         orders,
		CreatedAt:      now,
		UpdatedAt:      now,
		DomainEvents:   make([]DomainEvent, 0),
	}

	chunk.AddDomainEvent(&ChunkCheckedOutEvent{
		ChunkID:      chunk.ChunkID,
		BatchID:      batch.BatchID,
		CartID:       cartID,
		OrderCount:   len(orders),
		PickingMode:  string(batch.Type),
		CheckedOutAt: now,
	})

	return chunk, nil
}

// AssignBulkShelves binds shelf assignments for a BULK chunk
func (c *Chunk) AssignBulkShelves(assignments []ChunkBulkBatchAssignment) {
	c.BulkAssignments = assignments
	c.UpdatedAt = time.Now().UTC()
}

// FindOrder returns the chunk order with the given order number
func (c *Chunk) FindOrder(orderNumber string) (*ChunkOrder, error) {
	for i := range c.Orders {
		if c.Orders[i].OrderNumber == orderNumber {
			return &c.Orders[i], nil
		}
	}
	return nil, ErrOrderNotInChunk
}

// MarkPicked transitions the chunk out of the picking phase
func (c *Chunk) MarkPicked() error {
	if c.Status == ChunkStatusCompleted {
		return ErrChunkCompleted
	}
	c.Status = ChunkStatusPicked
	c.UpdatedAt = time.Now().UTC()

	c.AddDomainEvent(&ChunkPickedEvent{
		ChunkID:  c.ChunkID,
		BatchID:  c.BatchID,
		PickedAt: c.UpdatedAt,
	})
	return nil
}

// MarkOrderShipped transitions one order AWAITING_SHIPMENT -> SHIPPED.
// Shipping the same order twice is rejected so a bin cannot be
// double-shipped.
func (c *Chunk) MarkOrderShipped(orderNumber, trackingNumber, labelURL string) error {
	order, err := c.FindOrder(orderNumber)
	if err != nil {
		return err
	}
	if order.Status == OrderStatusShipped {
		return ErrOrderAlreadyShipped
	}

	now := time.Now().UTC()
	order.Status = OrderStatusShipped
	order.TrackingNumber = trackingNumber
	order.LabelURL = labelURL
	order.ShippedAt = &now
	c.UpdatedAt = now

	c.AddDomainEvent(&OrderShippedEvent{
		ChunkID:     c.ChunkID,
		BatchID:     c.BatchID,
		OrderNumber: orderNumber,
		BinNumber:   order.BinNumber,
		ShippedAt:   now,
	})

	return nil
}

// AllShipped reports whether every order in the chunk has shipped
func (c *Chunk) AllShipped() bool {
	for _, o := range c.Orders {
		if o.Status != OrderStatusShipped {
			return false
		}
	}
	return true
}

// ShippedCount returns the number of shipped orders
func (c *Chunk) ShippedCount() int {
	n := 0
	for _, o := range c.Orders {
		if o.Status == OrderStatusShipped {
			n++
		}
	}
	return n
}

// OrdersOnShelf returns the chunk's orders bound to the given shelf.
// Orders persisted with an explicit shelf number are grouped by it; legacy
// chunks fall back to positional offset grouping over the bin-sorted list.
func (c *Chunk) OrdersOnShelf(shelfNumber int) []ChunkOrder {
	result := make([]ChunkOrder, 0)

	explicit := true
	for _, o := range c.Orders {
		if o.ShelfNumber == 0 {
			explicit = false
			break
		}
	}

	if explicit {
		for _, o := range c.Orders {
			if o.ShelfNumber == shelfNumber {
				result = append(result, o)
			}
		}
		return result
	}

	offset := 0
	for _, a := range c.BulkAssignments {
		if a.ShelfNumber == shelfNumber {
			end := offset + a.OrderCount
			if end > len(c.Orders) {
				end = len(c.Orders)
			}
			if offset < end {
				result = append(result, c.Orders[offset:end]...)
			}
			return result
		}
		offset += a.OrderCount
	}
	return result
}

// AttachEngraver records the engraver working this chunk and initializes
// empty progress when none exists
func (c *Chunk) AttachEngraver(name string) {
	resumed := c.HasEngravingSession()
	c.EngraverName = name
	c.Status = ChunkStatusEngraving
	if c.EngravingProgress == nil {
		c.EngravingProgress = &EngravingProgress{
			CompletedItems: make([]int, 0),
		}
	}
	c.UpdatedAt = time.Now().UTC()

	c.AddDomainEvent(&EngravingStartedEvent{
		ChunkID:      c.ChunkID,
		EngraverName: name,
		Resumed:      resumed,
		StartedAt:    c.UpdatedAt,
	})
}

// HasEngravingSession reports whether an interrupted engraving session can
// be resumed
func (c *Chunk) HasEngravingSession() bool {
	return c.EngravingProgress != nil && c.EngraverName != ""
}

// RecordEngravedItem folds one completed item index into the persisted
// progress snapshot
func (c *Chunk) RecordEngravedItem(itemIndex int, totalPausedMs int64) {
	if c.EngravingProgress == nil {
		c.EngravingProgress = &EngravingProgress{CompletedItems: make([]int, 0)}
	}
	for _, idx := range c.EngravingProgress.CompletedItems {
		if idx == itemIndex {
			return
		}
	}
	c.EngravingProgress.CompletedItems = append(c.EngravingProgress.CompletedItems, itemIndex)
	if itemIndex >= c.EngravingProgress.CurrentIndex {
		c.EngravingProgress.CurrentIndex = itemIndex + 1
	}
	c.EngravingProgress.TotalPausedMs = totalPausedMs
	c.UpdatedAt = time.Now().UTC()
}

// CompleteEngraving tears down the persisted engraving state and records
// the session's final timing
func (c *Chunk) CompleteEngraving(activeSeconds, pausedSeconds, itemCount int) {
	c.ClearEngravingSession()
	c.AddDomainEvent(&EngravingCompletedEvent{
		ChunkID:       c.ChunkID,
		ActiveSeconds: activeSeconds,
		PausedSeconds: pausedSeconds,
		ItemCount:     itemCount,
		CompletedAt:   c.UpdatedAt,
	})
}

// ClearEngravingSession tears down the persisted engraving state
func (c *Chunk) ClearEngravingSession() {
	c.EngravingProgress = nil
	c.EngraverName = ""
	c.UpdatedAt = time.Now().UTC()
}

// Complete marks the chunk's shipping phase done
func (c *Chunk) Complete() error {
	if c.Status == ChunkStatusCompleted {
		return ErrChunkCompleted
	}

	now := time.Now().UTC()
	c.Status = ChunkStatusCompleted
	c.CompletedAt = &now
	c.UpdatedAt = now

	c.AddDomainEvent(&CartCompletedEvent{
		ChunkID:     c.ChunkID,
		BatchID:     c.BatchID,
		CartID:      c.CartID,
		OrderCount:  len(c.Orders),
		CompletedAt: now,
	})

	return nil
}

// AddDomainEvent adds a domain event
func (c *Chunk) AddDomainEvent(event DomainEvent) {
	c.DomainEvents = append(c.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (c *Chunk) ClearDomainEvents() {
	c.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (c *Chunk) GetDomainEvents() []DomainEvent {
	return c.DomainEvents
}
