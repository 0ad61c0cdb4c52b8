package domain

import "time"

// DomainEvent is implemented by all fulfillment domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// BatchCreatedEvent is emitted when a batch is created
type BatchCreatedEvent struct {
	BatchID     string    `json:"batchId"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	TotalOrders int       `json:"totalOrders"`
	CellIDs     []string  `json:"cellIds"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e *BatchCreatedEvent) EventType() string     { return "fulfillment.batch.created" }
func (e *BatchCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// BatchReorderedEvent is emitted when a batch's cell priority changes
type BatchReorderedEvent struct {
	BatchID     string    `json:"batchId"`
	CellID      string    `json:"cellId"`
	NewPriority int       `json:"newPriority"`
	ReorderedAt time.Time `json:"reorderedAt"`
}

func (e *BatchReorderedEvent) EventType() string     { return "fulfillment.batch.reordered" }
func (e *BatchReorderedEvent) OccurredAt() time.Time { return e.ReorderedAt }

// BatchProgressEvent is emitted when batch counters advance
type BatchProgressEvent struct {
	BatchID       string    `json:"batchId"`
	PickedOrders  int       `json:"pickedOrders"`
	ShippedOrders int       `json:"shippedOrders"`
	TotalOrders   int       `json:"totalOrders"`
	RecordedAt    time.Time `json:"recordedAt"`
}

func (e *BatchProgressEvent) EventType() string     { return "fulfillment.batch.progress" }
func (e *BatchProgressEvent) OccurredAt() time.Time { return e.RecordedAt }

// BatchCompletedEvent is emitted when all of a batch's chunks have shipped
type BatchCompletedEvent struct {
	BatchID       string    `json:"batchId"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	ShippedOrders int       `json:"shippedOrders"`
	CompletedAt   time.Time `json:"completedAt"`
}

func (e *BatchCompletedEvent) EventType() string     { return "fulfillment.batch.completed" }
func (e *BatchCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// ChunkCheckedOutEvent is emitted when a chunk is bound to a cart
type ChunkCheckedOutEvent struct {
	ChunkID      string    `json:"chunkId"`
	BatchID      string    `json:"batchId"`
	CartID       string    `json:"cartId"`
	OrderCount   int       `json:"orderCount"`
	PickingMode  string    `json:"pickingMode"`
	CheckedOutAt time.Time `json:"checkedOutAt"`
}

func (e *ChunkCheckedOutEvent) EventType() string     { return "fulfillment.chunk.checked-out" }
func (e *ChunkCheckedOutEvent) OccurredAt() time.Time { return e.CheckedOutAt }

// ChunkPickedEvent is emitted when a chunk finishes its picking phase
type ChunkPickedEvent struct {
	ChunkID  string    `json:"chunkId"`
	BatchID  string    `json:"batchId"`
	PickedAt time.Time `json:"pickedAt"`
}

func (e *ChunkPickedEvent) EventType() string     { return "fulfillment.chunk.picked" }
func (e *ChunkPickedEvent) OccurredAt() time.Time { return e.PickedAt }

// OrderShippedEvent is emitted when one order's label is issued
type OrderShippedEvent struct {
	ChunkID     string    `json:"chunkId"`
	BatchID     string    `json:"batchId"`
	OrderNumber string    `json:"orderNumber"`
	BinNumber   int       `json:"binNumber"`
	ShippedAt   time.Time `json:"shippedAt"`
}

func (e *OrderShippedEvent) EventType() string     { return "fulfillment.order.shipped" }
func (e *OrderShippedEvent) OccurredAt() time.Time { return e.ShippedAt }

// CartCompletedEvent is emitted when a cart's shipping pass completes
type CartCompletedEvent struct {
	ChunkID     string    `json:"chunkId"`
	BatchID     string    `json:"batchId"`
	CartID      string    `json:"cartId"`
	OrderCount  int       `json:"orderCount"`
	CompletedAt time.Time `json:"completedAt"`
}

func (e *CartCompletedEvent) EventType() string     { return "fulfillment.cart.completed" }
func (e *CartCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// EngravingStartedEvent is emitted when an engraver claims or resumes a cart
type EngravingStartedEvent struct {
	ChunkID      string    `json:"chunkId"`
	EngraverName string    `json:"engraverName"`
	Resumed      bool      `json:"resumed"`
	StartedAt    time.Time `json:"startedAt"`
}

func (e *EngravingStartedEvent) EventType() string     { return "fulfillment.engraving.started" }
func (e *EngravingStartedEvent) OccurredAt() time.Time { return e.StartedAt }

// EngravingCompletedEvent is emitted when a cart's engraving pass completes
type EngravingCompletedEvent struct {
	ChunkID       string    `json:"chunkId"`
	ActiveSeconds int       `json:"activeSeconds"`
	PausedSeconds int       `json:"pausedSeconds"`
	ItemCount     int       `json:"itemCount"`
	CompletedAt   time.Time `json:"completedAt"`
}

func (e *EngravingCompletedEvent) EventType() string     { return "fulfillment.engraving.completed" }
func (e *EngravingCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }
