package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrBatchCompleted     = errors.New("batch is already completed")
	ErrBatchNotFound      = errors.New("batch not found")
	ErrNoCellAssignments  = errors.New("batch must have at least one cell assignment")
	ErrCellNotAssigned    = errors.New("cell is not assigned to this batch")
	ErrCounterInvariant   = errors.New("order counters would violate shipped <= picked <= total")
	ErrNotPersonalized    = errors.New("batch is not personalized")
	ErrNoOrders           = errors.New("batch must have at least one order")
	ErrInvalidBatchType   = errors.New("invalid batch type")
	ErrInvalidBatchStatus = errors.New("invalid batch status")
)

// BatchType represents how a batch's orders are picked and verified
type BatchType string

const (
	BatchTypeSingles     BatchType = "SINGLES"
	BatchTypeBulk        BatchType = "BULK"
	BatchTypeOrderBySize BatchType = "ORDER_BY_SIZE"
)

// IsValid checks if the batch type is valid
func (t BatchType) IsValid() bool {
	switch t {
	case BatchTypeSingles, BatchTypeBulk, BatchTypeOrderBySize:
		return true
	default:
		return false
	}
}

// BatchStatus represents the lifecycle status of a batch
type BatchStatus string

const (
	BatchStatusActive     BatchStatus = "ACTIVE"
	BatchStatusInProgress BatchStatus = "IN_PROGRESS"
	BatchStatusCompleted  BatchStatus = "COMPLETED"
)

// ParseBatchStatus normalizes a stored status string. The legacy statuses
// DRAFT and RELEASED are accepted as synonyms of ACTIVE.
func ParseBatchStatus(s string) (BatchStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVE", "DRAFT", "RELEASED":
		return BatchStatusActive, nil
	case "IN_PROGRESS":
		return BatchStatusInProgress, nil
	case "COMPLETED":
		return BatchStatusCompleted, nil
	default:
		return "", ErrInvalidBatchStatus
	}
}

// OversizedNamePrefix marks batches whose carts use the 6-bin layout
const OversizedNamePrefix = "O-"

// BulkBatchInfo is a sub-group of identical orders within a BULK batch
type BulkBatchInfo struct {
	GroupSignature string               `bson:"groupSignature" json:"groupSignature"`
	OrderCount     int                  `bson:"orderCount" json:"orderCount"`
	SplitIndex     int                  `bson:"splitIndex" json:"splitIndex"`
	TotalSplits    int                  `bson:"totalSplits" json:"totalSplits"`
	Status         BatchStatus          `bson:"status" json:"status"`
	SkuLayout      []BulkSkuLayoutEntry `bson:"skuLayout" json:"skuLayout"`
}

// BulkSkuLayoutEntry describes one physical bin position on a bulk shelf
type BulkSkuLayoutEntry struct {
	SKU             string `bson:"sku" json:"sku"`
	BinQty          int    `bson:"binQty" json:"binQty"`
	MasterUnitIndex int    `bson:"masterUnitIndex" json:"masterUnitIndex"`
}

// CellAssignment links a batch to a pick cell with a per-pair priority
type CellAssignment struct {
	CellID    string    `bson:"cellId" json:"cellId"`
	Priority  int       `bson:"priority" json:"priority"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Batch is the aggregate root for a named unit of fulfillment work
type Batch struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	BatchID         string             `bson:"batchId"`
	Name            string             `bson:"name"`
	Type            BatchType          `bson:"type"`
	IsPersonalized  bool               `bson:"isPersonalized"`
	Status          BatchStatus        `bson:"status"`
	Priority        int                `bson:"priority"` // legacy single-cell fallback ordering
	TotalOrders     int                `bson:"totalOrders"`
	PickedOrders    int                `bson:"pickedOrders"`
	ShippedOrders   int                `bson:"shippedOrders"`
	EngravedOrders  int                `bson:"engravedOrders"`
	BulkGroups      []BulkBatchInfo    `bson:"bulkGroups,omitempty"`
	CellAssignments []CellAssignment   `bson:"cellAssignments"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
	CompletedAt     *time.Time         `bson:"completedAt,omitempty"`
	DomainEvents    []DomainEvent      `bson:"-"`
}

// NewBatch creates a new Batch aggregate. Non-personalized batches require at
// least one cell assignment; personalized batches with no cells land in the
// implicit personalized pool.
func NewBatch(name string, batchType BatchType, isPersonalized bool, totalOrders int, cellIDs []string) (*Batch, error) {
	if !batchType.IsValid() {
		return nil, ErrInvalidBatchType
	}
	if totalOrders <= 0 {
		return nil, ErrNoOrders
	}
	if !isPersonalized && len(cellIDs) == 0 {
		return nil, ErrNoCellAssignments
	}

	now := time.Now().UTC()
	assignments := make([]CellAssignment, len(cellIDs))
	for i, cellID := range cellIDs {
		assignments[i] = CellAssignment{
			CellID:    cellID,
			Priority:  i + 1,
			CreatedAt: now,
		}
	}

	batch := &Batch{
		BatchID:         "BATCH-" + uuid.New().String()[:8],
		Name:            name,
		Type:            batchType,
		IsPersonalized:  isPersonalized,
		Status:          BatchStatusActive,
		TotalOrders:     totalOrders,
		CellAssignments: assignments,
		CreatedAt:       now,
		UpdatedAt:       now,
		DomainEvents:    make([]DomainEvent, 0),
	}

	batch.AddDomainEvent(&BatchCreatedEvent{
		BatchID:     batch.BatchID,
		Name:        name,
		Type:        string(batchType),
		TotalOrders: totalOrders,
		CellIDs:     cellIDs,
		CreatedAt:   now,
	})

	return batch, nil
}

// IsOversized reports whether the batch uses the 6-bin oversized cart layout
func (b *Batch) IsOversized() bool {
	return strings.HasPrefix(b.Name, OversizedNamePrefix)
}

// IsShared reports whether the batch is assigned to more than one cell
func (b *Batch) IsShared() bool {
	return len(b.CellAssignments) > 1
}

// InPersonalizedPool reports whether the batch belongs to the implicit
// personalized pool (personalized, not tied to any cell)
func (b *Batch) InPersonalizedPool() bool {
	return b.IsPersonalized && len(b.CellAssignments) == 0
}

// PriorityForCell returns the per-pair priority for a cell, falling back to
// the batch's own priority for legacy single-cell records
func (b *Batch) PriorityForCell(cellID string) (int, bool) {
	for _, a := range b.CellAssignments {
		if a.CellID == cellID {
			if a.Priority > 0 {
				return a.Priority, true
			}
			return b.Priority, true
		}
	}
	return 0, false
}

// StartPicking transitions the batch to IN_PROGRESS when its first chunk is
// checked out. Idempotent for an already in-progress batch.
func (b *Batch) StartPicking() error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}
	if b.Status == BatchStatusInProgress {
		return nil
	}
	b.Status = BatchStatusInProgress
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordPicked increments the picked counter
func (b *Batch) RecordPicked(n int) error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}
	if n < 0 || b.PickedOrders+n > b.TotalOrders {
		return ErrCounterInvariant
	}
	b.PickedOrders += n
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordShipped increments the shipped counter
func (b *Batch) RecordShipped(n int) error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}
	if n < 0 || b.ShippedOrders+n > b.PickedOrders {
		return ErrCounterInvariant
	}
	b.ShippedOrders += n
	b.UpdatedAt = time.Now().UTC()

	b.AddDomainEvent(&BatchProgressEvent{
		BatchID:       b.BatchID,
		PickedOrders:  b.PickedOrders,
		ShippedOrders: b.ShippedOrders,
		TotalOrders:   b.TotalOrders,
		RecordedAt:    b.UpdatedAt,
	})

	return nil
}

// RecordEngraved increments the engraved counter
func (b *Batch) RecordEngraved(n int) error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}
	if !b.IsPersonalized {
		return ErrNotPersonalized
	}
	if n < 0 || b.EngravedOrders+n > b.TotalOrders {
		return ErrCounterInvariant
	}
	b.EngravedOrders += n
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete marks the batch as completed once all chunks report shipped
func (b *Batch) Complete() error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}

	now := time.Now().UTC()
	b.Status = BatchStatusCompleted
	b.CompletedAt = &now
	b.UpdatedAt = now

	b.AddDomainEvent(&BatchCompletedEvent{
		BatchID:       b.BatchID,
		Name:          b.Name,
		Type:          string(b.Type),
		ShippedOrders: b.ShippedOrders,
		CompletedAt:   now,
	})

	return nil
}

// SetCellAssignments reconciles the assignment set to exactly cellIDs.
// An empty set is rejected for non-personalized batches; the caller keeps
// the prior assignment. queueTails maps a cell to the highest priority
// currently waiting in that cell's queue; an added cell joins one behind
// it, never ahead of batches already waiting there.
func (b *Batch) SetCellAssignments(cellIDs []string, queueTails map[string]int) error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}
	if len(cellIDs) == 0 && !b.IsPersonalized {
		return ErrNoCellAssignments
	}

	wanted := make(map[string]bool, len(cellIDs))
	for _, id := range cellIDs {
		wanted[id] = true
	}

	kept := make([]CellAssignment, 0, len(cellIDs))
	for _, a := range b.CellAssignments {
		if wanted[a.CellID] {
			kept = append(kept, a)
			delete(wanted, a.CellID)
		}
	}

	now := time.Now().UTC()
	for _, id := range cellIDs {
		if wanted[id] {
			kept = append(kept, CellAssignment{
				CellID:    id,
				Priority:  queueTails[id] + 1,
				CreatedAt: now,
			})
		}
	}

	b.CellAssignments = kept
	b.UpdatedAt = now
	return nil
}

// ReorderCell sets the per-pair priority for an assigned cell. No other
// assignment's priority is renumbered; ties break by insertion order.
func (b *Batch) ReorderCell(cellID string, priority int) error {
	if b.Status == BatchStatusCompleted {
		return ErrBatchCompleted
	}
	for i := range b.CellAssignments {
		if b.CellAssignments[i].CellID == cellID {
			b.CellAssignments[i].Priority = priority
			b.UpdatedAt = time.Now().UTC()

			b.AddDomainEvent(&BatchReorderedEvent{
				BatchID:     b.BatchID,
				CellID:      cellID,
				NewPriority: priority,
				ReorderedAt: b.UpdatedAt,
			})
			return nil
		}
	}
	return ErrCellNotAssigned
}

// AddDomainEvent adds a domain event
func (b *Batch) AddDomainEvent(event DomainEvent) {
	b.DomainEvents = append(b.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (b *Batch) ClearDomainEvents() {
	b.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (b *Batch) GetDomainEvents() []DomainEvent {
	return b.DomainEvents
}
