package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/events"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

// EventPublisher publishes domain events for downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event *events.CloudEvent) error
}

// BatchQueueService handles batch queue use cases: per-cell queues, the
// personalized pool, reordering, assignment edits, delete and reset
type BatchQueueService struct {
	batches      domain.BatchRepository
	cells        domain.CellRepository
	publisher    EventPublisher
	eventFactory *events.Factory
	logger       *logging.Logger
}

// NewBatchQueueService creates a new BatchQueueService
func NewBatchQueueService(
	batches domain.BatchRepository,
	cells domain.CellRepository,
	publisher EventPublisher,
	eventFactory *events.Factory,
	logger *logging.Logger,
) *BatchQueueService {
	return &BatchQueueService{
		batches:      batches,
		cells:        cells,
		publisher:    publisher,
		eventFactory: eventFactory,
		logger:       logger,
	}
}

// ListCells returns pick cells, optionally only active ones
func (s *BatchQueueService) ListCells(ctx context.Context, activeOnly bool) ([]CellDTO, error) {
	cells, err := s.cells.FindAll(ctx, activeOnly)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list cells")
		return nil, fmt.Errorf("failed to list cells: %w", err)
	}
	return lo.Map(cells, func(c *domain.PickCell, _ int) CellDTO { return *ToCellDTO(c) }), nil
}

// GetCellQueue returns one cell's batch queue ordered by the cell's
// per-pair assignment priority
func (s *BatchQueueService) GetCellQueue(ctx context.Context, query GetCellQueueQuery) (*CellQueueDTO, error) {
	cell, err := s.cells.FindByCellID(ctx, query.CellID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get cell", "cellId", query.CellID)
		return nil, fmt.Errorf("failed to get cell: %w", err)
	}
	if cell == nil {
		return nil, errors.ErrNotFoundWithID("cell", query.CellID)
	}

	batches, err := s.batches.FindByCell(ctx, query.CellID, query.IncludeCompleted)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list batches for cell", "cellId", query.CellID)
		return nil, fmt.Errorf("failed to list batches for cell: %w", err)
	}

	sortByCellPriority(batches, query.CellID)
	return &CellQueueDTO{
		CellID:  query.CellID,
		Batches: lo.Map(batches, func(b *domain.Batch, _ int) BatchDTO { return *ToBatchDTO(b) }),
	}, nil
}

// GetPersonalizedPool returns personalized batches with no cell assignment
func (s *BatchQueueService) GetPersonalizedPool(ctx context.Context, query GetPersonalizedPoolQuery) ([]BatchDTO, error) {
	batches, err := s.batches.FindPersonalizedPool(ctx, query.IncludeCompleted)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list personalized pool")
		return nil, fmt.Errorf("failed to list personalized pool: %w", err)
	}

	sort.SliceStable(batches, func(i, j int) bool { return batches[i].Priority < batches[j].Priority })
	return lo.Map(batches, func(b *domain.Batch, _ int) BatchDTO { return *ToBatchDTO(b) }), nil
}

// GetBatch retrieves one batch by ID
func (s *BatchQueueService) GetBatch(ctx context.Context, query GetBatchQuery) (*BatchDTO, error) {
	batch, err := s.findBatch(ctx, query.BatchID)
	if err != nil {
		return nil, err
	}
	return ToBatchDTO(batch), nil
}

// CreateBatch creates a new batch and queues it on its cells
func (s *BatchQueueService) CreateBatch(ctx context.Context, cmd CreateBatchCommand) (*BatchDTO, error) {
	batch, err := domain.NewBatch(cmd.Name, domain.BatchType(cmd.Type), cmd.IsPersonalized, cmd.TotalOrders, cmd.CellIDs)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.batches.Save(ctx, batch); err != nil {
		s.logger.WithError(err).Error("Failed to create batch", "batchId", batch.BatchID)
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	s.publishEvents(ctx, batch)
	s.logger.Info("Created batch", "batchId", batch.BatchID, "type", cmd.Type, "cells", len(cmd.CellIDs))
	return ToBatchDTO(batch), nil
}

// Reorder moves a batch to a target position within one cell's queue and
// rewrites that cell's per-pair priorities. Other cells' orderings are
// untouched.
func (s *BatchQueueService) Reorder(ctx context.Context, cmd ReorderBatchCommand) (*CellQueueDTO, error) {
	moved, err := s.findBatch(ctx, cmd.BatchID)
	if err != nil {
		return nil, err
	}
	if moved.Status == domain.BatchStatusCompleted {
		return nil, errors.ErrConflict("batch is already completed")
	}
	if moved.InPersonalizedPool() {
		return nil, errors.ErrValidation(fmt.Sprintf("batch %s is in the personalized pool and has no cell queue position", cmd.BatchID))
	}
	if _, assigned := moved.PriorityForCell(cmd.CellID); !assigned {
		return nil, errors.ErrValidation(fmt.Sprintf("batch %s is not assigned to cell %s", cmd.BatchID, cmd.CellID))
	}

	batches, err := s.batches.FindByCell(ctx, cmd.CellID, false)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list batches for cell", "cellId", cmd.CellID)
		return nil, fmt.Errorf("failed to list batches for cell: %w", err)
	}
	sortByCellPriority(batches, cmd.CellID)

	ids := lo.Map(batches, func(b *domain.Batch, _ int) string { return b.BatchID })
	reordered, err := ReorderIDs(ids, cmd.BatchID, cmd.TargetIndex)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	byID := lo.KeyBy(batches, func(b *domain.Batch) string { return b.BatchID })
	result := make([]*domain.Batch, 0, len(reordered))
	for position, id := range reordered {
		batch := byID[id]
		if err := batch.ReorderCell(cmd.CellID, position+1); err != nil {
			return nil, errors.MapDomainError(err)
		}
		if err := s.batches.Update(ctx, batch); err != nil {
			s.logger.WithError(err).Error("Failed to persist reorder", "batchId", id, "cellId", cmd.CellID)
			return nil, fmt.Errorf("failed to persist reorder: %w", err)
		}
		result = append(result, batch)
	}

	s.publishEvents(ctx, byID[cmd.BatchID])
	s.logger.Info("Reordered batch", "batchId", cmd.BatchID, "cellId", cmd.CellID, "targetIndex", cmd.TargetIndex)
	return &CellQueueDTO{
		CellID:  cmd.CellID,
		Batches: lo.Map(result, func(b *domain.Batch, _ int) BatchDTO { return *ToBatchDTO(b) }),
	}, nil
}

// EditCellAssignments replaces a batch's cell assignment set. Removing
// every cell from a non-personalized batch is rejected; a newly added cell
// joins behind every batch already waiting in that cell's queue.
func (s *BatchQueueService) EditCellAssignments(ctx context.Context, cmd EditCellAssignmentsCommand) (*BatchDTO, error) {
	batch, err := s.findBatch(ctx, cmd.BatchID)
	if err != nil {
		return nil, err
	}
	if batch.Status == domain.BatchStatusCompleted {
		return nil, errors.ErrConflict("batch is already completed")
	}

	queueTails := make(map[string]int, len(cmd.CellIDs))
	for _, cellID := range cmd.CellIDs {
		cell, err := s.cells.FindByCellID(ctx, cellID)
		if err != nil {
			return nil, fmt.Errorf("failed to get cell: %w", err)
		}
		if cell == nil {
			return nil, errors.ErrNotFoundWithID("cell", cellID)
		}
		if _, assigned := batch.PriorityForCell(cellID); assigned {
			continue
		}
		waiting, err := s.batches.FindByCell(ctx, cellID, false)
		if err != nil {
			return nil, fmt.Errorf("failed to list batches for cell: %w", err)
		}
		for _, other := range waiting {
			if p, ok := other.PriorityForCell(cellID); ok && p > queueTails[cellID] {
				queueTails[cellID] = p
			}
		}
	}

	if err := batch.SetCellAssignments(cmd.CellIDs, queueTails); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.batches.Update(ctx, batch); err != nil {
		s.logger.WithError(err).Error("Failed to save cell assignments", "batchId", cmd.BatchID)
		return nil, fmt.Errorf("failed to save cell assignments: %w", err)
	}

	s.publishEvents(ctx, batch)
	s.logger.Info("Edited cell assignments", "batchId", cmd.BatchID, "cells", len(cmd.CellIDs))
	return ToBatchDTO(batch), nil
}

// Delete removes a batch with its chunks and detaches the batch's orders
// in one transaction. Orders themselves are never deleted.
func (s *BatchQueueService) Delete(ctx context.Context, cmd DeleteBatchCommand) (*DeleteResultDTO, error) {
	batch, err := s.findBatch(ctx, cmd.BatchID)
	if err != nil {
		return nil, err
	}

	counts, err := s.batches.DeleteCascade(ctx, cmd.BatchID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to delete batch", "batchId", cmd.BatchID)
		return nil, fmt.Errorf("failed to delete batch: %w", err)
	}

	event := s.eventFactory.NewForBatch(events.BatchDeleted, cmd.BatchID, cmd.BatchID, map[string]any{
		"name":           batch.Name,
		"ordersUnlinked": counts.OrdersUnlinked,
	})
	s.publish(ctx, event)

	s.logger.Info("Deleted batch", "batchId", cmd.BatchID,
		"chunks", counts.Chunks, "ordersUnlinked", counts.OrdersUnlinked)
	return &DeleteResultDTO{
		Batches:        counts.Batches,
		Chunks:         counts.Chunks,
		OrdersUnlinked: counts.OrdersUnlinked,
	}, nil
}

// ResetAll detaches every order, removes all batches and chunks, and
// returns every cart to AVAILABLE. Idempotent: a second invocation reports
// zero counts.
func (s *BatchQueueService) ResetAll(ctx context.Context) (*ResetResultDTO, error) {
	counts, err := s.batches.ResetAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to reset queue")
		return nil, fmt.Errorf("failed to reset queue: %w", err)
	}

	event := s.eventFactory.New(events.QueueReset, "queue", map[string]any{
		"batches":        counts.Batches,
		"chunks":         counts.Chunks,
		"ordersUnlinked": counts.OrdersUnlinked,
		"cartsReset":     counts.CartsReset,
	})
	s.publish(ctx, event)

	s.logger.Info("Reset queue", "batches", counts.Batches, "chunks", counts.Chunks,
		"ordersUnlinked", counts.OrdersUnlinked, "cartsReset", counts.CartsReset)
	return &ResetResultDTO{
		Batches:        counts.Batches,
		Chunks:         counts.Chunks,
		OrdersUnlinked: counts.OrdersUnlinked,
		CartsReset:     counts.CartsReset,
	}, nil
}

func (s *BatchQueueService) findBatch(ctx context.Context, batchID string) (*domain.Batch, error) {
	batch, err := s.batches.FindByBatchID(ctx, batchID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get batch", "batchId", batchID)
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	if batch == nil {
		return nil, errors.ErrNotFoundWithID("batch", batchID)
	}
	return batch, nil
}

// publishEvents drains and publishes an aggregate's pending domain events
func (s *BatchQueueService) publishEvents(ctx context.Context, batch *domain.Batch) {
	for _, domainEvent := range batch.GetDomainEvents() {
		event := s.eventFactory.NewForBatch(
			"wms."+domainEvent.EventType(), batch.BatchID, batch.BatchID, domainEvent)
		s.publish(ctx, event)
	}
	batch.ClearDomainEvents()
}

func (s *BatchQueueService) publish(ctx context.Context, event *events.CloudEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// event loss is tolerable; the store is the source of truth
		s.logger.WithError(err).Warn("Failed to publish event", "type", event.Type)
	}
}

// sortByCellPriority orders batches by their per-pair priority for one
// cell, falling back to the legacy batch priority
func sortByCellPriority(batches []*domain.Batch, cellID string) {
	sort.SliceStable(batches, func(i, j int) bool {
		pi, _ := batches[i].PriorityForCell(cellID)
		pj, _ := batches[j].PriorityForCell(cellID)
		return pi < pj
	})
}
