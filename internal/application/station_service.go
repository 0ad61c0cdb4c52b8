package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/binlayout"
	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/internal/engraving"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/events"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

// CreateChunkCommand represents the command to bind a slice of a batch's
// orders to a cart at pick-checkout time. Orders arrive shelf-major sorted
// for bulk batches.
type CreateChunkCommand struct {
	BatchID     string
	CartID      string
	ChunkNumber int
	Orders      []domain.ChunkOrder
	Shelves     []domain.ChunkBulkBatchAssignment
}

// MarkChunkPickedCommand represents the command to finish a chunk's picking
// phase
type MarkChunkPickedCommand struct {
	ChunkID string
}

// StationService coordinates one physical station's work against the
// store: cart checkout, chunk creation, order shipment, and the engraving
// persistence calls. It is the only application component mutating batch
// counters.
type StationService struct {
	batches      domain.BatchRepository
	chunks       domain.ChunkRepository
	carts        domain.CartRepository
	publisher    EventPublisher
	eventFactory *events.Factory
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// NewStationService creates a new StationService
func NewStationService(
	batches domain.BatchRepository,
	chunks domain.ChunkRepository,
	carts domain.CartRepository,
	publisher EventPublisher,
	eventFactory *events.Factory,
	m *metrics.Metrics,
	logger *logging.Logger,
) *StationService {
	return &StationService{
		batches:      batches,
		chunks:       chunks,
		carts:        carts,
		publisher:    publisher,
		eventFactory: eventFactory,
		metrics:      m,
		logger:       logger,
	}
}

// ListCarts returns all carts with their checkout state
func (s *StationService) ListCarts(ctx context.Context) ([]CartDTO, error) {
	carts, err := s.carts.FindAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list carts")
		return nil, fmt.Errorf("failed to list carts: %w", err)
	}

	dtos := make([]CartDTO, 0, len(carts))
	for _, cart := range carts {
		dtos = append(dtos, *ToCartDTO(cart))
	}
	return dtos, nil
}

// CheckoutCart atomically claims an AVAILABLE cart for one station. A cart
// held by another station is a conflict, never silently overwritten.
func (s *StationService) CheckoutCart(ctx context.Context, cmd CheckoutCartCommand) (*CartDTO, error) {
	phase := domain.WorkPhase(cmd.Phase)
	if !phase.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("invalid work phase %q", cmd.Phase))
	}
	if cmd.WorkerName == "" {
		return nil, errors.ErrValidation("worker name is required")
	}

	cart, err := s.carts.ClaimCart(ctx, cmd.CartID, cmd.WorkerName, phase)
	if err != nil {
		if err == domain.ErrCartInUse {
			return nil, errors.ErrConflict(fmt.Sprintf("cart %s is already checked out", cmd.CartID))
		}
		if err == domain.ErrCartNotFound {
			return nil, errors.ErrNotFoundWithID("cart", cmd.CartID)
		}
		s.logger.WithError(err).Error("Failed to checkout cart", "cartId", cmd.CartID)
		return nil, fmt.Errorf("failed to checkout cart: %w", err)
	}

	s.logger.Info("Cart checked out", "cartId", cmd.CartID, "worker", cmd.WorkerName, "phase", cmd.Phase)
	return ToCartDTO(cart), nil
}

// ReleaseCart returns a cart to the available pool without completing it
func (s *StationService) ReleaseCart(ctx context.Context, cartID string) error {
	cart, err := s.carts.FindByCartID(ctx, cartID)
	if err != nil {
		return fmt.Errorf("failed to get cart: %w", err)
	}
	if cart == nil {
		return errors.ErrNotFoundWithID("cart", cartID)
	}

	cart.Release()
	if err := s.carts.Update(ctx, cart); err != nil {
		s.logger.WithError(err).Error("Failed to release cart", "cartId", cartID)
		return fmt.Errorf("failed to release cart: %w", err)
	}
	return nil
}

// CreateChunk binds orders to a checked-out cart: bins are assigned by the
// layout engine, bulk orders are stamped with their shelf numbers, and the
// batch moves to IN_PROGRESS on its first chunk.
func (s *StationService) CreateChunk(ctx context.Context, cmd CreateChunkCommand) (*ChunkDTO, error) {
	batch, err := s.batches.FindByBatchID(ctx, cmd.BatchID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get batch", "batchId", cmd.BatchID)
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	if batch == nil {
		return nil, errors.ErrNotFoundWithID("batch", cmd.BatchID)
	}

	orders := cmd.Orders
	if batch.Type == domain.BatchTypeBulk {
		orders, err = binlayout.StampShelfNumbers(cmd.Shelves, orders)
		if err != nil {
			return nil, errors.ErrValidation(err.Error())
		}
	} else {
		orders, err = binlayout.AssignBins(orders, binlayout.BinCount(batch.Name))
		if err != nil {
			return nil, errors.ErrValidation(err.Error())
		}
	}

	chunk, err := domain.NewChunk(batch, cmd.CartID, cmd.ChunkNumber, orders)
	if err != nil {
		return nil, errors.MapDomainError(err)
	}
	if batch.Type == domain.BatchTypeBulk {
		chunk.AssignBulkShelves(cmd.Shelves)
	}

	if err := batch.StartPicking(); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.chunks.Save(ctx, chunk); err != nil {
		s.logger.WithError(err).Error("Failed to save chunk", "chunkId", chunk.ChunkID)
		return nil, fmt.Errorf("failed to save chunk: %w", err)
	}
	if err := s.batches.Update(ctx, batch); err != nil {
		s.logger.WithError(err).Error("Failed to update batch", "batchId", cmd.BatchID)
		return nil, fmt.Errorf("failed to update batch: %w", err)
	}

	cart, err := s.carts.FindByCartID(ctx, cmd.CartID)
	if err == nil && cart != nil {
		cart.BindChunk(chunk.ChunkID)
		if err := s.carts.Update(ctx, cart); err != nil {
			s.logger.WithError(err).Warn("Failed to bind chunk to cart", "cartId", cmd.CartID)
		}
	}

	s.publishChunkEvents(ctx, chunk)
	s.publishBatchEvents(ctx, batch)
	s.logger.Info("Chunk created", "chunkId", chunk.ChunkID, "batchId", cmd.BatchID,
		"cartId", cmd.CartID, "orders", len(orders))
	return ToChunkDTO(chunk), nil
}

// GetChunk retrieves one chunk by ID
func (s *StationService) GetChunk(ctx context.Context, query GetChunkQuery) (*ChunkDTO, error) {
	chunk, err := s.findChunk(ctx, query.ChunkID)
	if err != nil {
		return nil, err
	}
	return ToChunkDTO(chunk), nil
}

// GetCartChunk retrieves the chunk bound to a cart, for resuming an
// interrupted station session
func (s *StationService) GetCartChunk(ctx context.Context, cartID string) (*ChunkDTO, error) {
	chunk, err := s.chunks.FindByCartID(ctx, cartID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get chunk for cart", "cartId", cartID)
		return nil, fmt.Errorf("failed to get chunk for cart: %w", err)
	}
	if chunk == nil {
		return nil, errors.ErrNotFound("chunk for cart " + cartID)
	}
	return ToChunkDTO(chunk), nil
}

// MarkChunkPicked finishes a chunk's picking phase and bumps the batch's
// picked counter
func (s *StationService) MarkChunkPicked(ctx context.Context, cmd MarkChunkPickedCommand) (*ChunkDTO, error) {
	chunk, err := s.findChunk(ctx, cmd.ChunkID)
	if err != nil {
		return nil, err
	}
	if chunk.Status != domain.ChunkStatusPicking {
		return nil, errors.ErrConflict(fmt.Sprintf("chunk %s is not in picking phase", cmd.ChunkID))
	}

	batch, err := s.batches.FindByBatchID(ctx, chunk.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	if batch == nil {
		return nil, errors.ErrNotFoundWithID("batch", chunk.BatchID)
	}

	if err := chunk.MarkPicked(); err != nil {
		return nil, errors.MapDomainError(err)
	}
	if err := batch.RecordPicked(len(chunk.Orders)); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.chunks.Update(ctx, chunk); err != nil {
		return nil, fmt.Errorf("failed to update chunk: %w", err)
	}
	if err := s.batches.Update(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to update batch: %w", err)
	}

	s.metrics.RecordOrdersPicked(string(batch.Type), len(chunk.Orders))
	s.publishChunkEvents(ctx, chunk)
	s.publishBatchEvents(ctx, batch)
	return ToChunkDTO(chunk), nil
}

// CompleteOrder marks one order shipped and bumps the batch's shipped
// counter. Shipping an already-shipped bin is rejected.
func (s *StationService) CompleteOrder(ctx context.Context, cmd CompleteOrderCommand) (*ChunkDTO, error) {
	chunk, err := s.findChunk(ctx, cmd.ChunkID)
	if err != nil {
		return nil, err
	}

	if err := chunk.MarkOrderShipped(cmd.OrderNumber, cmd.TrackingNumber, cmd.LabelURL); err != nil {
		if err == domain.ErrOrderAlreadyShipped {
			return nil, errors.ErrConflict(fmt.Sprintf("order %s already shipped", cmd.OrderNumber))
		}
		return nil, errors.MapDomainError(err)
	}

	batch, err := s.batches.FindByBatchID(ctx, chunk.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	if batch == nil {
		return nil, errors.ErrNotFoundWithID("batch", chunk.BatchID)
	}
	if err := batch.RecordShipped(1); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.chunks.Update(ctx, chunk); err != nil {
		s.logger.WithError(err).Error("Failed to update chunk", "chunkId", cmd.ChunkID)
		return nil, fmt.Errorf("failed to update chunk: %w", err)
	}
	if err := s.batches.Update(ctx, batch); err != nil {
		s.logger.WithError(err).Error("Failed to update batch", "batchId", chunk.BatchID)
		return nil, fmt.Errorf("failed to update batch: %w", err)
	}

	s.metrics.RecordOrderShipped(string(batch.Type))
	s.publishChunkEvents(ctx, chunk)
	s.publishBatchEvents(ctx, batch)
	return ToChunkDTO(chunk), nil
}

// CompleteCart finishes a cart's shipping pass: the chunk completes, the
// cart returns to the pool, and the batch completes once all of its chunks
// have shipped every order.
func (s *StationService) CompleteCart(ctx context.Context, cmd CompleteCartCommand) (*ChunkDTO, error) {
	chunk, err := s.findChunk(ctx, cmd.ChunkID)
	if err != nil {
		return nil, err
	}
	if !chunk.AllShipped() {
		return nil, errors.ErrValidation(fmt.Sprintf("chunk %s still has unshipped orders", cmd.ChunkID))
	}

	if err := chunk.Complete(); err != nil {
		return nil, errors.MapDomainError(err)
	}
	if err := s.chunks.Update(ctx, chunk); err != nil {
		return nil, fmt.Errorf("failed to update chunk: %w", err)
	}

	if err := s.ReleaseCart(ctx, cmd.CartID); err != nil {
		s.logger.WithError(err).Warn("Failed to release cart", "cartId", cmd.CartID)
	}

	if err := s.completeBatchIfDone(ctx, chunk.BatchID); err != nil {
		s.logger.WithError(err).Error("Failed to complete batch", "batchId", chunk.BatchID)
		return nil, err
	}

	s.publishChunkEvents(ctx, chunk)
	s.logger.Info("Cart completed", "cartId", cmd.CartID, "chunkId", cmd.ChunkID)
	return ToChunkDTO(chunk), nil
}

// completeBatchIfDone transitions a batch to COMPLETED when every chunk
// has shipped all of its orders
func (s *StationService) completeBatchIfDone(ctx context.Context, batchID string) error {
	batch, err := s.batches.FindByBatchID(ctx, batchID)
	if err != nil {
		return fmt.Errorf("failed to get batch: %w", err)
	}
	if batch == nil || batch.Status == domain.BatchStatusCompleted {
		return nil
	}

	chunks, err := s.chunks.FindByBatchID(ctx, batchID)
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}
	for _, chunk := range chunks {
		if !chunk.AllShipped() {
			return nil
		}
	}

	if err := batch.Complete(); err != nil {
		return errors.MapDomainError(err)
	}
	if err := s.batches.Update(ctx, batch); err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}

	s.metrics.RecordBatchCompleted(string(batch.Type))
	s.publishBatchEvents(ctx, batch)
	s.logger.Info("Batch completed", "batchId", batchID)
	return nil
}

// StartEngraving claims a chunk for an engraver, initializing progress, or
// resumes a prior interrupted session
func (s *StationService) StartEngraving(ctx context.Context, cmd StartEngravingCommand) (*ChunkDTO, error) {
	if cmd.EngraverName == "" {
		return nil, errors.ErrValidation("engraver name is required")
	}

	chunk, err := s.findChunk(ctx, cmd.ChunkID)
	if err != nil {
		return nil, err
	}
	if !chunk.IsPersonalized {
		return nil, errors.ErrValidation(fmt.Sprintf("chunk %s has no personalized items", cmd.ChunkID))
	}

	resumed := chunk.HasEngravingSession()
	if resumed && chunk.EngraverName != cmd.EngraverName {
		return nil, errors.ErrConflict(fmt.Sprintf("chunk %s is checked out by %s", cmd.ChunkID, chunk.EngraverName))
	}

	chunk.AttachEngraver(cmd.EngraverName)
	if err := s.chunks.Update(ctx, chunk); err != nil {
		s.logger.WithError(err).Error("Failed to start engraving", "chunkId", cmd.ChunkID)
		return nil, fmt.Errorf("failed to start engraving: %w", err)
	}
	s.publishChunkEvents(ctx, chunk)

	s.logger.Info("Engraving started", "chunkId", cmd.ChunkID, "engraver", cmd.EngraverName, "resumed", resumed)
	return ToChunkDTO(chunk), nil
}

// MarkEngravedItem persists one completed item index with the session's
// accumulated paused time
func (s *StationService) MarkEngravedItem(ctx context.Context, cmd MarkEngravedItemCommand) (*ChunkDTO, error) {
	chunk, err := s.findChunk(ctx, cmd.ChunkID)
	if err != nil {
		return nil, err
	}

	chunk.RecordEngravedItem(cmd.ItemIndex, cmd.TotalPausedMs)
	if err := s.chunks.Update(ctx, chunk); err != nil {
		s.logger.WithError(err).Error("Failed to save engraved item", "chunkId", cmd.ChunkID, "itemIndex", cmd.ItemIndex)
		return nil, fmt.Errorf("failed to save engraved item: %w", err)
	}

	event := s.eventFactory.NewForBatch(events.ItemEngraved, chunk.ChunkID, chunk.BatchID, map[string]any{
		"chunkId":   chunk.ChunkID,
		"itemIndex": cmd.ItemIndex,
	})
	s.publish(ctx, event)
	return ToChunkDTO(chunk), nil
}

// MarkEngraved records one fully engraved order on the batch counter
func (s *StationService) MarkEngraved(ctx context.Context, cmd MarkEngravedCommand) error {
	chunk, err := s.findChunk(ctx, cmd.ChunkID)
	if err != nil {
		return err
	}
	if _, err := chunk.FindOrder(cmd.OrderNumber); err != nil {
		return errors.ErrNotFoundWithID("order", cmd.OrderNumber)
	}

	batch, err := s.batches.FindByBatchID(ctx, chunk.BatchID)
	if err != nil {
		return fmt.Errorf("failed to get batch: %w", err)
	}
	if batch == nil {
		return errors.ErrNotFoundWithID("batch", chunk.BatchID)
	}

	if err := batch.RecordEngraved(1); err != nil {
		return errors.MapDomainError(err)
	}
	if err := s.batches.Update(ctx, batch); err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}

	s.metrics.OrdersEngraved.Inc()
	s.publishBatchEvents(ctx, batch)
	return nil
}

// CompleteEngraving tears down a finished engraving session and reports
// its final timing
func (s *StationService) CompleteEngraving(ctx context.Context, cmd CompleteEngravingCommand) error {
	chunk, err := s.findChunk(ctx, cmd.ChunkID)
	if err != nil {
		return err
	}

	chunk.CompleteEngraving(cmd.ActiveSeconds, cmd.PausedSeconds, cmd.ItemCount)
	if err := s.chunks.Update(ctx, chunk); err != nil {
		s.logger.WithError(err).Error("Failed to complete engraving", "chunkId", cmd.ChunkID)
		return fmt.Errorf("failed to complete engraving: %w", err)
	}
	s.publishChunkEvents(ctx, chunk)

	s.logger.Info("Engraving completed", "chunkId", cmd.ChunkID,
		"activeSeconds", cmd.ActiveSeconds, "pausedSeconds", cmd.PausedSeconds, "items", cmd.ItemCount)
	return nil
}

// CancelEngraving releases an engraving checkout. Only permitted while
// nothing has been engraved yet.
func (s *StationService) CancelEngraving(ctx context.Context, cmd CancelEngravingCommand) error {
	chunk, err := s.findChunk(ctx, cmd.ChunkID)
	if err != nil {
		return err
	}
	if chunk.EngravingProgress != nil && len(chunk.EngravingProgress.CompletedItems) > 0 {
		return errors.ErrConflict(fmt.Sprintf("chunk %s already has engraved items", cmd.ChunkID))
	}

	chunk.ClearEngravingSession()
	if err := s.chunks.Update(ctx, chunk); err != nil {
		s.logger.WithError(err).Error("Failed to cancel engraving", "chunkId", cmd.ChunkID)
		return fmt.Errorf("failed to cancel engraving: %w", err)
	}

	event := s.eventFactory.NewForBatch(events.EngravingCancelled, chunk.ChunkID, chunk.BatchID, map[string]any{
		"chunkId": chunk.ChunkID,
	})
	s.publish(ctx, event)
	return nil
}

func (s *StationService) findChunk(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	chunk, err := s.chunks.FindByChunkID(ctx, chunkID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get chunk", "chunkId", chunkID)
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	if chunk == nil {
		return nil, errors.ErrNotFoundWithID("chunk", chunkID)
	}
	return chunk, nil
}

func (s *StationService) publishChunkEvents(ctx context.Context, chunk *domain.Chunk) {
	for _, domainEvent := range chunk.GetDomainEvents() {
		event := s.eventFactory.NewForBatch("wms."+domainEvent.EventType(), chunk.ChunkID, chunk.BatchID, domainEvent)
		s.publish(ctx, event)
	}
	chunk.ClearDomainEvents()
}

func (s *StationService) publishBatchEvents(ctx context.Context, batch *domain.Batch) {
	for _, domainEvent := range batch.GetDomainEvents() {
		event := s.eventFactory.NewForBatch("wms."+domainEvent.EventType(), batch.BatchID, batch.BatchID, domainEvent)
		s.publish(ctx, event)
	}
	batch.ClearDomainEvents()
}

func (s *StationService) publish(ctx context.Context, event *events.CloudEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Failed to publish event", "type", event.Type)
	}
}

// EngravingStore adapts StationService to the engraving session's
// persistence contract
type EngravingStore struct {
	service *StationService
}

// NewEngravingStore creates the adapter
func NewEngravingStore(service *StationService) *EngravingStore {
	return &EngravingStore{service: service}
}

func (s *EngravingStore) MarkItem(ctx context.Context, chunkID string, itemIndex int, totalPausedMs int64) error {
	_, err := s.service.MarkEngravedItem(ctx, MarkEngravedItemCommand{
		ChunkID:       chunkID,
		ItemIndex:     itemIndex,
		TotalPausedMs: totalPausedMs,
	})
	return err
}

func (s *EngravingStore) MarkOrderEngraved(ctx context.Context, chunkID string, orderNumber string) error {
	return s.service.MarkEngraved(ctx, MarkEngravedCommand{ChunkID: chunkID, OrderNumber: orderNumber})
}

func (s *EngravingStore) Complete(ctx context.Context, chunkID string, m engraving.Metrics) error {
	return s.service.CompleteEngraving(ctx, CompleteEngravingCommand{
		ChunkID:       chunkID,
		ActiveSeconds: m.ActiveSeconds,
		PausedSeconds: m.PausedSeconds,
		ItemCount:     m.ItemCount,
	})
}

func (s *EngravingStore) Cancel(ctx context.Context, chunkID string) error {
	return s.service.CancelEngraving(ctx, CancelEngravingCommand{ChunkID: chunkID})
}

// CompleteOrderForVerification adapts CompleteOrder to the verification
// session's complete-order contract
func (s *StationService) CompleteOrderForVerification(ctx context.Context, chunkID string, orderNumber string) error {
	_, err := s.CompleteOrder(ctx, CompleteOrderCommand{ChunkID: chunkID, OrderNumber: orderNumber})
	return err
}
