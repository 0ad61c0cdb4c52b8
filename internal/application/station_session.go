package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/binlayout"
	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/internal/engraving"
	"github.com/wms-platform/fulfillment-service/internal/verification"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

// StationCoordinator ties the verification and engraving engines to the
// store for one physical station. A station session begins by checking out
// a cart and proceeds through the engine's transitions; completions report
// back through the StationService.
type StationCoordinator struct {
	service *StationService
	chunks  domain.ChunkRepository
	batches domain.BatchRepository
	printer verification.LabelPrinter
	metrics *metrics.Metrics
	logger  *logging.Logger
	random  verification.RandomSource
}

// NewStationCoordinator creates a coordinator. The random source feeds the
// singles spot-check draw.
func NewStationCoordinator(
	service *StationService,
	chunks domain.ChunkRepository,
	batches domain.BatchRepository,
	printer verification.LabelPrinter,
	m *metrics.Metrics,
	logger *logging.Logger,
	random verification.RandomSource,
) *StationCoordinator {
	return &StationCoordinator{
		service: service,
		chunks:  chunks,
		batches: batches,
		printer: printer,
		metrics: m,
		logger:  logger,
		random:  random,
	}
}

// orderCompleter adapts the station service to the verification session
type orderCompleter struct {
	service *StationService
}

func (c orderCompleter) CompleteOrder(ctx context.Context, chunkID string, orderNumber string) error {
	return c.service.CompleteOrderForVerification(ctx, chunkID, orderNumber)
}

// ShippingSession is one station's scan-verify-print pass over a cart
type ShippingSession struct {
	chunkID     string
	protocol    string
	session     *verification.Session
	coordinator *StationCoordinator
}

// BeginShipping checks out a cart for shipping and opens a verification
// session over its chunk. A cart with a partially shipped chunk resumes
// where the prior session left off.
func (c *StationCoordinator) BeginShipping(ctx context.Context, cartID, workerName string) (*ShippingSession, error) {
	if _, err := c.service.CheckoutCart(ctx, CheckoutCartCommand{
		CartID:     cartID,
		WorkerName: workerName,
		Phase:      string(domain.PhaseShipping),
	}); err != nil {
		return nil, err
	}

	chunk, err := c.chunks.FindByCartID(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk for cart: %w", err)
	}
	if chunk == nil {
		return nil, errors.ErrNotFound("chunk for cart " + cartID)
	}

	batch, err := c.batches.FindByBatchID(ctx, chunk.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	binCount := binlayout.StandardBinCount
	if batch != nil {
		binCount = binlayout.BinCount(batch.Name)
	}

	session, err := verification.NewSession(chunk, binCount, c.random)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	c.logger.Info("Shipping session started", "cartId", cartID, "chunkId", chunk.ChunkID,
		"mode", string(chunk.PickingMode))
	return &ShippingSession{
		chunkID:     chunk.ChunkID,
		protocol:    string(chunk.PickingMode),
		session:     session,
		coordinator: c,
	}, nil
}

// State returns the current unit's verification state
func (s *ShippingSession) State() verification.State {
	return s.session.State()
}

// Current returns the current unit
func (s *ShippingSession) Current() (verification.Unit, bool) {
	return s.session.Current()
}

// Scan feeds one barcode, recording rejection and over-scan outcomes
func (s *ShippingSession) Scan(code string) (verification.ScanResult, error) {
	result, err := s.session.Scan(code)
	if err != nil {
		return result, err
	}

	m := s.coordinator.metrics
	if !result.Accepted {
		m.RecordScanRejected(s.protocol, string(result.Reason))
	}
	if result.OverScan {
		m.OverScans.Inc()
	}
	if result.SpotCheck {
		m.SpotChecksTriggered.Inc()
	}
	return result, nil
}

// PrintAndComplete issues the verified unit's labels in one action and
// reports each order shipped
func (s *ShippingSession) PrintAndComplete(ctx context.Context) error {
	unit, ok := s.session.Current()
	if !ok {
		return verification.ErrNoCurrentUnit
	}

	err := s.session.Print(ctx, s.coordinator.printer, orderCompleter{service: s.coordinator.service})
	if err != nil {
		return err
	}

	s.coordinator.metrics.RecordLabelsPrinted(s.protocol, len(unit.Orders))
	return nil
}

// Advance moves to the next unit after labels were issued
func (s *ShippingSession) Advance() (verification.State, error) {
	return s.session.Advance()
}

// SkipEmpty acknowledges an empty bin
func (s *ShippingSession) SkipEmpty() (verification.State, error) {
	return s.session.SkipEmpty()
}

// Hints returns SKU-to-bin hints for the current bulk unit
func (s *ShippingSession) Hints() map[string][]int {
	return s.session.CurrentHints()
}

// ShelfProgress returns derived per-shelf shipped/total counts
func (s *ShippingSession) ShelfProgress() []verification.ShelfProgress {
	return s.session.ShelfProgressReport()
}

// Complete finishes the cart once every unit has shipped
func (s *ShippingSession) Complete(ctx context.Context, cartID string) error {
	if s.session.State() != verification.StateCartComplete {
		return verification.ErrNotVerified
	}
	_, err := s.coordinator.service.CompleteCart(ctx, CompleteCartCommand{CartID: cartID, ChunkID: s.chunkID})
	return err
}

// BeginEngraving claims or resumes a chunk for an engraver and starts the
// session timer. Saves retried by the session feed the retry queue gauge.
func (c *StationCoordinator) BeginEngraving(ctx context.Context, chunkID, engraverName string) (*engraving.Session, error) {
	if _, err := c.service.StartEngraving(ctx, StartEngravingCommand{
		ChunkID:      chunkID,
		EngraverName: engraverName,
	}); err != nil {
		return nil, err
	}

	chunk, err := c.chunks.FindByChunkID(ctx, chunkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	if chunk == nil {
		return nil, errors.ErrNotFoundWithID("chunk", chunkID)
	}

	lastPending := 0
	session := engraving.NewSession(chunk, NewEngravingStore(c.service), c.logger,
		engraving.WithQueueGauge(func(pending int) {
			c.metrics.EngravingRetryQueue.Set(float64(pending))
			if pending > lastPending {
				c.metrics.EngravingRetries.Inc()
			}
			lastPending = pending
		}))

	if err := session.Start(); err != nil {
		return nil, err
	}
	c.logger.Info("Engraving session started", "chunkId", chunkID, "engraver", engraverName,
		"resumed", session.Resumed(), "items", len(session.Items()))
	return session, nil
}
