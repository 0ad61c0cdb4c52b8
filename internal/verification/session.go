package verification

import (
	"context"
	"fmt"
	"sort"

	"github.com/wms-platform/fulfillment-service/internal/binlayout"
	"github.com/wms-platform/fulfillment-service/internal/domain"
)

// LabelPrinter issues shipping labels for a verified unit in one action:
// per-order for Standard/Bulk, all of a bin's labels for Singles.
type LabelPrinter interface {
	PrintLabels(ctx context.Context, orderNumbers []string) error
}

// OrderCompleter reports a shipped order back to the store
type OrderCompleter interface {
	CompleteOrder(ctx context.Context, chunkID, orderNumber string) error
}

// Unit is one verifiable unit of work: one order, one bin of orders, or one
// shelf-position order in bulk mode.
type Unit struct {
	BinNumber   int
	ShelfNumber int // bulk only
	Orders      []domain.ChunkOrder
}

// Empty reports whether the unit's bin holds no order, e.g. because picking
// skipped an out-of-stock item
func (u Unit) Empty() bool {
	return len(u.Orders) == 0
}

// OrderNumbers lists the unit's order numbers
func (u Unit) OrderNumbers() []string {
	numbers := make([]string, len(u.Orders))
	for i, o := range u.Orders {
		numbers[i] = o.OrderNumber
	}
	return numbers
}

// unitVerifier is the per-protocol scanning strategy
type unitVerifier interface {
	Scan(code string) ScanResult
	Verified() bool
}

// ShelfProgress is the derived shipped/total state of one bulk shelf
type ShelfProgress struct {
	ShelfNumber int `json:"shelfNumber"`
	Shipped     int `json:"shipped"`
	Total       int `json:"total"`
}

// Session drives the scan -> verify -> print -> advance state machine over
// one cart's units. A session is single-station; concurrency exists only
// across stations through the store.
type Session struct {
	chunkID  string
	mode     domain.BatchType
	units    []Unit
	idx      int
	state    State
	random   RandomSource
	verifier unitVerifier
	shelves  []domain.ChunkBulkBatchAssignment
	issued   map[string]bool
}

// NewSession builds a cart session for a chunk. binCount is the cart's bin
// capacity (6 for oversized, 12 otherwise). The random source feeds the
// singles spot-check draw.
func NewSession(chunk *domain.Chunk, binCount int, random RandomSource) (*Session, error) {
	s := &Session{
		chunkID: chunk.ChunkID,
		mode:    chunk.PickingMode,
		random:  random,
		shelves: chunk.BulkAssignments,
		issued:  make(map[string]bool),
	}

	switch chunk.PickingMode {
	case domain.BatchTypeBulk:
		s.units = bulkUnits(chunk)
	case domain.BatchTypeSingles:
		s.units = binUnits(chunk, binCount, true)
	case domain.BatchTypeOrderBySize:
		s.units = binUnits(chunk, binCount, false)
	default:
		return nil, fmt.Errorf("unsupported picking mode %q", chunk.PickingMode)
	}

	// Orders already shipped before this session (resumed cart) count as
	// issued so progress and completion line up with the store.
	for _, o := range chunk.Orders {
		if o.Status == domain.OrderStatusShipped {
			s.issued[o.OrderNumber] = true
		}
	}

	s.enter()
	return s, nil
}

// binUnits builds one unit per physical bin, including empty bins so the
// station can present a one-tap skip instead of a scan prompt
func binUnits(chunk *domain.Chunk, binCount int, grouped bool) []Unit {
	byBin := make(map[int][]domain.ChunkOrder)
	for _, o := range chunk.Orders {
		byBin[o.BinNumber] = append(byBin[o.BinNumber], o)
	}

	units := make([]Unit, 0, binCount)
	for bin := 1; bin <= binCount; bin++ {
		orders := byBin[bin]
		if !grouped && len(orders) > 1 {
			// standard carts hold one order per bin; keep deterministic order
			sort.Slice(orders, func(i, j int) bool {
				return orders[i].OrderNumber < orders[j].OrderNumber
			})
		}
		units = append(units, Unit{BinNumber: bin, Orders: orders})
	}
	return units
}

// bulkUnits builds per-order units in shelf-major traversal order
func bulkUnits(chunk *domain.Chunk) []Unit {
	shelves := make([]domain.ChunkBulkBatchAssignment, len(chunk.BulkAssignments))
	copy(shelves, chunk.BulkAssignments)
	sort.Slice(shelves, func(i, j int) bool {
		return shelves[i].ShelfNumber < shelves[j].ShelfNumber
	})

	units := make([]Unit, 0, len(chunk.Orders))
	for _, shelf := range shelves {
		for _, o := range chunk.OrdersOnShelf(shelf.ShelfNumber) {
			units = append(units, Unit{
				BinNumber:   o.BinNumber,
				ShelfNumber: shelf.ShelfNumber,
				Orders:      []domain.ChunkOrder{o},
			})
		}
	}
	return units
}

// enter initializes state and the verifier for the current unit
func (s *Session) enter() {
	if s.idx >= len(s.units) {
		s.state = StateCartComplete
		s.verifier = nil
		return
	}

	unit := s.units[s.idx]
	if unit.Empty() {
		s.state = StateEmpty
		s.verifier = nil
		return
	}

	// Skip units already shipped by an earlier, interrupted session.
	done := true
	for _, o := range unit.Orders {
		if !s.issued[o.OrderNumber] {
			done = false
			break
		}
	}
	if done {
		s.idx++
		s.enter()
		return
	}

	switch s.mode {
	case domain.BatchTypeSingles:
		sku := singleSKU(unit)
		if sku == "" {
			// all line items excluded: nothing to scan
			s.state = StateVerified
			s.verifier = nil
			return
		}
		s.verifier = NewSinglesVerifier(sku, len(unit.Orders), s.random)
	default:
		s.verifier = NewStandardVerifier(unit.Orders[0].Lines)
	}

	if s.verifier.Verified() {
		// all line items excluded: immediately verified
		s.state = StateVerified
		return
	}
	s.state = StateAwaitingScan
}

// singleSKU returns the single SKU shared by every order in a singles bin
func singleSKU(unit Unit) string {
	for _, o := range unit.Orders {
		for _, l := range EligibleLines(o.Lines) {
			return l.SKU
		}
	}
	return ""
}

// State returns the current unit's verification state
func (s *Session) State() State {
	return s.state
}

// Current returns the current unit; ok is false once the cart is complete
func (s *Session) Current() (Unit, bool) {
	if s.idx >= len(s.units) {
		return Unit{}, false
	}
	return s.units[s.idx], true
}

// Scan feeds one barcode to the current unit's verifier
func (s *Session) Scan(code string) (ScanResult, error) {
	if s.state == StateCartComplete {
		return ScanResult{}, ErrNoCurrentUnit
	}
	if s.state != StateAwaitingScan {
		return ScanResult{}, ErrNotAwaitingScan
	}

	result := s.verifier.Scan(code)
	if result.Verified {
		s.state = StateVerified
	}
	return result, nil
}

// Print issues labels for the verified unit in one action and reports
// complete-order for every order in the unit, then transitions to
// LABEL_ISSUED. Exactly one complete-order call is made per order.
func (s *Session) Print(ctx context.Context, printer LabelPrinter, completer OrderCompleter) error {
	if s.state != StateVerified {
		return ErrNotVerified
	}

	unit := s.units[s.idx]
	if err := printer.PrintLabels(ctx, unit.OrderNumbers()); err != nil {
		return fmt.Errorf("failed to print labels: %w", err)
	}

	for _, o := range unit.Orders {
		if s.issued[o.OrderNumber] {
			continue
		}
		if err := completer.CompleteOrder(ctx, s.chunkID, o.OrderNumber); err != nil {
			return fmt.Errorf("failed to complete order %s: %w", o.OrderNumber, err)
		}
		s.issued[o.OrderNumber] = true
	}

	s.state = StateLabelIssued
	return nil
}

// Advance moves to the next unit after a label has been issued
func (s *Session) Advance() (State, error) {
	if s.state != StateLabelIssued {
		return s.state, ErrNotVerified
	}
	s.idx++
	s.enter()
	return s.state, nil
}

// SkipEmpty acknowledges an empty bin and moves on without scanning
func (s *Session) SkipEmpty() (State, error) {
	if s.state != StateEmpty {
		return s.state, ErrNotEmpty
	}
	s.idx++
	s.enter()
	return s.state, nil
}

// CurrentHints returns SKU -> physical bin numbers for the current bulk
// unit, used to tell a shipper which bins to pull from
func (s *Session) CurrentHints() map[string][]int {
	if s.mode != domain.BatchTypeBulk || s.idx >= len(s.units) {
		return nil
	}

	unit := s.units[s.idx]
	var shelf *domain.ChunkBulkBatchAssignment
	for i := range s.shelves {
		if s.shelves[i].ShelfNumber == unit.ShelfNumber {
			shelf = &s.shelves[i]
			break
		}
	}
	if shelf == nil {
		return nil
	}

	hints := make(map[string][]int)
	for _, o := range unit.Orders {
		for _, l := range EligibleLines(o.Lines) {
			sku := Normalize(l.SKU)
			if _, seen := hints[sku]; !seen {
				hints[sku] = binlayout.BinsForSKU(*shelf, sku)
			}
		}
	}
	return hints
}

// ShelfProgressReport derives per-shelf shipped/total counts from the
// session's issued set. Not separately persisted.
func (s *Session) ShelfProgressReport() []ShelfProgress {
	if s.mode != domain.BatchTypeBulk {
		return nil
	}

	byShelf := make(map[int]*ShelfProgress)
	order := make([]int, 0, len(s.shelves))
	for _, unit := range s.units {
		p, ok := byShelf[unit.ShelfNumber]
		if !ok {
			p = &ShelfProgress{ShelfNumber: unit.ShelfNumber}
			byShelf[unit.ShelfNumber] = p
			order = append(order, unit.ShelfNumber)
		}
		for _, o := range unit.Orders {
			p.Total++
			if s.issued[o.OrderNumber] {
				p.Shipped++
			}
		}
	}

	sort.Ints(order)
	report := make([]ShelfProgress, 0, len(order))
	for _, shelfNumber := range order {
		report = append(report, *byShelf[shelfNumber])
	}
	return report
}
