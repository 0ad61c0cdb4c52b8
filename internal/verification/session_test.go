package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

type fakePrinter struct {
	calls [][]string
	err   error
}

func (p *fakePrinter) PrintLabels(_ context.Context, orderNumbers []string) error {
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, orderNumbers)
	return nil
}

type fakeCompleter struct {
	completed []string
	err       error
}

func (c *fakeCompleter) CompleteOrder(_ context.Context, _ string, orderNumber string) error {
	if c.err != nil {
		return c.err
	}
	c.completed = append(c.completed, orderNumber)
	return nil
}

func productLine(sku string, qty int) domain.OrderLine {
	return domain.OrderLine{SKU: sku, Quantity: qty, Kind: domain.LineKindProduct}
}

func standardChunk() *domain.Chunk {
	return &domain.Chunk{
		ChunkID:     "CHUNK-std",
		PickingMode: domain.BatchTypeOrderBySize,
		Orders: []domain.ChunkOrder{
			{OrderNumber: "ORD-1", BinNumber: 1, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{productLine("SKU-A", 1)}},
			{OrderNumber: "ORD-2", BinNumber: 3, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{productLine("SKU-B", 2)}},
		},
	}
}

func TestSession_StandardFlowWithEmptyBins(t *testing.T) {
	session, err := NewSession(standardChunk(), 3, neverSpotCheck)
	require.NoError(t, err)

	printer := &fakePrinter{}
	completer := &fakeCompleter{}
	ctx := context.Background()

	// bin 1: ORD-1
	unit, ok := session.Current()
	require.True(t, ok)
	assert.Equal(t, 1, unit.BinNumber)
	assert.Equal(t, StateAwaitingScan, session.State())

	result, err := session.Scan("SKU-A")
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, StateVerified, session.State())

	require.NoError(t, session.Print(ctx, printer, completer))
	assert.Equal(t, StateLabelIssued, session.State())

	state, err := session.Advance()
	require.NoError(t, err)

	// bin 2 is empty: one-tap skip, no scan allowed
	assert.Equal(t, StateEmpty, state)
	_, err = session.Scan("SKU-B")
	assert.ErrorIs(t, err, ErrNotAwaitingScan)

	state, err = session.SkipEmpty()
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingScan, state)

	// bin 3: ORD-2 needs two scans of SKU-B
	_, err = session.Scan("SKU-B")
	require.NoError(t, err)
	result, err = session.Scan("sku-b")
	require.NoError(t, err)
	assert.True(t, result.Verified)

	require.NoError(t, session.Print(ctx, printer, completer))
	state, err = session.Advance()
	require.NoError(t, err)
	assert.Equal(t, StateCartComplete, state)

	assert.Equal(t, [][]string{{"ORD-1"}, {"ORD-2"}}, printer.calls)
	assert.Equal(t, []string{"ORD-1", "ORD-2"}, completer.completed)
}

func TestSession_PrintRequiresVerified(t *testing.T) {
	session, err := NewSession(standardChunk(), 3, neverSpotCheck)
	require.NoError(t, err)

	err = session.Print(context.Background(), &fakePrinter{}, &fakeCompleter{})
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestSession_PrintFailureKeepsStateVerified(t *testing.T) {
	session, err := NewSession(standardChunk(), 3, neverSpotCheck)
	require.NoError(t, err)

	_, err = session.Scan("SKU-A")
	require.NoError(t, err)

	printer := &fakePrinter{err: errors.New("printer offline")}
	completer := &fakeCompleter{}
	err = session.Print(context.Background(), printer, completer)
	assert.Error(t, err)
	assert.Equal(t, StateVerified, session.State())
	assert.Empty(t, completer.completed)

	// retry succeeds
	printer.err = nil
	require.NoError(t, session.Print(context.Background(), printer, completer))
	assert.Equal(t, []string{"ORD-1"}, completer.completed)
}

func TestSession_SkipEmptyOnlyFromEmpty(t *testing.T) {
	session, err := NewSession(standardChunk(), 3, neverSpotCheck)
	require.NoError(t, err)

	_, err = session.SkipEmpty()
	assert.ErrorIs(t, err, ErrNotEmpty)
}

func TestSession_SinglesBinPrintsAllLabelsTogether(t *testing.T) {
	chunk := &domain.Chunk{
		ChunkID:     "CHUNK-singles",
		PickingMode: domain.BatchTypeSingles,
		Orders: []domain.ChunkOrder{
			{OrderNumber: "ORD-1", BinNumber: 1, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{productLine("SKU-A", 1)}},
			{OrderNumber: "ORD-2", BinNumber: 1, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{productLine("SKU-A", 1)}},
			{OrderNumber: "ORD-3", BinNumber: 2, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{productLine("SKU-B", 1)}},
		},
	}

	session, err := NewSession(chunk, 2, neverSpotCheck)
	require.NoError(t, err)

	printer := &fakePrinter{}
	completer := &fakeCompleter{}
	ctx := context.Background()

	result, err := session.Scan("SKU-A")
	require.NoError(t, err)
	assert.True(t, result.Verified)

	require.NoError(t, session.Print(ctx, printer, completer))
	require.Len(t, printer.calls, 1)
	assert.ElementsMatch(t, []string{"ORD-1", "ORD-2"}, printer.calls[0])
	assert.ElementsMatch(t, []string{"ORD-1", "ORD-2"}, completer.completed)

	_, err = session.Advance()
	require.NoError(t, err)

	// next bin re-rolls the spot check draw independently
	_, err = session.Scan("SKU-B")
	require.NoError(t, err)
	require.NoError(t, session.Print(ctx, printer, completer))
	state, err := session.Advance()
	require.NoError(t, err)
	assert.Equal(t, StateCartComplete, state)
}

func TestSession_SinglesSpotCheckRerolledPerBin(t *testing.T) {
	chunk := &domain.Chunk{
		ChunkID:     "CHUNK-singles",
		PickingMode: domain.BatchTypeSingles,
		Orders: []domain.ChunkOrder{
			{OrderNumber: "ORD-1", BinNumber: 1, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{productLine("SKU-A", 1)}},
			{OrderNumber: "ORD-2", BinNumber: 2, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{productLine("SKU-A", 1)}},
		},
	}

	// first bin draws a spot check, second does not
	draws := []float64{0.05, 0.95}
	random := func() float64 {
		d := draws[0]
		draws = draws[1:]
		return d
	}

	session, err := NewSession(chunk, 2, random)
	require.NoError(t, err)

	result, err := session.Scan("SKU-A")
	require.NoError(t, err)
	assert.True(t, result.SpotCheck)
	assert.False(t, result.Verified)

	result, err = session.Scan("SKU-A")
	require.NoError(t, err)
	assert.True(t, result.Verified)

	require.NoError(t, session.Print(context.Background(), &fakePrinter{}, &fakeCompleter{}))
	_, err = session.Advance()
	require.NoError(t, err)

	result, err = session.Scan("SKU-A")
	require.NoError(t, err)
	assert.True(t, result.Verified)
}

func bulkChunk() *domain.Chunk {
	layoutA := []domain.BulkSkuLayoutEntry{
		{SKU: "SKU-A", BinQty: 4, MasterUnitIndex: 0},
		{SKU: "SKU-A", BinQty: 4, MasterUnitIndex: 1},
		{SKU: "SKU-B", BinQty: 2, MasterUnitIndex: 2},
	}
	layoutB := []domain.BulkSkuLayoutEntry{
		{SKU: "SKU-C", BinQty: 1, MasterUnitIndex: 0},
	}
	return &domain.Chunk{
		ChunkID:     "CHUNK-bulk",
		PickingMode: domain.BatchTypeBulk,
		Orders: []domain.ChunkOrder{
			{OrderNumber: "ORD-1", BinNumber: 1, ShelfNumber: 1, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{productLine("SKU-A", 1)}},
			{OrderNumber: "ORD-2", BinNumber: 2, ShelfNumber: 1, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{productLine("SKU-A", 1), productLine("SKU-B", 1)}},
			{OrderNumber: "ORD-3", BinNumber: 1, ShelfNumber: 2, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{productLine("SKU-C", 1)}},
		},
		BulkAssignments: []domain.ChunkBulkBatchAssignment{
			{ShelfNumber: 2, GroupSignature: "sig-b", OrderCount: 1, SkuLayout: layoutB},
			{ShelfNumber: 1, GroupSignature: "sig-a", OrderCount: 2, SkuLayout: layoutA},
		},
	}
}

func TestSession_BulkShelfMajorTraversal(t *testing.T) {
	session, err := NewSession(bulkChunk(), 12, neverSpotCheck)
	require.NoError(t, err)

	printer := &fakePrinter{}
	completer := &fakeCompleter{}
	ctx := context.Background()

	var visited []string
	for {
		unit, ok := session.Current()
		if !ok {
			break
		}
		visited = append(visited, unit.Orders[0].OrderNumber)

		for _, l := range EligibleLines(unit.Orders[0].Lines) {
			for i := 0; i < l.Quantity; i++ {
				_, err := session.Scan(l.SKU)
				require.NoError(t, err)
			}
		}
		require.NoError(t, session.Print(ctx, printer, completer))
		_, err = session.Advance()
		require.NoError(t, err)
	}

	// shelf 1 fully before shelf 2 even though assignments were unsorted
	assert.Equal(t, []string{"ORD-1", "ORD-2", "ORD-3"}, visited)
	assert.Equal(t, StateCartComplete, session.State())
}

func TestSession_BulkHintsAndShelfProgress(t *testing.T) {
	session, err := NewSession(bulkChunk(), 12, neverSpotCheck)
	require.NoError(t, err)

	hints := session.CurrentHints()
	// shelf 1: SKU-A occupies master units 0,1 -> physical bins 1,2
	assert.Equal(t, []int{1, 2}, hints["SKU-A"])

	progress := session.ShelfProgressReport()
	require.Len(t, progress, 2)
	assert.Equal(t, ShelfProgress{ShelfNumber: 1, Shipped: 0, Total: 2}, progress[0])
	assert.Equal(t, ShelfProgress{ShelfNumber: 2, Shipped: 0, Total: 1}, progress[1])

	_, err = session.Scan("SKU-A")
	require.NoError(t, err)
	require.NoError(t, session.Print(context.Background(), &fakePrinter{}, &fakeCompleter{}))
	_, err = session.Advance()
	require.NoError(t, err)

	progress = session.ShelfProgressReport()
	assert.Equal(t, ShelfProgress{ShelfNumber: 1, Shipped: 1, Total: 2}, progress[0])
}

func TestSession_ResumedCartSkipsShippedOrders(t *testing.T) {
	chunk := standardChunk()
	chunk.Orders[0].Status = domain.OrderStatusShipped

	session, err := NewSession(chunk, 3, neverSpotCheck)
	require.NoError(t, err)

	// ORD-1 already shipped; session opens on the empty bin 2
	assert.Equal(t, StateEmpty, session.State())

	state, err := session.SkipEmpty()
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingScan, state)

	unit, ok := session.Current()
	require.True(t, ok)
	assert.Equal(t, "ORD-2", unit.Orders[0].OrderNumber)
}

func TestSession_ZeroEligibleLinesImmediatelyVerified(t *testing.T) {
	chunk := &domain.Chunk{
		ChunkID:     "CHUNK-x",
		PickingMode: domain.BatchTypeOrderBySize,
		Orders: []domain.ChunkOrder{
			{OrderNumber: "ORD-1", BinNumber: 1, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{
				{SKU: "INS-1", Quantity: 1, Kind: domain.LineKindInsurance},
			}},
		},
	}

	session, err := NewSession(chunk, 1, neverSpotCheck)
	require.NoError(t, err)
	assert.Equal(t, StateVerified, session.State())
}

func TestSession_SinglesExcludedOnlyBinImmediatelyVerified(t *testing.T) {
	chunk := &domain.Chunk{
		ChunkID:     "CHUNK-singles",
		PickingMode: domain.BatchTypeSingles,
		Orders: []domain.ChunkOrder{
			{OrderNumber: "ORD-1", BinNumber: 1, Status: domain.OrderStatusAwaitingShipment, Lines: []domain.OrderLine{
				{SKU: "INS-1", Quantity: 1, Kind: domain.LineKindInsurance},
			}},
		},
	}

	session, err := NewSession(chunk, 1, neverSpotCheck)
	require.NoError(t, err)
	assert.Equal(t, StateVerified, session.State())

	completer := &fakeCompleter{}
	require.NoError(t, session.Print(context.Background(), &fakePrinter{}, completer))
	assert.Equal(t, []string{"ORD-1"}, completer.completed)

	state, err := session.Advance()
	require.NoError(t, err)
	assert.Equal(t, StateCartComplete, state)
}
