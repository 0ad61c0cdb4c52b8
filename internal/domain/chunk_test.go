package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunkOrders() []ChunkOrder {
	return []ChunkOrder{
		{OrderNumber: "ORD-1", BinNumber: 1, Lines: []OrderLine{{SKU: "SKU-A", Quantity: 1, Kind: LineKindProduct}}},
		{OrderNumber: "ORD-2", BinNumber: 2, Lines: []OrderLine{{SKU: "SKU-B", Quantity: 2, Kind: LineKindProduct}}},
		{OrderNumber: "ORD-3", BinNumber: 3, Lines: []OrderLine{{SKU: "SKU-C", Quantity: 1, Kind: LineKindProduct}}},
	}
}

func testChunk(t *testing.T) *Chunk {
	t.Helper()
	batch, err := NewBatch("Batch 1", BatchTypeOrderBySize, false, 3, []string{"CELL-1"})
	require.NoError(t, err)

	chunk, err := NewChunk(batch, "CART-1", 1, testChunkOrders())
	require.NoError(t, err)
	return chunk
}

func TestNewChunk(t *testing.T) {
	chunk := testChunk(t)

	assert.Equal(t, ChunkStatusPicking, chunk.Status)
	assert.Equal(t, BatchTypeOrderBySize, chunk.PickingMode)
	assert.Equal(t, "CART-1", chunk.CartID)
	for _, o := range chunk.Orders {
		assert.Equal(t, OrderStatusAwaitingShipment, o.Status)
	}
	assert.Len(t, chunk.GetDomainEvents(), 1)

	batch, err := NewBatch("Batch 2", BatchTypeSingles, false, 1, []string{"CELL-1"})
	require.NoError(t, err)
	_, err = NewChunk(batch, "CART-1", 1, nil)
	assert.ErrorIs(t, err, ErrNoOrders)
}

func TestChunk_MarkOrderShipped(t *testing.T) {
	chunk := testChunk(t)
	chunk.ClearDomainEvents()

	require.NoError(t, chunk.MarkOrderShipped("ORD-2", "TRK-9", "https://labels/9.pdf"))

	order, err := chunk.FindOrder("ORD-2")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, order.Status)
	assert.Equal(t, "TRK-9", order.TrackingNumber)
	require.NotNil(t, order.ShippedAt)

	// a bin must not be double-shipped
	assert.ErrorIs(t, chunk.MarkOrderShipped("ORD-2", "TRK-10", ""), ErrOrderAlreadyShipped)

	assert.ErrorIs(t, chunk.MarkOrderShipped("ORD-9", "", ""), ErrOrderNotInChunk)

	assert.False(t, chunk.AllShipped())
	assert.Equal(t, 1, chunk.ShippedCount())

	require.NoError(t, chunk.MarkOrderShipped("ORD-1", "", ""))
	require.NoError(t, chunk.MarkOrderShipped("ORD-3", "", ""))
	assert.True(t, chunk.AllShipped())
	assert.Len(t, chunk.GetDomainEvents(), 3)
}

func TestChunk_Complete(t *testing.T) {
	chunk := testChunk(t)

	require.NoError(t, chunk.Complete())
	assert.Equal(t, ChunkStatusCompleted, chunk.Status)
	require.NotNil(t, chunk.CompletedAt)
	assert.ErrorIs(t, chunk.Complete(), ErrChunkCompleted)
	assert.ErrorIs(t, chunk.MarkPicked(), ErrChunkCompleted)
}

func TestChunk_OrdersOnShelf_Explicit(t *testing.T) {
	chunk := testChunk(t)
	chunk.Orders[0].ShelfNumber = 2
	chunk.Orders[1].ShelfNumber = 1
	chunk.Orders[2].ShelfNumber = 2

	shelf2 := chunk.OrdersOnShelf(2)
	require.Len(t, shelf2, 2)
	assert.Equal(t, "ORD-1", shelf2[0].OrderNumber)
	assert.Equal(t, "ORD-3", shelf2[1].OrderNumber)

	assert.Len(t, chunk.OrdersOnShelf(1), 1)
	assert.Empty(t, chunk.OrdersOnShelf(3))
}

func TestChunk_OrdersOnShelf_PositionalFallback(t *testing.T) {
	// legacy chunks carry no shelf numbers; grouping consumes each shelf's
	// orderCount over the bin-sorted list
	chunk := testChunk(t)
	chunk.AssignBulkShelves([]ChunkBulkBatchAssignment{
		{ShelfNumber: 1, GroupSignature: "sig-a", OrderCount: 2},
		{ShelfNumber: 2, GroupSignature: "sig-b", OrderCount: 1},
	})

	shelf1 := chunk.OrdersOnShelf(1)
	require.Len(t, shelf1, 2)
	assert.Equal(t, "ORD-1", shelf1[0].OrderNumber)
	assert.Equal(t, "ORD-2", shelf1[1].OrderNumber)

	shelf2 := chunk.OrdersOnShelf(2)
	require.Len(t, shelf2, 1)
	assert.Equal(t, "ORD-3", shelf2[0].OrderNumber)
}

func TestChunk_EngravingProgress(t *testing.T) {
	chunk := testChunk(t)

	assert.False(t, chunk.HasEngravingSession())

	chunk.AttachEngraver("casey")
	assert.Equal(t, ChunkStatusEngraving, chunk.Status)
	assert.True(t, chunk.HasEngravingSession())
	require.NotNil(t, chunk.EngravingProgress)

	chunk.RecordEngravedItem(0, 0)
	chunk.RecordEngravedItem(2, 1500)
	chunk.RecordEngravedItem(2, 1500) // idempotent

	assert.Equal(t, []int{0, 2}, chunk.EngravingProgress.CompletedItems)
	assert.Equal(t, 3, chunk.EngravingProgress.CurrentIndex)
	assert.Equal(t, int64(1500), chunk.EngravingProgress.TotalPausedMs)

	// completing an earlier item never moves the cursor backwards
	chunk.RecordEngravedItem(1, 2000)
	assert.Equal(t, 3, chunk.EngravingProgress.CurrentIndex)

	chunk.ClearEngravingSession()
	assert.False(t, chunk.HasEngravingSession())
	assert.Nil(t, chunk.EngravingProgress)
	assert.Empty(t, chunk.EngraverName)
}

func TestChunk_EngravingLifecycleEvents(t *testing.T) {
	chunk := testChunk(t)
	chunk.ClearDomainEvents()

	chunk.AttachEngraver("casey")
	events := chunk.GetDomainEvents()
	require.Len(t, events, 1)
	started, ok := events[0].(*EngravingStartedEvent)
	require.True(t, ok)
	assert.Equal(t, "casey", started.EngraverName)
	assert.False(t, started.Resumed)
	chunk.ClearDomainEvents()

	// a second attach with existing progress is a resume
	chunk.AttachEngraver("casey")
	events = chunk.GetDomainEvents()
	require.Len(t, events, 1)
	started = events[0].(*EngravingStartedEvent)
	assert.True(t, started.Resumed)
	chunk.ClearDomainEvents()

	chunk.CompleteEngraving(120, 30, 4)
	assert.False(t, chunk.HasEngravingSession())
	events = chunk.GetDomainEvents()
	require.Len(t, events, 1)
	completed, ok := events[0].(*EngravingCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, 120, completed.ActiveSeconds)
	assert.Equal(t, 30, completed.PausedSeconds)
	assert.Equal(t, 4, completed.ItemCount)
}
