package binlayout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

func makeOrders(n int) []domain.ChunkOrder {
	orders := make([]domain.ChunkOrder, n)
	for i := range orders {
		orders[i] = domain.ChunkOrder{OrderNumber: "ORD-" + string(rune('A'+i))}
	}
	return orders
}

func TestBinCount(t *testing.T) {
	assert.Equal(t, 12, BinCount("Batch 7"))
	assert.Equal(t, 6, BinCount("O-Batch 7"))
}

func TestAssignBins(t *testing.T) {
	orders := makeOrders(3)

	assigned, err := AssignBins(orders, StandardBinCount)
	require.NoError(t, err)
	for i, o := range assigned {
		assert.Equal(t, i+1, o.BinNumber)
	}

	// the input slice is not mutated
	assert.Zero(t, orders[0].BinNumber)

	_, err = AssignBins(makeOrders(7), OversizedBinCount)
	assert.ErrorIs(t, err, ErrTooManyOrders)
}

func TestPhysicalBin(t *testing.T) {
	tests := []struct {
		name        string
		unitIndex   int
		shelfNumber int
		want        int
	}{
		{name: "first position shelf 1", unitIndex: 0, shelfNumber: 1, want: 1},
		{name: "last position shelf 1", unitIndex: 3, shelfNumber: 1, want: 4},
		{name: "first position shelf 2", unitIndex: 0, shelfNumber: 2, want: 5},
		{name: "last position shelf 3", unitIndex: 3, shelfNumber: 3, want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := domain.BulkSkuLayoutEntry{MasterUnitIndex: tt.unitIndex}
			assert.Equal(t, tt.want, PhysicalBin(entry, tt.shelfNumber))
		})
	}
}

func TestGroupByShelf(t *testing.T) {
	orders := makeOrders(10)
	shelves := []domain.ChunkBulkBatchAssignment{
		// deliberately unsorted; grouping is by ascending shelf number
		{ShelfNumber: 2, OrderCount: 5},
		{ShelfNumber: 1, OrderCount: 3},
		{ShelfNumber: 3, OrderCount: 2},
	}

	groups, err := GroupByShelf(shelves, orders)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, orders[0:3], groups[0])
	assert.Equal(t, orders[3:8], groups[1])
	assert.Equal(t, orders[8:10], groups[2])
}

func TestGroupByShelf_ShortOrderList(t *testing.T) {
	// picking skipped out-of-stock orders; trailing shelves get what remains
	orders := makeOrders(4)
	shelves := []domain.ChunkBulkBatchAssignment{
		{ShelfNumber: 1, OrderCount: 3},
		{ShelfNumber: 2, OrderCount: 3},
	}

	groups, err := GroupByShelf(shelves, orders)
	require.NoError(t, err)
	assert.Len(t, groups[0], 3)
	assert.Len(t, groups[1], 1)
}

func TestGroupByShelf_TooManyShelves(t *testing.T) {
	shelves := make([]domain.ChunkBulkBatchAssignment, 4)
	for i := range shelves {
		shelves[i].ShelfNumber = i + 1
	}

	_, err := GroupByShelf(shelves, makeOrders(4))
	assert.ErrorIs(t, err, ErrTooManyShelves)
}

func TestStampShelfNumbers(t *testing.T) {
	orders := makeOrders(5)
	shelves := []domain.ChunkBulkBatchAssignment{
		{ShelfNumber: 3, OrderCount: 2},
		{ShelfNumber: 1, OrderCount: 3},
	}

	stamped, err := StampShelfNumbers(shelves, orders)
	require.NoError(t, err)
	require.Len(t, stamped, 5)

	for _, o := range stamped[0:3] {
		assert.Equal(t, 1, o.ShelfNumber)
	}
	for _, o := range stamped[3:5] {
		assert.Equal(t, 3, o.ShelfNumber)
	}
}

func TestStampShelfNumbers_CapacityExceeded(t *testing.T) {
	shelves := []domain.ChunkBulkBatchAssignment{
		{ShelfNumber: 1, OrderCount: 3},
		{ShelfNumber: 2, OrderCount: 2},
	}

	// a sixth order has no shelf to land on and must not be dropped
	_, err := StampShelfNumbers(shelves, makeOrders(6))
	assert.ErrorIs(t, err, ErrShelfCapacityExceeded)
}

func TestBinsForSKU(t *testing.T) {
	shelf := domain.ChunkBulkBatchAssignment{
		ShelfNumber: 2,
		SkuLayout: []domain.BulkSkuLayoutEntry{
			{SKU: "SKU-A", MasterUnitIndex: 3},
			{SKU: "SKU-B", MasterUnitIndex: 1},
			{SKU: "sku-a", MasterUnitIndex: 0},
		},
	}

	assert.Equal(t, []int{5, 8}, BinsForSKU(shelf, "SKU-A"))
	assert.Equal(t, []int{6}, BinsForSKU(shelf, "SKU-B"))
	assert.Empty(t, BinsForSKU(shelf, "SKU-C"))
}

func TestOccupiedBins(t *testing.T) {
	orders := []domain.ChunkOrder{
		{OrderNumber: "ORD-1", BinNumber: 1},
		{OrderNumber: "ORD-2", BinNumber: 3},
		{OrderNumber: "ORD-3"}, // unassigned
	}

	occupied := OccupiedBins(orders)
	assert.True(t, occupied[1])
	assert.True(t, occupied[3])
	assert.False(t, occupied[2])
}
