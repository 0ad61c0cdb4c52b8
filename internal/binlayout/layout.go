// Package binlayout derives bin and shelf numbering for a chunk. All
// functions are pure so layouts can be recomputed for display at any time.
package binlayout

import (
	"errors"
	"sort"
	"strings"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

// Physical cart geometry
const (
	StandardBinCount  = 12
	OversizedBinCount = 6
	BinsPerShelf      = 4
	MaxShelves        = 3
)

var (
	ErrTooManyOrders         = errors.New("more orders than bins on the cart")
	ErrTooManyShelves        = errors.New("chunk exceeds the cart's shelf capacity")
	ErrShelfCapacityExceeded = errors.New("order count exceeds the shelves' declared capacity")
)

// BinCount returns the cart bin capacity for a batch. Oversized batches
// (name prefix "O-") and bulk 3-shelf layouts use 6 bins, everything else 12.
func BinCount(batchName string) int {
	if strings.HasPrefix(batchName, domain.OversizedNamePrefix) {
		return OversizedBinCount
	}
	return StandardBinCount
}

// AssignBins numbers orders 1..N in pick order. Bins with no order stay
// empty and are skipped visually during shipping.
func AssignBins(orders []domain.ChunkOrder, binCount int) ([]domain.ChunkOrder, error) {
	if len(orders) > binCount {
		return nil, ErrTooManyOrders
	}
	assigned := make([]domain.ChunkOrder, len(orders))
	copy(assigned, orders)
	for i := range assigned {
		assigned[i].BinNumber = i + 1
	}
	return assigned, nil
}

// PhysicalBin maps a layout entry on a shelf to its cart bin number:
// masterUnitIndex + 1 + (shelf-1)*4 for 1-based shelves of 4 bins.
func PhysicalBin(entry domain.BulkSkuLayoutEntry, shelfNumber int) int {
	return entry.MasterUnitIndex + 1 + (shelfNumber-1)*BinsPerShelf
}

// GroupByShelf splits a chunk's bin-sorted order list into per-shelf slices
// by consuming each shelf's orderCount in shelf order. Shelf i gets
// orders[offset : offset+orderCount]; the grouping is positional, so the
// order list must have been written shelf-major at chunk creation.
func GroupByShelf(shelves []domain.ChunkBulkBatchAssignment, orders []domain.ChunkOrder) ([][]domain.ChunkOrder, error) {
	if len(shelves) > MaxShelves {
		return nil, ErrTooManyShelves
	}

	sorted := make([]domain.ChunkBulkBatchAssignment, len(shelves))
	copy(sorted, shelves)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ShelfNumber < sorted[j].ShelfNumber
	})

	groups := make([][]domain.ChunkOrder, len(sorted))
	offset := 0
	for i, shelf := range sorted {
		end := offset + shelf.OrderCount
		if end > len(orders) {
			end = len(orders)
		}
		if offset < end {
			groups[i] = orders[offset:end]
		} else {
			groups[i] = []domain.ChunkOrder{}
		}
		offset += shelf.OrderCount
	}
	return groups, nil
}

// StampShelfNumbers writes explicit shelf numbers onto orders at chunk
// creation so later grouping does not depend on positional offsets. Every
// order must fit inside the shelves' declared orderCounts.
func StampShelfNumbers(shelves []domain.ChunkBulkBatchAssignment, orders []domain.ChunkOrder) ([]domain.ChunkOrder, error) {
	capacity := 0
	for _, shelf := range shelves {
		capacity += shelf.OrderCount
	}
	if len(orders) > capacity {
		return nil, ErrShelfCapacityExceeded
	}

	groups, err := GroupByShelf(shelves, orders)
	if err != nil {
		return nil, err
	}

	sorted := make([]domain.ChunkBulkBatchAssignment, len(shelves))
	copy(sorted, shelves)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ShelfNumber < sorted[j].ShelfNumber
	})

	stamped := make([]domain.ChunkOrder, 0, len(orders))
	for i, group := range groups {
		for _, o := range group {
			o.ShelfNumber = sorted[i].ShelfNumber
			stamped = append(stamped, o)
		}
	}
	return stamped, nil
}

// BinsForSKU returns the physical bin numbers holding a SKU on a shelf,
// sorted ascending. An order needing multiple units of one SKU may pull
// from several bins.
func BinsForSKU(shelf domain.ChunkBulkBatchAssignment, sku string) []int {
	bins := make([]int, 0, 2)
	for _, entry := range shelf.SkuLayout {
		if strings.EqualFold(entry.SKU, sku) {
			bins = append(bins, PhysicalBin(entry, shelf.ShelfNumber))
		}
	}
	sort.Ints(bins)
	return bins
}

// OccupiedBins returns which bin numbers hold an order, for skipping empty
// bins during the shipping pass.
func OccupiedBins(orders []domain.ChunkOrder) map[int]bool {
	occupied := make(map[int]bool, len(orders))
	for _, o := range orders {
		if o.BinNumber > 0 {
			occupied[o.BinNumber] = true
		}
	}
	return occupied
}
