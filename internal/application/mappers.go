package application

import (
	"github.com/samber/lo"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

// ToBatchDTO converts a domain Batch to BatchDTO
func ToBatchDTO(batch *domain.Batch) *BatchDTO {
	if batch == nil {
		return nil
	}

	dto := &BatchDTO{
		BatchID:        batch.BatchID,
		Name:           batch.Name,
		Type:           string(batch.Type),
		IsPersonalized: batch.IsPersonalized,
		Status:         string(batch.Status),
		TotalOrders:    batch.TotalOrders,
		PickedOrders:   batch.PickedOrders,
		ShippedOrders:  batch.ShippedOrders,
		EngravedOrders: batch.EngravedOrders,
		BulkGroups:     lo.Map(batch.BulkGroups, func(g domain.BulkBatchInfo, _ int) BulkGroupDTO { return toBulkGroupDTO(g) }),
		CellAssignments: lo.Map(batch.CellAssignments, func(a domain.CellAssignment, _ int) CellAssignmentDTO {
			return CellAssignmentDTO{CellID: a.CellID, Priority: a.Priority}
		}),
		CreatedAt:   batch.CreatedAt,
		CompletedAt: batch.CompletedAt,
	}

	if batch.TotalOrders > 0 {
		dto.PickedFraction = float64(batch.PickedOrders) / float64(batch.TotalOrders)
		dto.ShippedFraction = float64(batch.ShippedOrders) / float64(batch.TotalOrders)
	}
	return dto
}

func toBulkGroupDTO(group domain.BulkBatchInfo) BulkGroupDTO {
	return BulkGroupDTO{
		GroupSignature: group.GroupSignature,
		OrderCount:     group.OrderCount,
		SplitIndex:     group.SplitIndex,
		TotalSplits:    group.TotalSplits,
		Status:         string(group.Status),
		SkuLayout:      toSkuLayoutDTOs(group.SkuLayout),
	}
}

func toSkuLayoutDTOs(layout []domain.BulkSkuLayoutEntry) []SkuLayoutDTO {
	return lo.Map(layout, func(e domain.BulkSkuLayoutEntry, _ int) SkuLayoutDTO {
		return SkuLayoutDTO{SKU: e.SKU, BinQty: e.BinQty, MasterUnitIndex: e.MasterUnitIndex}
	})
}

// ToChunkDTO converts a domain Chunk to ChunkDTO, deriving per-shelf
// shipped counts for bulk chunks
func ToChunkDTO(chunk *domain.Chunk) *ChunkDTO {
	if chunk == nil {
		return nil
	}

	dto := &ChunkDTO{
		ChunkID:        chunk.ChunkID,
		BatchID:        chunk.BatchID,
		CartID:         chunk.CartID,
		ChunkNumber:    chunk.ChunkNumber,
		Status:         string(chunk.Status),
		PickingMode:    string(chunk.PickingMode),
		IsPersonalized: chunk.IsPersonalized,
		Orders:         lo.Map(chunk.Orders, func(o domain.ChunkOrder, _ int) ChunkOrderDTO { return toChunkOrderDTO(o) }),
		EngraverName:   chunk.EngraverName,
		CreatedAt:      chunk.CreatedAt,
	}

	if chunk.EngravingProgress != nil {
		dto.Engraving = &EngravingDTO{
			CompletedItems: chunk.EngravingProgress.CompletedItems,
			CurrentIndex:   chunk.EngravingProgress.CurrentIndex,
			TotalPausedMs:  chunk.EngravingProgress.TotalPausedMs,
		}
	}

	for _, shelf := range chunk.BulkAssignments {
		shipped := lo.CountBy(chunk.OrdersOnShelf(shelf.ShelfNumber), func(o domain.ChunkOrder) bool {
			return o.Status == domain.OrderStatusShipped
		})
		dto.Shelves = append(dto.Shelves, ShelfDTO{
			ShelfNumber:    shelf.ShelfNumber,
			GroupSignature: shelf.GroupSignature,
			OrderCount:     shelf.OrderCount,
			Shipped:        shipped,
			SkuLayout:      toSkuLayoutDTOs(shelf.SkuLayout),
		})
	}
	return dto
}

func toChunkOrderDTO(order domain.ChunkOrder) ChunkOrderDTO {
	return ChunkOrderDTO{
		OrderNumber: order.OrderNumber,
		BinNumber:   order.BinNumber,
		ShelfNumber: order.ShelfNumber,
		Status:      string(order.Status),
		Lines: lo.Map(order.Lines, func(l domain.OrderLine, _ int) OrderLineDTO {
			return OrderLineDTO{
				SKU:                  l.SKU,
				Name:                 l.Name,
				Quantity:             l.Quantity,
				Kind:                 string(l.Kind),
				CustomizationBarcode: l.CustomizationBarcode,
			}
		}),
		TrackingNumber: order.TrackingNumber,
		ShippedAt:      order.ShippedAt,
	}
}

// ToCartDTO converts a domain PickCart to CartDTO
func ToCartDTO(cart *domain.PickCart) *CartDTO {
	if cart == nil {
		return nil
	}
	return &CartDTO{
		CartID:       cart.CartID,
		Name:         cart.Name,
		Color:        cart.Color,
		Status:       string(cart.Status),
		CheckedOutBy: cart.CheckedOutBy,
		Phase:        string(cart.Phase),
		ChunkID:      cart.ChunkID,
	}
}

// ToCellDTO converts a domain PickCell to CellDTO
func ToCellDTO(cell *domain.PickCell) *CellDTO {
	if cell == nil {
		return nil
	}
	return &CellDTO{CellID: cell.CellID, Name: cell.Name, Active: cell.Active}
}
