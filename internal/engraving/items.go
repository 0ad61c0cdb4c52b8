// Package engraving manages one engraver's personalization pass over a
// checked-out cart: a bin-sorted item cursor, a pausable active timer, and
// progress persistence that survives transient store failures.
package engraving

import (
	"sort"
	"strings"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

// LegacyPersonalizedSuffix marks personalized SKUs on orders that predate
// customization barcodes
const LegacyPersonalizedSuffix = "-PERS"

// Item is one physical unit to engrave. Index is the item's position in the
// personalized-only, bin-sorted sequence; persisted progress records these
// indices, not positions in the full order list.
type Item struct {
	Index       int    `json:"index"`
	OrderNumber string `json:"orderNumber"`
	BinNumber   int    `json:"binNumber"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Barcode     string `json:"barcode,omitempty"`
}

// IsPersonalizedLine reports whether a line item needs engraving: it
// carries a customization barcode, or its SKU uses the legacy suffix.
func IsPersonalizedLine(line domain.OrderLine) bool {
	if line.Kind != domain.LineKindProduct {
		return false
	}
	if line.CustomizationBarcode != "" {
		return true
	}
	return strings.HasSuffix(strings.ToUpper(line.SKU), LegacyPersonalizedSuffix)
}

// FlattenItems builds the chunk's engraving sequence: personalized line
// items expanded one entry per physical unit, sorted by bin number
// ascending with the chunk's order preserved within a bin.
func FlattenItems(chunk *domain.Chunk) []Item {
	orders := make([]domain.ChunkOrder, len(chunk.Orders))
	copy(orders, chunk.Orders)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].BinNumber < orders[j].BinNumber
	})

	items := make([]Item, 0)
	for _, o := range orders {
		for _, l := range o.Lines {
			if !IsPersonalizedLine(l) {
				continue
			}
			qty := l.Quantity
			if qty < 1 {
				qty = 1
			}
			for u := 0; u < qty; u++ {
				items = append(items, Item{
					Index:       len(items),
					OrderNumber: o.OrderNumber,
					BinNumber:   o.BinNumber,
					SKU:         l.SKU,
					Name:        l.Name,
					Barcode:     l.CustomizationBarcode,
				})
			}
		}
	}
	return items
}
