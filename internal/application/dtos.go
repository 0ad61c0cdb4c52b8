package application

import "time"

// BatchDTO represents a batch in responses
type BatchDTO struct {
	BatchID         string              `json:"batchId"`
	Name            string              `json:"name"`
	Type            string              `json:"type"`
	IsPersonalized  bool                `json:"isPersonalized"`
	Status          string              `json:"status"`
	TotalOrders     int                 `json:"totalOrders"`
	PickedOrders    int                 `json:"pickedOrders"`
	ShippedOrders   int                 `json:"shippedOrders"`
	EngravedOrders  int                 `json:"engravedOrders"`
	PickedFraction  float64             `json:"pickedFraction"`
	ShippedFraction float64             `json:"shippedFraction"`
	BulkGroups      []BulkGroupDTO      `json:"bulkGroups,omitempty"`
	CellAssignments []CellAssignmentDTO `json:"cellAssignments"`
	CreatedAt       time.Time           `json:"createdAt"`
	CompletedAt     *time.Time          `json:"completedAt,omitempty"`
}

// BulkGroupDTO represents one identical-order sub-group of a bulk batch
type BulkGroupDTO struct {
	GroupSignature string         `json:"groupSignature"`
	OrderCount     int            `json:"orderCount"`
	SplitIndex     int            `json:"splitIndex"`
	TotalSplits    int            `json:"totalSplits"`
	Status         string         `json:"status"`
	SkuLayout      []SkuLayoutDTO `json:"skuLayout"`
}

// SkuLayoutDTO represents one physical bin position on a bulk shelf
type SkuLayoutDTO struct {
	SKU             string `json:"sku"`
	BinQty          int    `json:"binQty"`
	MasterUnitIndex int    `json:"masterUnitIndex"`
}

// CellAssignmentDTO represents a batch-to-cell link with its priority
type CellAssignmentDTO struct {
	CellID   string `json:"cellId"`
	Priority int    `json:"priority"`
}

// CellQueueDTO is one cell's ordered batch queue
type CellQueueDTO struct {
	CellID  string     `json:"cellId"`
	Batches []BatchDTO `json:"batches"`
}

// ChunkDTO represents a chunk in responses
type ChunkDTO struct {
	ChunkID        string          `json:"chunkId"`
	BatchID        string          `json:"batchId"`
	CartID         string          `json:"cartId"`
	ChunkNumber    int             `json:"chunkNumber"`
	Status         string          `json:"status"`
	PickingMode    string          `json:"pickingMode"`
	IsPersonalized bool            `json:"isPersonalized"`
	Orders         []ChunkOrderDTO `json:"orders"`
	Shelves        []ShelfDTO      `json:"shelves,omitempty"`
	EngraverName   string          `json:"engraverName,omitempty"`
	Engraving      *EngravingDTO   `json:"engraving,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ChunkOrderDTO represents one order on a cart
type ChunkOrderDTO struct {
	OrderNumber    string         `json:"orderNumber"`
	BinNumber      int            `json:"binNumber"`
	ShelfNumber    int            `json:"shelfNumber,omitempty"`
	Status         string         `json:"status"`
	Lines          []OrderLineDTO `json:"lines"`
	TrackingNumber string         `json:"trackingNumber,omitempty"`
	ShippedAt      *time.Time     `json:"shippedAt,omitempty"`
}

// OrderLineDTO represents one line item of an order
type OrderLineDTO struct {
	SKU                  string `json:"sku"`
	Name                 string `json:"name"`
	Quantity             int    `json:"quantity"`
	Kind                 string `json:"kind"`
	CustomizationBarcode string `json:"customizationBarcode,omitempty"`
}

// ShelfDTO represents one bulk shelf assignment with its derived progress
type ShelfDTO struct {
	ShelfNumber    int            `json:"shelfNumber"`
	GroupSignature string         `json:"groupSignature"`
	OrderCount     int            `json:"orderCount"`
	Shipped        int            `json:"shipped"`
	SkuLayout      []SkuLayoutDTO `json:"skuLayout"`
}

// EngravingDTO represents persisted engraving progress
type EngravingDTO struct {
	CompletedItems []int `json:"completedItems"`
	CurrentIndex   int   `json:"currentIndex"`
	TotalPausedMs  int64 `json:"totalPausedMs"`
}

// CartDTO represents a pick cart in responses
type CartDTO struct {
	CartID       string `json:"cartId"`
	Name         string `json:"name"`
	Color        string `json:"color,omitempty"`
	Status       string `json:"status"`
	CheckedOutBy string `json:"checkedOutBy,omitempty"`
	Phase        string `json:"phase,omitempty"`
	ChunkID      string `json:"chunkId,omitempty"`
}

// CellDTO represents a pick cell in responses
type CellDTO struct {
	CellID string `json:"cellId"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// DeleteResultDTO reports what a cascading delete removed or detached
type DeleteResultDTO struct {
	Batches        int `json:"batches"`
	Chunks         int `json:"chunks"`
	OrdersUnlinked int `json:"ordersUnlinked"`
}

// ResetResultDTO reports what an administrative reset removed or detached
type ResetResultDTO struct {
	Batches        int `json:"batches"`
	Chunks         int `json:"chunks"`
	OrdersUnlinked int `json:"ordersUnlinked"`
	CartsReset     int `json:"cartsReset"`
}

// EngravingReportDTO is the final timing report of a completed session
type EngravingReportDTO struct {
	ActiveSeconds int64 `json:"activeSeconds"`
	PausedSeconds int64 `json:"pausedSeconds"`
	ItemCount     int   `json:"itemCount"`
}
