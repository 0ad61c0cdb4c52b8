package application

// CreateBatchCommand represents the command to create a new batch
type CreateBatchCommand struct {
	Name           string
	Type           string
	IsPersonalized bool
	TotalOrders    int
	CellIDs        []string
}

// ReorderBatchCommand represents the command to move a batch within one
// cell's queue
type ReorderBatchCommand struct {
	BatchID     string
	CellID      string
	TargetIndex int
}

// EditCellAssignmentsCommand represents the command to replace a batch's
// cell assignment set
type EditCellAssignmentsCommand struct {
	BatchID string
	CellIDs []string
}

// DeleteBatchCommand represents the command to delete a batch and its chunks
type DeleteBatchCommand struct {
	BatchID string
}

// CheckoutCartCommand represents the command to claim a cart for a station
type CheckoutCartCommand struct {
	CartID     string
	WorkerName string
	Phase      string
}

// CompleteOrderCommand represents the command to mark one order shipped
type CompleteOrderCommand struct {
	ChunkID        string
	OrderNumber    string
	TrackingNumber string
	LabelURL       string
}

// CompleteCartCommand represents the command to finish a cart's shipping
// pass and release the cart
type CompleteCartCommand struct {
	CartID  string
	ChunkID string
}

// StartEngravingCommand represents the command to claim a cart for engraving
type StartEngravingCommand struct {
	ChunkID      string
	EngraverName string
}

// MarkEngravedItemCommand represents the command to persist one engraved
// item index
type MarkEngravedItemCommand struct {
	ChunkID       string
	ItemIndex     int
	TotalPausedMs int64
}

// MarkEngravedCommand represents the command to mark an order fully engraved
type MarkEngravedCommand struct {
	ChunkID     string
	OrderNumber string
}

// CompleteEngravingCommand represents the command to finish a chunk's
// engraving phase
type CompleteEngravingCommand struct {
	ChunkID       string
	ActiveSeconds int64
	PausedSeconds int64
	ItemCount     int
}

// CancelEngravingCommand represents the command to release an engraving
// checkout before any item was engraved
type CancelEngravingCommand struct {
	ChunkID string
}

// GetCellQueueQuery represents the query for one cell's batch queue
type GetCellQueueQuery struct {
	CellID           string
	IncludeCompleted bool
}

// GetPersonalizedPoolQuery represents the query for the personalized pool
type GetPersonalizedPoolQuery struct {
	IncludeCompleted bool
}

// GetBatchQuery represents the query to get a batch by ID
type GetBatchQuery struct {
	BatchID string
}

// GetChunkQuery represents the query to get a chunk by ID
type GetChunkQuery struct {
	ChunkID string
}
