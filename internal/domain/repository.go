package domain

import "context"

// DeleteCounts reports what a cascading batch delete removed or detached
type DeleteCounts struct {
	Batches        int `json:"batches"`
	Chunks         int `json:"chunks"`
	OrdersUnlinked int `json:"ordersUnlinked"`
}

// ResetCounts reports what an administrative reset removed or detached
type ResetCounts struct {
	Batches        int `json:"batches"`
	Chunks         int `json:"chunks"`
	OrdersUnlinked int `json:"ordersUnlinked"`
	CartsReset     int `json:"cartsReset"`
}

// BatchRepository defines persistence for the Batch aggregate
type BatchRepository interface {
	Save(ctx context.Context, batch *Batch) error
	FindByBatchID(ctx context.Context, batchID string) (*Batch, error)
	FindByCell(ctx context.Context, cellID string, includeCompleted bool) ([]*Batch, error)
	FindPersonalizedPool(ctx context.Context, includeCompleted bool) ([]*Batch, error)
	FindAll(ctx context.Context) ([]*Batch, error)
	Update(ctx context.Context, batch *Batch) error

	// DeleteCascade atomically detaches the batch's orders and removes the
	// batch with its chunks. Orders are never deleted, only unlinked.
	DeleteCascade(ctx context.Context, batchID string) (DeleteCounts, error)

	// ResetAll detaches every order, removes all batches and chunks, and
	// returns every cart to AVAILABLE. Idempotent.
	ResetAll(ctx context.Context) (ResetCounts, error)
}

// ChunkRepository defines persistence for the Chunk aggregate
type ChunkRepository interface {
	Save(ctx context.Context, chunk *Chunk) error
	FindByChunkID(ctx context.Context, chunkID string) (*Chunk, error)
	FindByBatchID(ctx context.Context, batchID string) ([]*Chunk, error)
	FindByCartID(ctx context.Context, cartID string) (*Chunk, error)
	Update(ctx context.Context, chunk *Chunk) error
}

// CartRepository defines persistence for pick carts
type CartRepository interface {
	FindByCartID(ctx context.Context, cartID string) (*PickCart, error)
	FindAll(ctx context.Context) ([]*PickCart, error)
	FindAvailable(ctx context.Context) ([]*PickCart, error)
	Update(ctx context.Context, cart *PickCart) error

	// ClaimCart atomically flips an AVAILABLE cart to IN_USE; returns
	// ErrCartInUse when another station holds it.
	ClaimCart(ctx context.Context, cartID, workerName string, phase WorkPhase) (*PickCart, error)
}

// CellRepository defines persistence for pick cells
type CellRepository interface {
	FindByCellID(ctx context.Context, cellID string) (*PickCell, error)
	FindAll(ctx context.Context, activeOnly bool) ([]*PickCell, error)
}
