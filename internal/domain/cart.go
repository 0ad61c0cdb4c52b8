package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrCartNotFound  = errors.New("cart not found")
	ErrCartInUse     = errors.New("cart is already in use")
	ErrCartAvailable = errors.New("cart is not checked out")
)

// CartStatus represents the availability of a pick cart
type CartStatus string

const (
	CartStatusAvailable CartStatus = "AVAILABLE"
	CartStatusInUse     CartStatus = "IN_USE"
)

// WorkPhase is the fulfillment stage a cart is checked out for
type WorkPhase string

const (
	PhasePicking   WorkPhase = "picking"
	PhaseShipping  WorkPhase = "shipping"
	PhaseEngraving WorkPhase = "engraving"
)

// IsValid checks if the phase is valid
func (p WorkPhase) IsValid() bool {
	switch p {
	case PhasePicking, PhaseShipping, PhaseEngraving:
		return true
	default:
		return false
	}
}

// PickCart is a physical multi-bin cart. The cart's status field is the
// store-level arbiter of exclusive station ownership.
type PickCart struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	CartID       string             `bson:"cartId"`
	Name         string             `bson:"name"`
	Color        string             `bson:"color,omitempty"`
	Status       CartStatus         `bson:"status"`
	CheckedOutBy string             `bson:"checkedOutBy,omitempty"`
	Phase        WorkPhase          `bson:"phase,omitempty"`
	ChunkID      string             `bson:"chunkId,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// Checkout claims the cart for one station. A cart already IN_USE is a
// conflict the caller surfaces as a rejected checkout.
func (c *PickCart) Checkout(workerName string, phase WorkPhase) error {
	if c.Status == CartStatusInUse {
		return ErrCartInUse
	}
	c.Status = CartStatusInUse
	c.CheckedOutBy = workerName
	c.Phase = phase
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// BindChunk records the chunk this cart is carrying
func (c *PickCart) BindChunk(chunkID string) {
	c.ChunkID = chunkID
	c.UpdatedAt = time.Now().UTC()
}

// Release returns the cart to the available pool
func (c *PickCart) Release() {
	c.Status = CartStatusAvailable
	c.CheckedOutBy = ""
	c.Phase = ""
	c.UpdatedAt = time.Now().UTC()
}

// PickCell is a named physical picking zone
type PickCell struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	CellID    string             `bson:"cellId"`
	Name      string             `bson:"name"`
	Active    bool               `bson:"active"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}
