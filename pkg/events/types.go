package events

import (
	"time"
)

// EventType constants for fulfillment domain events
const (
	// Batch events
	BatchCreated   = "wms.fulfillment.batch.created"
	BatchReordered = "wms.fulfillment.batch.reordered"
	BatchDeleted   = "wms.fulfillment.batch.deleted"
	BatchCompleted = "wms.fulfillment.batch.completed"
	QueueReset     = "wms.fulfillment.queue.reset"

	// Picking events
	ChunkCheckedOut = "wms.fulfillment.chunk.checked-out"
	ChunkPicked     = "wms.fulfillment.chunk.picked"

	// Shipping events
	OrderShipped  = "wms.fulfillment.order.shipped"
	CartCompleted = "wms.fulfillment.cart.completed"

	// Engraving events
	EngravingStarted   = "wms.fulfillment.engraving.started"
	ItemEngraved       = "wms.fulfillment.engraving.item-engraved"
	EngravingCompleted = "wms.fulfillment.engraving.completed"
	EngravingCancelled = "wms.fulfillment.engraving.cancelled"
)

// Source is the CloudEvents source identifier for this service
const Source = "/wms/fulfillment-service"

// CloudEvent is a CloudEvents v1.0 compliant envelope
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	BatchID       string `json:"wmsbatchid,omitempty"`
}
