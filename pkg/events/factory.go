package events

import (
	"time"

	"github.com/google/uuid"
)

// Factory creates CloudEvents for fulfillment domain events
type Factory struct {
	source string
}

// NewFactory creates a new Factory for a specific source
func NewFactory(source string) *Factory {
	return &Factory{source: source}
}

// New creates a new CloudEvent with the given parameters
func (f *Factory) New(eventType, subject string, data interface{}) *CloudEvent {
	return &CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
}

// NewForBatch creates a new CloudEvent tagged with a batch extension
func (f *Factory) NewForBatch(eventType, subject, batchID string, data interface{}) *CloudEvent {
	event := f.New(eventType, subject, data)
	event.BatchID = batchID
	return event
}
