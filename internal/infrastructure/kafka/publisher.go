// Package kafka publishes fulfillment domain events as CloudEvents for
// dashboard and downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wms-platform/fulfillment-service/pkg/events"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

// Config holds producer settings
type Config struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
}

// DefaultConfig returns producer settings suitable for a single-broker
// development setup
func DefaultConfig() *Config {
	return &Config{
		Brokers:      []string{"localhost:9092"},
		Topic:        "wms.fulfillment.events",
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
	}
}

// Publisher writes CloudEvents to the fulfillment events topic
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewPublisher creates a publisher for the configured topic
func NewPublisher(config *Config, logger *logging.Logger, m *metrics.Metrics) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(config.RequiredAcks),
		Async:        false,
	}

	return &Publisher{
		writer:  writer,
		topic:   config.Topic,
		logger:  logger.WithComponent("kafka"),
		metrics: m,
	}
}

// Publish writes one CloudEvent. The event's subject keys the message so
// per-entity ordering is preserved within a partition.
func (p *Publisher) Publish(ctx context.Context, event *events.CloudEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Subject),
		Value: data,
		Headers: []kafka.Header{
			{Key: "ce-specversion", Value: []byte(event.SpecVersion)},
			{Key: "ce-type", Value: []byte(event.Type)},
			{Key: "ce-source", Value: []byte(event.Source)},
			{Key: "ce-id", Value: []byte(event.ID)},
			{Key: "ce-time", Value: []byte(event.Time.Format(time.RFC3339))},
			{Key: "content-type", Value: []byte(event.DataContentType)},
		},
		Time: event.Time,
	}

	if event.CorrelationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{
			Key:   "ce-wmscorrelationid",
			Value: []byte(event.CorrelationID),
		})
	}

	if event.BatchID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{
			Key:   "ce-wmsbatchid",
			Value: []byte(event.BatchID),
		})
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, msg)
	duration := time.Since(start)

	p.metrics.RecordKafkaPublish(p.topic, event.Type, duration, err)
	p.logger.KafkaPublish(ctx, p.topic, event.Type, err == nil, duration)

	if err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
