package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all fulfillment service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Business metrics
	OrdersPicked        *prometheus.CounterVec
	OrdersShipped       *prometheus.CounterVec
	OrdersEngraved      prometheus.Counter
	BatchesCompleted    *prometheus.CounterVec
	ScansRejected       *prometheus.CounterVec
	OverScans           prometheus.Counter
	SpotChecksTriggered prometheus.Counter
	LabelsPrinted       *prometheus.CounterVec
	EngravingRetries    prometheus.Counter
	EngravingRetryQueue prometheus.Gauge

	// Circuit breaker metrics
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a new Metrics instance
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "kafka_events_published_total",
			Help:      "Total number of Kafka events published",
		},
		[]string{"service", "topic", "event_type", "status"},
	)

	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)

	m.MongoDBOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "mongodb_operations_total",
			Help:      "Total number of MongoDB operations",
		},
		[]string{"service", "collection", "operation", "status"},
	)

	m.MongoDBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "mongodb_operation_duration_seconds",
			Help:      "MongoDB operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "collection", "operation"},
	)

	m.OrdersPicked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "orders_picked_total",
			Help:      "Total number of orders picked",
		},
		[]string{"service", "batch_type"},
	)

	m.OrdersShipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "orders_shipped_total",
			Help:      "Total number of orders shipped",
		},
		[]string{"service", "batch_type"},
	)

	m.OrdersEngraved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "orders_engraved_total",
			Help:        "Total number of orders engraved",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.BatchesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "batches_completed_total",
			Help:      "Total number of batches completed",
		},
		[]string{"service", "batch_type"},
	)

	m.ScansRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "scans_rejected_total",
			Help:      "Total number of barcode scans rejected during verification",
		},
		[]string{"service", "protocol", "reason"},
	)

	m.OverScans = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "over_scans_total",
			Help:        "Total number of scans beyond the expected quantity",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.SpotChecksTriggered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "spot_checks_triggered_total",
			Help:        "Total number of singles-mode spot checks triggered",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.LabelsPrinted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "labels_printed_total",
			Help:      "Total number of shipping labels printed",
		},
		[]string{"service", "protocol"},
	)

	m.EngravingRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "engraving_save_retries_total",
			Help:        "Total number of engraving progress save retries",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.EngravingRetryQueue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "engraving_retry_queue_depth",
			Help:        "Current depth of the engraving save retry queue",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_trips_total",
			Help:      "Total number of circuit breaker trips",
		},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.OrdersPicked,
		m.OrdersShipped,
		m.OrdersEngraved,
		m.BatchesCompleted,
		m.ScansRejected,
		m.OverScans,
		m.SpotChecksTriggered,
		m.LabelsPrinted,
		m.EngravingRetries,
		m.EngravingRetryQueue,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns a gin handler serving the metrics endpoint
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// GinMiddleware returns gin middleware recording HTTP metrics
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()

		c.Next()

		m.HTTPRequestsInFlight.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.HTTPRequestsTotal.WithLabelValues(
			m.serviceName, c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.HTTPRequestDuration.WithLabelValues(
			m.serviceName, c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}

// RecordMongoOperation records a MongoDB operation outcome
func (m *Metrics) RecordMongoOperation(collection, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, status).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// RecordKafkaPublish records a Kafka publish outcome
func (m *Metrics) RecordKafkaPublish(topic, eventType string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, status).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordOrdersPicked records picked orders for a batch type
func (m *Metrics) RecordOrdersPicked(batchType string, count int) {
	m.OrdersPicked.WithLabelValues(m.serviceName, batchType).Add(float64(count))
}

// RecordOrderShipped records one shipped order for a batch type
func (m *Metrics) RecordOrderShipped(batchType string) {
	m.OrdersShipped.WithLabelValues(m.serviceName, batchType).Inc()
}

// RecordBatchCompleted records one completed batch
func (m *Metrics) RecordBatchCompleted(batchType string) {
	m.BatchesCompleted.WithLabelValues(m.serviceName, batchType).Inc()
}

// RecordScanRejected records one rejected verification scan
func (m *Metrics) RecordScanRejected(protocol, reason string) {
	m.ScansRejected.WithLabelValues(m.serviceName, protocol, reason).Inc()
}

// RecordLabelsPrinted records issued shipping labels for a protocol
func (m *Metrics) RecordLabelsPrinted(protocol string, count int) {
	m.LabelsPrinted.WithLabelValues(m.serviceName, protocol).Add(float64(count))
}

// RecordCircuitBreakerTrip records one circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}
