// Package labels talks to the shipping-label collaborator. The core treats
// printing as a single opaque action per verified unit.
package labels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
	"github.com/wms-platform/fulfillment-service/pkg/resilience"
)

// Config holds label service client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns client settings for a local label service
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:8090",
		Timeout: 30 * time.Second,
	}
}

type printRequest struct {
	OrderNumbers []string `json:"orderNumbers"`
}

type printResponse struct {
	Printed int    `json:"printed"`
	Error   string `json:"error,omitempty"`
}

// Client issues shipping labels through the label service. Calls go through
// a circuit breaker so a dead printer backend fails fast at the station
// instead of hanging every session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
}

// NewClient creates a label service client
func NewClient(config *Config, logger *logging.Logger, m *metrics.Metrics) *Client {
	componentLogger := logger.WithComponent("labels")

	breaker := resilience.NewCircuitBreaker(
		resilience.DefaultCircuitBreakerConfig("label-service"),
		componentLogger.Logger,
		func(name string) {
			m.RecordCircuitBreakerTrip(name)
		},
	)

	return &Client{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		breaker: breaker,
		logger:  componentLogger,
	}
}

// PrintLabels requests one label per order number in a single action.
// Implements verification.LabelPrinter.
func (c *Client) PrintLabels(ctx context.Context, orderNumbers []string) error {
	if len(orderNumbers) == 0 {
		return nil
	}

	_, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, c.print(ctx, orderNumbers)
	})
	if err != nil {
		c.logger.WithContext(ctx).Error("Label print failed",
			"order_numbers", orderNumbers,
			"error", err,
		)
		return err
	}

	c.logger.WithContext(ctx).Info("Labels printed", "count", len(orderNumbers))
	return nil
}

func (c *Client) print(ctx context.Context, orderNumbers []string) error {
	body, err := json.Marshal(printRequest{OrderNumbers: orderNumbers})
	if err != nil {
		return fmt.Errorf("failed to marshal print request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/labels/print", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call label service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var pr printResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&pr); decodeErr == nil && pr.Error != "" {
			return fmt.Errorf("label service returned status %d: %s", resp.StatusCode, pr.Error)
		}
		return fmt.Errorf("label service returned status %d", resp.StatusCode)
	}

	return nil
}
