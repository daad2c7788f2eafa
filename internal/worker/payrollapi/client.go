package payrollapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"punch.reconciler/internal/ports/messaging"
)

// Client is the contract for pushing completed sessions into the payroll
// system.
type Client interface {
	RecordSession(ctx context.Context, event messaging.SessionClosedEvent) error
}

// HTTPClient talks to the payroll system over HTTP.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// RecordSession sends the completed session to the payroll API.
func (c *HTTPClient) RecordSession(ctx context.Context, event messaging.SessionClosedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payroll payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create payroll api request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call payroll api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("payroll api returned non-successful status code: %d", resp.StatusCode)
	}
	return nil
}
