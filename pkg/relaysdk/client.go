package relaysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is an HTTP client for the relay API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a relay API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendCommand publishes one device command through the relay.
func (c *Client) SendCommand(ctx context.Context, topic, message string) (*PublishedResult, error) {
	var resp CommandResponse
	err := c.post(ctx, "/set-led", CommandRequest{Topic: topic, Message: message}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Published, nil
}

// ResetExpiredPassword escalates an expired temporary password to the
// relay's admin-reset endpoint.
func (c *Client) ResetExpiredPassword(ctx context.Context, username string) error {
	var resp ResetResponse
	return c.post(ctx, "/reset-expired-password", ResetRequest{Username: username}, &resp)
}

func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.BaseURL+path,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("relay returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("relay returned %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
