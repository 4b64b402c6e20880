// Package gateway is the TextBee SMS API client. The pipeline only
// depends on the two endpoints it consumes: sending a message to one
// recipient and querying the delivery status of a batch.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every gateway call.
const DefaultTimeout = 30 * time.Second

// APIError is a non-success HTTP response from the gateway. The
// dispatcher treats it as fatal for the run so a systemic outage never
// masquerades as a string of isolated per-customer failures.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the TextBee gateway for a single device.
type Client struct {
	baseURL  string
	apiKey   string
	deviceID string
	client   *http.Client
}

// NewClient creates a gateway client. An empty baseURL selects the
// public TextBee API.
func NewClient(baseURL, apiKey, deviceID string) *Client {
	if baseURL == "" {
		baseURL = "https://api.textbee.dev/api/v1"
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		deviceID: deviceID,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

type sendRequest struct {
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

type sendResponse struct {
	Data struct {
		SMSBatchID string `json:"smsBatchId"`
	} `json:"data"`
}

// SendSMS sends one message to one recipient and returns the gateway's
// batch id together with the HTTP status code of the acknowledgement
// (201 means accepted).
func (c *Client) SendSMS(ctx context.Context, message, recipient string) (string, int, error) {
	payload := sendRequest{
		Message: message,
		// The gateway wants recipients as an array even for one number.
		Recipients: []string{recipient},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/gateway/devices/%s/send-sms", c.baseURL, c.deviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decode send response: %w", err)
	}
	return result.Data.SMSBatchID, resp.StatusCode, nil
}

type batchResponse struct {
	Data struct {
		Messages []struct {
			Type   string `json:"type"`
			Status string `json:"status"`
		} `json:"messages"`
	} `json:"data"`
}

// BatchStatus queries the current status of a sent batch and returns
// the message type and raw status string of its first message.
func (c *Client) BatchStatus(ctx context.Context, batchID string) (msgType, status string, err error) {
	url := fmt.Sprintf("%s/gateway/devices/%s/sms-batch/%s", c.baseURL, c.deviceID, batchID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("create batch status request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("query batch %s: %w", batchID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", "", &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var result batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", fmt.Errorf("decode batch %s response: %w", batchID, err)
	}
	if len(result.Data.Messages) == 0 {
		return "", "", fmt.Errorf("batch %s has no messages", batchID)
	}
	first := result.Data.Messages[0]
	return first.Type, first.Status, nil
}
