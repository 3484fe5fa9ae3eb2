/**
 * @description
 * This package implements the notification worker: the message semantics
 * that run inside the pipeline's consumer loops. This file is the client
 * for the push-notification gateway, an external collaborator that fans
 * the formatted message out to the recipient's devices.
 */

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// PushSender dispatches one formatted notification to a user.
type PushSender interface {
	Send(ctx context.Context, userID int64, title, body string) error
}

// PushClient is an HTTP client for the push gateway.
type PushClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewPushClient creates a new push gateway client.
func NewPushClient(baseURL, apiKey string, timeout time.Duration) *PushClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PushClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type pushRequest struct {
	UserID int64  `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Send delivers one notification. Dispatch is not idempotent on the
// gateway's side; the worker's dedup guard runs before this call.
func (c *PushClient) Send(ctx context.Context, userID int64, title, body string) error {
	if c.baseURL == "" {
		return fmt.Errorf("push gateway base url is empty")
	}

	payload, err := json.Marshal(pushRequest{UserID: userID, Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/push", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		req.Header.Set("X-Internal-API-Key", strings.TrimSpace(c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}

var _ PushSender = (*PushClient)(nil)
