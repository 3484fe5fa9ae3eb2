/**
 * @description
 * This package provides a client for the external open-banking transfer
 * rail. It encapsulates the logic for making authenticated HTTP requests,
 * building the request body, and parsing the response envelope.
 *
 * The rail wraps every response in `{isSuccess, code, message, result}`.
 * A transfer only counts as executed when `isSuccess` is explicitly true;
 * absence or false is a failure regardless of HTTP-level success.
 *
 * @dependencies
 * - bytes, context, encoding/json, net/http, time: Standard Go libraries.
 */

package bankclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// ErrExecutionUnknown marks a rail call whose outcome is ambiguous: the
// request was sent but no answer arrived. The transfer may or may not have
// executed, so this needs manual reconciliation, not a retry.
var ErrExecutionUnknown = errors.New("transfer rail outcome unknown")

// Rail is the interface the orchestrator depends on.
type Rail interface {
	ExecuteTransfer(ctx context.Context, cmd TransferCommand) (*TransferResult, error)
}

// Client is a client for the open-banking rail.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new rail client with a bounded request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// TransferCommand is the rail-side transfer instruction. RequestID doubles
// as the idempotency key for the attempt: replaying the same command with
// the same RequestID must not move money twice on the rail's side.
type TransferCommand struct {
	RequestID         string `json:"requestId"`
	SendAccountNumber string `json:"sendAccountNumber"`
	SendBankCode      int    `json:"sendBankCode"`
	SendName          string `json:"sendName"`
	RecvAccountNumber string `json:"recvAccountNumber"`
	RecvBankCode      int    `json:"recvBankCode"`
	RecvName          string `json:"recvName"`
	Amount            int64  `json:"amount"`
}

// envelope is the rail's uniform response wrapper.
type envelope struct {
	IsSuccess bool            `json:"isSuccess"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Result    json.RawMessage `json:"result"`
}

// TransferResult carries the rail's identifiers for an executed transfer.
type TransferResult struct {
	TransferID string `json:"transferId"`
	Status     string `json:"status"`
}

// RailError is an application-level failure reported inside the envelope.
type RailError struct {
	Code    string
	Message string
}

func (e *RailError) Error() string {
	return fmt.Sprintf("rail error %s: %s", e.Code, e.Message)
}

// ExecuteTransfer sends the transfer instruction to the rail. A context
// deadline or transport timeout after the request was issued surfaces as
// ErrExecutionUnknown because the rail may still have executed it.
func (c *Client) ExecuteTransfer(ctx context.Context, cmd TransferCommand) (*TransferResult, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal transfer command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/v1/transfers", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", cmd.RequestID)
	req.Header.Set("x-api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			log.Printf("level=error component=bank_client op=transfer request_id=%s msg=\"rail call timed out after send; outcome ambiguous\" err=%v", cmd.RequestID, err)
			return nil, fmt.Errorf("%w: %v", ErrExecutionUnknown, err)
		}
		return nil, fmt.Errorf("execute transfer request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read transfer response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		log.Printf("level=warn component=bank_client op=transfer request_id=%s status=%d msg=\"unparsable rail response\"", cmd.RequestID, resp.StatusCode)
		return nil, fmt.Errorf("decode rail response (status %d): %w", resp.StatusCode, err)
	}

	if !env.IsSuccess {
		log.Printf("level=warn component=bank_client op=transfer request_id=%s status=%d code=%q message=%q", cmd.RequestID, resp.StatusCode, env.Code, env.Message)
		return nil, &RailError{Code: env.Code, Message: env.Message}
	}

	var result TransferResult
	if len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, &result); err != nil {
			return nil, fmt.Errorf("decode rail result: %w", err)
		}
	}
	return &result, nil
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

var _ Rail = (*Client)(nil)
