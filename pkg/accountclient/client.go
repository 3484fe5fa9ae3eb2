/**
 * @description
 * This package provides the client for the account service's resolver RPC.
 * It performs a single synchronous call with a caller-configured timeout and
 * no retries; retry policy belongs to callers. A failed call is passed
 * through the status codec so the orchestrator always sees a typed error.
 *
 * @dependencies
 * - google.golang.org/grpc: Transport, call options, trailer metadata.
 * - internal/rpc: Shared method names, wire shapes, JSON codec.
 * - internal/rpcstatus: The status codec.
 */

package accountclient

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ssokpay/transfer-service/internal/domain"
	"github.com/ssokpay/transfer-service/internal/rpc"
	"github.com/ssokpay/transfer-service/internal/rpcstatus"
)

// Resolver is the interface the orchestrator depends on.
type Resolver interface {
	GetPrimaryAccount(ctx context.Context, userID int64) (*domain.AccountInfo, error)
}

// Client is a resolver client over a shared gRPC connection.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewClient dials the account service. The connection is lazy; the first
// call establishes the transport.
func NewClient(target string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpc.CodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial account service: %w", err)
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

// GetPrimaryAccount resolves a user's primary account and balance. The
// balance is a point-in-time snapshot, not locked against concurrent spend.
func (c *Client) GetPrimaryAccount(ctx context.Context, userID int64) (*domain.AccountInfo, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &rpc.GetPrimaryAccountRequest{UserID: userID}
	var resp rpc.GetPrimaryAccountResponse
	var trailer metadata.MD

	err := c.conn.Invoke(callCtx, rpc.AccountGetPrimaryMethod, req, &resp, grpc.Trailer(&trailer))
	if err != nil {
		log.Printf("level=warn component=account_client op=get_primary_account user_id=%d err=%v", userID, err)
		return nil, fmt.Errorf("resolve account for user %d: %w", userID, rpcstatus.Decode(trailer))
	}

	return &resp.Account, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

var _ Resolver = (*Client)(nil)
