// Package sui is a thin JSON-RPC client for a Sui full node plus the ed25519 key handling needed to sign
// transactions built by the node.
package sui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

// Config configures a Client.
type Config struct {
	Endpoint   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to one full node over HTTP JSON-RPC.
type Client struct {
	endpoint string
	rpc      *rpc.Client
	timeout  time.Duration
}

// NewClient validates the endpoint and opens the RPC client.
func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("rpc endpoint is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid rpc endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid rpc endpoint: scheme must be http or https")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	rc, err := rpc.DialHTTPWithClient(endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return &Client{endpoint: endpoint, rpc: rc, timeout: timeout}, nil
}

// Endpoint returns the node URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Close releases the underlying RPC client.
func (c *Client) Close() { c.rpc.Close() }

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.rpc.CallContext(ctx, result, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// GetObject fetches one object.
func (c *Client) GetObject(ctx context.Context, objectID string, opts ObjectDataOptions) (*ObjectResponse, error) {
	if strings.TrimSpace(objectID) == "" {
		return nil, errors.New("object id is required")
	}
	var out ObjectResponse
	if err := c.call(ctx, &out, "sui_getObject", objectID, opts); err != nil {
		return nil, err
	}
	if out.Error != nil && out.Data == nil {
		return &out, fmt.Errorf("object %s: %s", objectID, out.Error.Code)
	}
	return &out, nil
}

// GetTransactionBlock fetches an executed transaction by digest.
func (c *Client) GetTransactionBlock(ctx context.Context, digest string, opts TransactionBlockOptions) (*TransactionBlockResponse, error) {
	if err := ValidateDigest(digest); err != nil {
		return nil, err
	}
	var out TransactionBlockResponse
	if err := c.call(ctx, &out, "sui_getTransactionBlock", digest, opts); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryEvents returns one page of events matching filter; cursor nil starts from the newest or oldest end.
func (c *Client) QueryEvents(ctx context.Context, filter EventFilter, cursor *EventID, limit int, descending bool) (*EventPage, error) {
	var out EventPage
	if err := c.call(ctx, &out, "suix_queryEvents", filter, cursor, limit, descending); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCoins returns one page of coins of coinType owned by owner.
func (c *Client) GetCoins(ctx context.Context, owner, coinType string, cursor *string, limit int) (*CoinPage, error) {
	if coinType == "" {
		coinType = SuiCoinType
	}
	var out CoinPage
	if err := c.call(ctx, &out, "suix_getCoins", owner, coinType, cursor, limit); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBalance returns the total balance of coinType owned by owner.
func (c *Client) GetBalance(ctx context.Context, owner, coinType string) (*Balance, error) {
	if coinType == "" {
		coinType = SuiCoinType
	}
	var out Balance
	if err := c.call(ctx, &out, "suix_getBalance", owner, coinType); err != nil {
		return nil, err
	}
	return &out, nil
}

// MoveCall asks the node to build an unsigned Move call transaction.
func (c *Client) MoveCall(ctx context.Context, req MoveCallRequest) (*TransactionBytes, error) {
	if req.PackageID == "" || req.Module == "" || req.Function == "" {
		return nil, errors.New("move call target is incomplete")
	}
	typeArgs := req.TypeArguments
	if typeArgs == nil {
		typeArgs = []string{}
	}
	args := req.Arguments
	if args == nil {
		args = []any{}
	}
	var gas *string
	if req.Gas != "" {
		gas = &req.Gas
	}
	var out TransactionBytes
	err := c.call(ctx, &out, "unsafe_moveCall",
		req.Signer, req.PackageID, req.Module, req.Function, typeArgs, args, gas, U64(req.GasBudget))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PaySui builds a transaction paying amounts to recipients out of inputCoins; the first coin pays gas.
func (c *Client) PaySui(ctx context.Context, signer string, inputCoins, recipients []string, amounts []uint64, gasBudget uint64) (*TransactionBytes, error) {
	if len(recipients) == 0 || len(recipients) != len(amounts) {
		return nil, fmt.Errorf("pay sui: %d recipients for %d amounts", len(recipients), len(amounts))
	}
	if len(inputCoins) == 0 {
		return nil, errors.New("pay sui: no input coins")
	}
	rendered := make([]string, len(amounts))
	for i, a := range amounts {
		rendered[i] = U64(a)
	}
	var out TransactionBytes
	if err := c.call(ctx, &out, "unsafe_paySui", signer, inputCoins, recipients, rendered, U64(gasBudget)); err != nil {
		return nil, err
	}
	return &out, nil
}

// TransferObject builds a transaction moving objectID to recipient.
func (c *Client) TransferObject(ctx context.Context, signer, objectID, recipient string, gasBudget uint64) (*TransactionBytes, error) {
	var out TransactionBytes
	if err := c.call(ctx, &out, "unsafe_transferObject", signer, objectID, nil, U64(gasBudget), recipient); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecuteTransactionBlock submits signed transaction bytes and waits for local execution.
func (c *Client) ExecuteTransactionBlock(ctx context.Context, txBytes string, signatures []string, opts TransactionBlockOptions) (*TransactionBlockResponse, error) {
	var out TransactionBlockResponse
	if err := c.call(ctx, &out, "sui_executeTransactionBlock", txBytes, signatures, opts, "WaitForLocalExecution"); err != nil {
		return nil, err
	}
	return &out, nil
}
