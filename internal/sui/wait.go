package sui

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WaitForTransaction polls until the node can serve digest, backing off between attempts.
func (c *Client) WaitForTransaction(ctx context.Context, digest string, maxWait time.Duration) (*TransactionBlockResponse, error) {
	if err := ValidateDigest(digest); err != nil {
		return nil, err
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 3 * time.Second
	policy.MaxElapsedTime = maxWait

	var out *TransactionBlockResponse
	err := backoff.Retry(func() error {
		resp, err := c.GetTransactionBlock(ctx, digest, FullTransactionOptions)
		if err != nil {
			return err
		}
		out = resp
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, err
	}
	return out, nil
}
