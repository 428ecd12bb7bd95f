// Package admin issues the contract administration and configuration transactions an operator runs
// after publishing the box package: ownership, signer key, phases, box configs and NFT templates.
package admin

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/StarryNift/starrynift-nft-box/internal/config"
	"github.com/StarryNift/starrynift-nft-box/internal/execution"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// Caller submits Move calls. *execution.Executor satisfies it.
type Caller interface {
	Call(ctx context.Context, call execution.MoveCall) (*execution.Result, error)
}

// Reader is the read side of the node used by deploy inspection and object queries.
type Reader interface {
	GetObject(ctx context.Context, objectID string, opts sui.ObjectDataOptions) (*sui.ObjectResponse, error)
	GetTransactionBlock(ctx context.Context, digest string, opts sui.TransactionBlockOptions) (*sui.TransactionBlockResponse, error)
}

// Option customises a Service.
type Option func(*Service)

// WithItemPause sets the delay before each NFT template transaction.
func WithItemPause(d time.Duration) Option {
	return func(s *Service) { s.itemPause = d }
}

// WithClock overrides time.Now, used for open and phase times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service holds the deployment ids every admin call needs.
type Service struct {
	caller   Caller
	reader   Reader
	contract config.Contract
	box      config.Box
	log      zerolog.Logger

	itemPause time.Duration
	now       func() time.Time
}

func New(caller Caller, reader Reader, cfg *config.Config, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		caller:    caller,
		reader:    reader,
		contract:  cfg.Contract,
		box:       cfg.Box,
		log:       log.With().Str("component", "admin").Logger(),
		itemPause: config.Millis(cfg.Metadata.IntervalMs),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) call(ctx context.Context, module, function string, args ...any) (*execution.Result, error) {
	res, err := s.caller.Call(ctx, execution.MoveCall{
		Package:   s.contract.PackageID,
		Module:    module,
		Function:  function,
		Arguments: args,
	})
	if err != nil {
		s.log.Error().Err(err).Str("function", module+"::"+function).Msg("call failed")
		return res, err
	}
	s.log.Info().Str("function", module+"::"+function).Str("digest", res.Digest).Msg("call succeeded")
	return res, nil
}

// unixCeil is the current time in whole seconds, rounded up.
func unixCeil(t time.Time) uint64 {
	ms := t.UnixMilli()
	return uint64((ms + 999) / 1000)
}
