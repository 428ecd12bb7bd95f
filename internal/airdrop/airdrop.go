// Package airdrop sends a fixed amount of SUI to each address of a list, one transaction per
// address, paced and resumable.
package airdrop

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/StarryNift/starrynift-nft-box/internal/execution"
	"github.com/StarryNift/starrynift-nft-box/internal/metrics"
	"github.com/StarryNift/starrynift-nft-box/internal/risk"
	"github.com/StarryNift/starrynift-nft-box/internal/util"
)

// Payer sends MIST to one recipient. *execution.Executor satisfies it.
type Payer interface {
	Pay(ctx context.Context, recipient string, amount uint64) (*execution.Result, error)
	CheckFunds(ctx context.Context, transfers int, total uint64) error
}

// Recorder persists attempts.
type Recorder interface {
	Record(Entry) error
}

// Summary counts what a run did.
type Summary struct {
	Sent      int
	Skipped   int
	TotalMist uint64
}

// Airdropper pays each address once.
type Airdropper struct {
	payer    Payer
	amount   uint64
	limiter  *rate.Limiter
	budget   *risk.Budget
	limits   risk.Limits
	recorder Recorder
	done     map[string]bool
	log      zerolog.Logger
	now      func() time.Time
}

// Config holds the per-run knobs.
type Config struct {
	AmountMist uint64
	Interval   time.Duration
	Limits     risk.Limits
	// Done lists addresses to skip, usually from Settled.
	Done map[string]bool
}

func New(payer Payer, recorder Recorder, cfg Config, log zerolog.Logger) *Airdropper {
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	done := cfg.Done
	if done == nil {
		done = map[string]bool{}
	}
	return &Airdropper{
		payer:    payer,
		amount:   cfg.AmountMist,
		limiter:  rate.NewLimiter(limit, 1),
		budget:   risk.NewBudget(cfg.Limits),
		limits:   cfg.Limits,
		recorder: recorder,
		done:     done,
		log:      log.With().Str("component", "airdrop").Logger(),
		now:      time.Now,
	}
}

// Run pays every address not already done. It stops at the first failed or refused transfer.
func (a *Airdropper) Run(ctx context.Context, addresses []string) (Summary, error) {
	var sum Summary
	if a.amount == 0 {
		return sum, fmt.Errorf("airdrop amount must be positive")
	}
	pending := 0
	for _, addr := range addresses {
		if !a.done[addr] {
			pending++
		}
	}
	transfers := a.limits.Affordable(pending, a.amount)
	if uint64(transfers) > math.MaxUint64/a.amount {
		return sum, fmt.Errorf("airdrop of %d x %d MIST overflows", transfers, a.amount)
	}
	if err := a.payer.CheckFunds(ctx, transfers, uint64(transfers)*a.amount); err != nil {
		a.log.Error().Err(err).Int("transfers", transfers).Msg("airdrop not started")
		return sum, err
	}

	for _, addr := range addresses {
		if a.done[addr] {
			sum.Skipped++
			a.log.Info().Str("address", addr).Msg("already airdropped")
			continue
		}
		if err := a.budget.Reserve(a.amount); err != nil {
			metrics.AirdropTransfersTotal.WithLabelValues(StatusRefused).Inc()
			a.record(Entry{Address: addr, AmountMist: a.amount, Status: StatusRefused, Error: err.Error()})
			a.log.Error().Err(err).Str("address", addr).Msg("airdrop refused by limits")
			return sum, err
		}
		if err := a.limiter.Wait(ctx); err != nil {
			a.budget.Release(a.amount)
			return sum, err
		}

		res, err := a.payer.Pay(ctx, addr, a.amount)
		if err != nil {
			entry := Entry{Address: addr, AmountMist: a.amount, Status: StatusFailed, Error: err.Error()}
			if res != nil {
				entry.Digest = res.Digest
			}
			switch {
			case execution.IsUnconfirmed(err):
				// may have landed; keep it out of a resumed run
				entry.Status = StatusUnconfirmed
				a.done[addr] = true
				a.log.Error().Err(err).Str("address", addr).Str("digest", entry.Digest).Msg("airdrop outcome unknown, check the digest before resending")
			case execution.IsFailure(err):
				a.budget.Release(a.amount)
				a.log.Error().Err(err).Str("address", addr).Str("digest", entry.Digest).Msg("airdrop aborted on chain")
			default:
				a.budget.Release(a.amount)
				a.log.Error().Err(err).Str("address", addr).Msg("airdrop not submitted")
			}
			metrics.AirdropTransfersTotal.WithLabelValues(entry.Status).Inc()
			a.record(entry)
			return sum, fmt.Errorf("airdrop to %s: %w", addr, err)
		}

		metrics.AirdropTransfersTotal.WithLabelValues(StatusSuccess).Inc()
		a.record(Entry{Address: addr, AmountMist: a.amount, Digest: res.Digest, Status: StatusSuccess})
		a.done[addr] = true
		sum.Sent++
		sum.TotalMist += a.amount
		a.log.Info().Str("address", addr).Str("digest", res.Digest).Str("amount", util.FormatSUI(a.amount)).Msg("airdrop success")
	}
	return sum, nil
}

func (a *Airdropper) record(entry Entry) {
	if a.recorder == nil {
		return
	}
	entry.At = a.now().UTC()
	if err := a.recorder.Record(entry); err != nil {
		a.log.Warn().Err(err).Str("address", entry.Address).Msg("failed to record airdrop attempt")
	}
}
