package reward

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/StarryNift/starrynift-nft-box/internal/execution"
	"github.com/StarryNift/starrynift-nft-box/internal/metrics"
	"github.com/StarryNift/starrynift-nft-box/internal/risk"
	"github.com/StarryNift/starrynift-nft-box/internal/util"
)

// Fetcher returns every claim made so far.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]Claim, error)
}

// Payer sends MIST to one recipient. *execution.Executor satisfies it.
type Payer interface {
	Pay(ctx context.Context, recipient string, amount uint64) (*execution.Result, error)
	CheckFunds(ctx context.Context, transfers int, total uint64) error
}

// ReleaserConfig configures a Releaser.
type ReleaserConfig struct {
	DryRun bool
	// Pause is the wait after each payment.
	Pause  time.Duration
	Limits risk.Limits
}

// Report summarizes one release pass.
type Report struct {
	PassID        string
	Skipped       bool // another pass was already running
	Claims        int
	AlreadyFunded int
	Duplicates    int // further claims by a sender already paid in this pass
	Paid          int
	PaidMist      uint64
	DryRun        int
	Refused       int
	Invalid       int
}

// Releaser pays every unfunded claim once.
type Releaser struct {
	fetcher Fetcher
	ledger  *Ledger
	payer   Payer
	cfg     ReleaserConfig
	log     zerolog.Logger

	running sync.Mutex
}

func NewReleaser(fetcher Fetcher, ledger *Ledger, payer Payer, cfg ReleaserConfig, log zerolog.Logger) *Releaser {
	return &Releaser{
		fetcher: fetcher,
		ledger:  ledger,
		payer:   payer,
		cfg:     cfg,
		log:     log.With().Str("component", "releaser").Logger(),
	}
}

// Release runs one pass. A call made while a pass is in flight returns at once with Skipped set.
func (r *Releaser) Release(ctx context.Context) (Report, error) {
	if !r.running.TryLock() {
		r.log.Info().Msg("release already in progress")
		return Report{Skipped: true}, nil
	}
	defer r.running.Unlock()

	rep := Report{PassID: uuid.NewString()}
	log := r.log.With().Str("pass", rep.PassID).Logger()

	claims, err := r.fetcher.FetchAll(ctx)
	if err != nil {
		return rep, fmt.Errorf("fetch claims: %w", err)
	}
	rep.Claims = len(claims)
	defer func() { metrics.PendingRecords.Set(float64(r.unfunded(claims))) }()

	plan := r.plan(claims, &rep, log)
	if len(plan) == 0 {
		r.logReport(log, rep)
		return rep, nil
	}

	if !r.cfg.DryRun {
		var total uint64
		for _, p := range plan {
			if total > math.MaxUint64-p.amount {
				return rep, fmt.Errorf("release pass total overflows uint64")
			}
			total += p.amount
		}
		if err := r.payer.CheckFunds(ctx, len(plan), total); err != nil {
			metrics.PayoutsTotal.WithLabelValues("insufficient_funds").Add(float64(len(plan)))
			log.Error().Err(err).Int("payouts", len(plan)).Str("total_sui", util.FormatSUI(total)).Msg("release pass not started")
			return rep, err
		}
	}

	for _, p := range plan {
		if r.cfg.DryRun {
			rep.DryRun++
			metrics.PayoutsTotal.WithLabelValues("dry_run").Inc()
			log.Info().Str("address", p.sender).Str("amount", util.FormatSUI(p.amount)).Msg("would pay reward (dry run)")
		} else {
			res, err := r.payer.Pay(ctx, p.sender, p.amount)
			if err != nil {
				return rep, r.payFailed(log, p.sender, res, err)
			}
			if err := r.ledger.Record(p.sender, *res); err != nil {
				// the payment went out; stop before anything can pay it twice
				metrics.PayoutsTotal.WithLabelValues("paid").Inc()
				return rep, errors.Join(fmt.Errorf("paid %s in %s but could not record it", p.sender, res.Digest), err)
			}
			rep.Paid++
			rep.PaidMist += p.amount
			metrics.PayoutsTotal.WithLabelValues("paid").Inc()
			log.Info().Str("address", p.sender).Str("amount", util.FormatSUI(p.amount)).Str("digest", res.Digest).Msg("reward paid")
		}

		if r.cfg.Pause > 0 {
			select {
			case <-time.After(r.cfg.Pause):
			case <-ctx.Done():
				return rep, ctx.Err()
			}
		}
	}

	r.logReport(log, rep)
	return rep, nil
}

type payout struct {
	sender string
	amount uint64
}

// plan picks the payouts of one pass: one per unfunded sender, within limits.
func (r *Releaser) plan(claims []Claim, rep *Report, log zerolog.Logger) []payout {
	budget := risk.NewBudget(r.cfg.Limits)
	planned := make(map[string]bool)
	var out []payout
	for _, claim := range claims {
		if r.ledger.IsFunded(claim.Sender) {
			rep.AlreadyFunded++
			metrics.PayoutsTotal.WithLabelValues("already_funded").Inc()
			log.Debug().Str("address", claim.Sender).Msg("already funded")
			continue
		}
		if planned[ledgerKey(claim.Sender)] {
			rep.Duplicates++
			continue
		}
		amount, err := util.WholeSUIToMist(claim.Value)
		if err != nil || amount == 0 {
			rep.Invalid++
			metrics.PayoutsTotal.WithLabelValues("invalid").Inc()
			log.Warn().Err(err).Str("address", claim.Sender).Uint64("value", claim.Value).Msg("claim value not payable")
			continue
		}
		if err := budget.Reserve(amount); err != nil {
			rep.Refused++
			metrics.PayoutsTotal.WithLabelValues("refused").Inc()
			log.Error().Err(err).Str("address", claim.Sender).Msg("payout refused by limits")
			continue
		}
		planned[ledgerKey(claim.Sender)] = true
		out = append(out, payout{sender: claim.Sender, amount: amount})
	}
	return out
}

// payFailed logs a failed payment and, when the transfer may have landed, marks the sender funded so
// no later pass pays it again.
func (r *Releaser) payFailed(log zerolog.Logger, sender string, res *execution.Result, err error) error {
	switch {
	case execution.IsUnconfirmed(err):
		metrics.PayoutsTotal.WithLabelValues("unconfirmed").Inc()
		rec := execution.Result{Status: execution.StatusUnconfirmed, Error: err.Error()}
		if res != nil {
			rec.Digest = res.Digest
		}
		log.Error().Err(err).Str("address", sender).Str("digest", rec.Digest).Msg("reward payment outcome unknown, marked funded; check the digest")
		if rerr := r.ledger.Record(sender, rec); rerr != nil {
			return errors.Join(fmt.Errorf("pay %s: %w", sender, err), rerr)
		}
	case execution.IsFailure(err):
		metrics.PayoutsTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("address", sender).Msg("reward payment aborted on chain")
	default:
		metrics.PayoutsTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("address", sender).Msg("reward payment not submitted")
	}
	return fmt.Errorf("pay %s: %w", sender, err)
}

func (r *Releaser) logReport(log zerolog.Logger, rep Report) {
	log.Info().
		Int("claims", rep.Claims).
		Int("already_funded", rep.AlreadyFunded).
		Int("duplicates", rep.Duplicates).
		Int("paid", rep.Paid).
		Str("paid_sui", util.FormatSUI(rep.PaidMist)).
		Int("dry_run", rep.DryRun).
		Int("refused", rep.Refused).
		Int("invalid", rep.Invalid).
		Msg("release pass complete")
}

// unfunded counts distinct senders the ledger has not paid.
func (r *Releaser) unfunded(claims []Claim) int {
	seen := make(map[string]struct{})
	for _, c := range claims {
		if r.ledger.IsFunded(c.Sender) {
			continue
		}
		seen[ledgerKey(c.Sender)] = struct{}{}
	}
	return len(seen)
}
