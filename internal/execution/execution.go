// Package execution builds, signs and submits transactions and reports their outcome.
package execution

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/StarryNift/starrynift-nft-box/internal/metrics"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// Chain is the slice of the full node API the executor needs.
type Chain interface {
	MoveCall(ctx context.Context, req sui.MoveCallRequest) (*sui.TransactionBytes, error)
	PaySui(ctx context.Context, signer string, inputCoins, recipients []string, amounts []uint64, gasBudget uint64) (*sui.TransactionBytes, error)
	TransferObject(ctx context.Context, signer, objectID, recipient string, gasBudget uint64) (*sui.TransactionBytes, error)
	SelectGasCoins(ctx context.Context, owner string, need uint64) ([]string, error)
	ExecuteTransactionBlock(ctx context.Context, txBytes string, signatures []string, opts sui.TransactionBlockOptions) (*sui.TransactionBlockResponse, error)
	WaitForTransaction(ctx context.Context, digest string, maxWait time.Duration) (*sui.TransactionBlockResponse, error)
	GetBalance(ctx context.Context, owner, coinType string) (*sui.Balance, error)
}

// Signer signs transaction bytes for one address.
type Signer interface {
	Address() string
	SignTransaction(txBytes []byte) string
}

// MoveCall is a call target plus its arguments.
type MoveCall struct {
	Package       string
	Module        string
	Function      string
	TypeArguments []string
	Arguments     []any
}

// Target renders package::module::function.
func (m MoveCall) Target() string { return m.Package + "::" + m.Module + "::" + m.Function }

// Result is what every submitted transaction reports back.
type Result struct {
	Digest        string             `json:"digest"`
	Status        string             `json:"status"`
	Error         string             `json:"error,omitempty"`
	Created       []string           `json:"created,omitempty"`
	ObjectChanges []sui.ObjectChange `json:"objectChanges,omitempty"`
	Events        []sui.Event        `json:"events,omitempty"`
}

// FirstCreated returns effects.created[0], or "" when nothing was created.
func (r Result) FirstCreated() string {
	if len(r.Created) == 0 {
		return ""
	}
	return r.Created[0]
}

// FailureError reports a transaction that executed but aborted on chain.
type FailureError struct {
	Digest string
	Reason string
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Digest, e.Reason)
}

// IsFailure reports whether err is an on-chain abort rather than a transport error.
func IsFailure(err error) bool {
	var fe *FailureError
	return errors.As(err, &fe)
}

// StatusUnconfirmed marks a transaction whose submit failed and that could not be found afterwards.
const StatusUnconfirmed = "unconfirmed"

// UnconfirmedError reports a submit that failed in transit and whose transaction was not seen on
// chain within the confirmation window. It may still have executed.
type UnconfirmedError struct {
	Digest string
	Err    error
}

func (e *UnconfirmedError) Error() string {
	return fmt.Sprintf("transaction %s outcome unknown: %v", e.Digest, e.Err)
}

func (e *UnconfirmedError) Unwrap() error { return e.Err }

// IsUnconfirmed reports whether err leaves the transaction outcome unknown.
func IsUnconfirmed(err error) bool {
	var ue *UnconfirmedError
	return errors.As(err, &ue)
}

// InsufficientFundsError reports a balance too small for a planned batch of transfers.
type InsufficientFundsError struct {
	Have uint64
	Need uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient SUI: have %d MIST, need %d MIST", e.Have, e.Need)
}

// DefaultConfirmWait bounds the lookup of a transaction whose submit response was lost.
const DefaultConfirmWait = 30 * time.Second

// Option customises an Executor.
type Option func(*Executor)

// WithConfirmWait sets how long a failed submit is looked up on chain before giving up.
func WithConfirmWait(d time.Duration) Option {
	return func(e *Executor) { e.confirmWait = d }
}

// Executor submits transactions signed by one key.
type Executor struct {
	chain       Chain
	signer      Signer
	gasBudget   uint64
	confirmWait time.Duration
	log         zerolog.Logger
}

// NewExecutor wires a chain, a signing key and a gas budget in MIST.
func NewExecutor(chain Chain, signer Signer, gasBudget uint64, log zerolog.Logger, opts ...Option) *Executor {
	e := &Executor{chain: chain, signer: signer, gasBudget: gasBudget, confirmWait: DefaultConfirmWait, log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckFunds fails with *InsufficientFundsError when the sender cannot cover total MIST plus one gas
// budget per transfer.
func (executor *Executor) CheckFunds(ctx context.Context, transfers int, total uint64) error {
	if transfers <= 0 {
		return nil
	}
	gas := uint64(transfers)
	if gas > math.MaxUint64/max(executor.gasBudget, 1) {
		return fmt.Errorf("gas for %d transfers overflows", transfers)
	}
	gas *= executor.gasBudget
	if total > math.MaxUint64-gas {
		return fmt.Errorf("payout of %d MIST overflows", total)
	}
	need := total + gas

	bal, err := executor.chain.GetBalance(ctx, executor.signer.Address(), "")
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	have, err := strconv.ParseUint(bal.TotalBalance.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("balance %q: %w", bal.TotalBalance, err)
	}
	if have < need {
		return &InsufficientFundsError{Have: have, Need: need}
	}
	executor.log.Debug().Uint64("have", have).Uint64("need", need).Int("transfers", transfers).Msg("funds checked")
	return nil
}

// Address is the sender of every transaction.
func (executor *Executor) Address() string { return executor.signer.Address() }

// Call executes a Move call.
func (executor *Executor) Call(ctx context.Context, call MoveCall) (*Result, error) {
	tx, err := executor.chain.MoveCall(ctx, sui.MoveCallRequest{
		Signer:        executor.signer.Address(),
		PackageID:     call.Package,
		Module:        call.Module,
		Function:      call.Function,
		TypeArguments: call.TypeArguments,
		Arguments:     call.Arguments,
		GasBudget:     executor.gasBudget,
	})
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues(call.Target(), "build_error").Inc()
		return nil, fmt.Errorf("build %s: %w", call.Target(), err)
	}
	return executor.submit(ctx, call.Target(), tx)
}

// Pay splits amount MIST off the sender's coins and transfers it to recipient.
func (executor *Executor) Pay(ctx context.Context, recipient string, amount uint64) (*Result, error) {
	const label = "pay_sui"
	if amount > math.MaxUint64-executor.gasBudget {
		metrics.TransactionsTotal.WithLabelValues(label, "build_error").Inc()
		return nil, fmt.Errorf("pay %d MIST: amount plus gas overflows", amount)
	}
	coins, err := executor.chain.SelectGasCoins(ctx, executor.signer.Address(), amount+executor.gasBudget)
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues(label, "build_error").Inc()
		return nil, fmt.Errorf("select coins: %w", err)
	}
	tx, err := executor.chain.PaySui(ctx, executor.signer.Address(), coins, []string{recipient}, []uint64{amount}, executor.gasBudget)
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues(label, "build_error").Inc()
		return nil, fmt.Errorf("build pay: %w", err)
	}
	return executor.submit(ctx, label, tx)
}

// Transfer moves an owned object to recipient.
func (executor *Executor) Transfer(ctx context.Context, objectID, recipient string) (*Result, error) {
	const label = "transfer_object"
	tx, err := executor.chain.TransferObject(ctx, executor.signer.Address(), objectID, recipient, executor.gasBudget)
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues(label, "build_error").Inc()
		return nil, fmt.Errorf("build transfer: %w", err)
	}
	return executor.submit(ctx, label, tx)
}

func (executor *Executor) submit(ctx context.Context, label string, tx *sui.TransactionBytes) (*Result, error) {
	raw, err := base64.StdEncoding.DecodeString(tx.TxBytes)
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues(label, "build_error").Inc()
		return nil, fmt.Errorf("decode tx bytes: %w", err)
	}
	sig := executor.signer.SignTransaction(raw)

	resp, err := executor.chain.ExecuteTransactionBlock(ctx, tx.TxBytes, []string{sig}, sui.FullTransactionOptions)
	if err != nil {
		// the node may have executed it even though the response never arrived
		digest := sui.TransactionBlockDigest(raw)
		executor.log.Warn().Err(err).Str("target", label).Str("digest", digest).Msg("transaction submit failed, looking it up")
		landed, werr := executor.confirm(ctx, digest)
		if werr != nil {
			metrics.TransactionsTotal.WithLabelValues(label, StatusUnconfirmed).Inc()
			executor.log.Error().Err(err).Str("target", label).Str("digest", digest).Msg("transaction outcome unknown")
			return &Result{Digest: digest, Status: StatusUnconfirmed, Error: err.Error()},
				&UnconfirmedError{Digest: digest, Err: fmt.Errorf("execute %s: %w", label, err)}
		}
		resp = landed
	}

	res := resultFrom(resp)
	if res.Status != "success" {
		metrics.TransactionsTotal.WithLabelValues(label, "failure").Inc()
		executor.log.Error().Str("target", label).Str("digest", res.Digest).Str("error", res.Error).Msg("transaction failed on chain")
		return res, &FailureError{Digest: res.Digest, Reason: res.Error}
	}
	metrics.TransactionsTotal.WithLabelValues(label, "success").Inc()
	executor.log.Info().Str("target", label).Str("digest", res.Digest).Strs("created", res.Created).Msg("transaction executed")
	return res, nil
}

// confirm looks digest up for confirmWait, even when ctx is already done.
func (executor *Executor) confirm(ctx context.Context, digest string) (*sui.TransactionBlockResponse, error) {
	if executor.confirmWait <= 0 {
		return nil, errors.New("confirmation disabled")
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), executor.confirmWait)
	defer cancel()
	return executor.chain.WaitForTransaction(wctx, digest, executor.confirmWait)
}

func resultFrom(resp *sui.TransactionBlockResponse) *Result {
	res := &Result{
		Digest:        resp.Digest,
		ObjectChanges: resp.ObjectChanges,
		Events:        resp.Events,
	}
	if resp.Effects == nil {
		res.Status = "unknown"
		res.Error = "response carried no effects"
		return res
	}
	res.Status = resp.Effects.Status.Status
	res.Error = resp.Effects.Status.Error
	for _, c := range resp.Effects.Created {
		res.Created = append(res.Created, c.Reference.ObjectID)
	}
	return res
}
