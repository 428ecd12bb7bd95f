// Package boxflow drives the user-facing box calls (buy, open, free mint, coupon claim) from an
// operator wallet so a deployment can be exercised by hand.
package boxflow

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/StarryNift/starrynift-nft-box/internal/config"
	"github.com/StarryNift/starrynift-nft-box/internal/execution"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// Executor is what the flows need from *execution.Executor.
type Executor interface {
	Call(ctx context.Context, call execution.MoveCall) (*execution.Result, error)
	Transfer(ctx context.Context, objectID, recipient string) (*execution.Result, error)
}

// OpenBoxCollections is how many collections open_box draws from.
const OpenBoxCollections = 3

type Flow struct {
	exec     Executor
	contract config.Contract
	log      zerolog.Logger
}

func New(exec Executor, contract config.Contract, log zerolog.Logger) *Flow {
	return &Flow{exec: exec, contract: contract, log: log.With().Str("component", "boxflow").Logger()}
}

// PrivateBuyBox buys a box in the current phase with a voucher signed by the contract signer.
func (f *Flow) PrivateBuyBox(ctx context.Context, nonce uint64, signatureHex string) (*execution.Result, error) {
	if err := config.Require(
		"PACKAGE_ID", f.contract.PackageID,
		"PHASE_ID", f.contract.PhaseID,
		"CONTRACT_ID", f.contract.ContractID,
		"BOX_CONFIG_ID", f.contract.BoxConfigID,
		"BOX_INFO_ID", f.contract.BoxInfoID,
	); err != nil {
		return nil, err
	}
	sig, err := decodeSignature(signatureHex)
	if err != nil {
		return nil, err
	}
	return f.call(ctx, "private_buy_box",
		f.contract.PhaseID,
		f.contract.ContractID,
		f.contract.BoxConfigID,
		f.contract.BoxInfoID,
		sui.ClockObjectID,
		sui.U64(nonce),
		sui.PureBytes(sig),
	)
}

// OpenBox opens mysteryBoxID, drawing from exactly three collections.
func (f *Flow) OpenBox(ctx context.Context, mysteryBoxID string, collections []string, signatureHex string) (*execution.Result, error) {
	if err := config.Require(
		"PACKAGE_ID", f.contract.PackageID,
		"CONTRACT_ID", f.contract.ContractID,
		"BOX_CONFIG_ID", f.contract.BoxConfigID,
		"BOX_INFO_ID", f.contract.BoxInfoID,
	); err != nil {
		return nil, err
	}
	if strings.TrimSpace(mysteryBoxID) == "" {
		return nil, fmt.Errorf("mystery box id is required")
	}
	if len(collections) != OpenBoxCollections {
		return nil, fmt.Errorf("open box needs %d collections, got %d", OpenBoxCollections, len(collections))
	}
	sig, err := decodeSignature(signatureHex)
	if err != nil {
		return nil, err
	}
	return f.call(ctx, "open_box",
		f.contract.ContractID,
		f.contract.BoxConfigID,
		mysteryBoxID,
		f.contract.BoxInfoID,
		sui.ClockObjectID,
		collections[0],
		collections[1],
		collections[2],
		sui.PureBytes(sig),
	)
}

// FreeMint mints one NFT from template using the three mint caps.
func (f *Flow) FreeMint(ctx context.Context, templateID string) (*execution.Result, error) {
	if err := config.Require(
		"PACKAGE_ID", f.contract.PackageID,
		"AVATAR_MINT_CAP", f.contract.AvatarMintCap,
		"SPACE_MINT_CAP", f.contract.SpaceMintCap,
		"COUPON_MINT_CAP", f.contract.CouponMintCap,
	); err != nil {
		return nil, err
	}
	if strings.TrimSpace(templateID) == "" {
		return nil, fmt.Errorf("template id is required")
	}
	f.log.Info().
		Str("template", templateID).
		Str("avatar_cap", f.contract.AvatarMintCap).
		Str("space_cap", f.contract.SpaceMintCap).
		Str("coupon_cap", f.contract.CouponMintCap).
		Msg("free mint")
	return f.call(ctx, "freemint", templateID, f.contract.AvatarMintCap, f.contract.SpaceMintCap, f.contract.CouponMintCap)
}

// ClaimCoupon burns a coupon NFT and records its value for the reward releaser.
func (f *Flow) ClaimCoupon(ctx context.Context, couponID string) (*execution.Result, error) {
	if err := config.Require(
		"PACKAGE_ID", f.contract.PackageID,
		"PHASE_ID", f.contract.PhaseID,
		"BOX_CONFIG_ID", f.contract.BoxConfigID,
	); err != nil {
		return nil, err
	}
	if strings.TrimSpace(couponID) == "" {
		return nil, fmt.Errorf("coupon id is required")
	}
	return f.call(ctx, "claimCoupon", f.contract.PhaseID, couponID, f.contract.BoxConfigID)
}

// TransferObject sends an owned object to receiver.
func (f *Flow) TransferObject(ctx context.Context, objectID, receiver string) (*execution.Result, error) {
	addr, err := sui.NormalizeAddress(receiver)
	if err != nil {
		return nil, err
	}
	res, err := f.exec.Transfer(ctx, objectID, addr)
	if err != nil {
		return res, err
	}
	f.log.Info().Str("object", objectID).Str("receiver", addr).Str("digest", res.Digest).Msg("object transferred")
	return res, nil
}

func (f *Flow) call(ctx context.Context, function string, args ...any) (*execution.Result, error) {
	res, err := f.exec.Call(ctx, execution.MoveCall{
		Package:   f.contract.PackageID,
		Module:    "box_nft",
		Function:  function,
		Arguments: args,
	})
	if err != nil {
		return res, err
	}
	f.log.Info().Str("function", function).Str("digest", res.Digest).Strs("created", res.Created).Int("events", len(res.Events)).Msg("box call executed")
	return res, nil
}

func decodeSignature(s string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("signature: want 64 bytes, got %d", len(raw))
	}
	return raw, nil
}
