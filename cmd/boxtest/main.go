package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/StarryNift/starrynift-nft-box/internal/app"
	"github.com/StarryNift/starrynift-nft-box/internal/boxflow"
	"github.com/StarryNift/starrynift-nft-box/internal/execution"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

type flowFunc func(ctx context.Context, env *app.Env, flow *boxflow.Flow) (*execution.Result, error)

func newRoot() *cobra.Command {
	var flags app.Flags
	root := &cobra.Command{
		Use:          "boxtest",
		Short:        "Drive the box flows from an operator wallet on testnet",
		SilenceUsage: true,
	}
	flags.Register(root)

	run := func(fn flowFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			env, err := app.Open(flags, "boxtest", true)
			if err != nil {
				return err
			}
			defer env.Close()
			ctx, cancel := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			res, err := fn(ctx, env, boxflow.New(env.Exec, env.Config.Contract, env.Log))
			if res != nil {
				printResult(cmd, res)
			}
			return err
		}
	}

	var (
		nonce     uint64
		signature string
		boxID     string
		colls     string
	)
	buy := &cobra.Command{
		Use:   "buy",
		Short: "private_buy_box with a signed voucher",
		RunE: run(func(ctx context.Context, env *app.Env, flow *boxflow.Flow) (*execution.Result, error) {
			sig, err := voucher(env, signature, nonce)
			if err != nil {
				return nil, err
			}
			return flow.PrivateBuyBox(ctx, nonce, sig)
		}),
	}
	buy.Flags().Uint64Var(&nonce, "nonce", 0, "voucher nonce")
	buy.Flags().StringVar(&signature, "signature", "", "hex voucher signature; signed with SIGNER_MNEMONICS when empty")

	var openSig string
	open := &cobra.Command{
		Use:   "open",
		Short: "open_box against three collections",
		RunE: run(func(ctx context.Context, _ *app.Env, flow *boxflow.Flow) (*execution.Result, error) {
			return flow.OpenBox(ctx, boxID, splitList(colls), openSig)
		}),
	}
	open.Flags().StringVar(&boxID, "box", "", "mystery box object id")
	open.Flags().StringVar(&colls, "collections", "", "comma separated ids of the three collections to mint from")
	open.Flags().StringVar(&openSig, "signature", "", "hex open_box signature issued by the backend")
	_ = open.MarkFlagRequired("box")
	_ = open.MarkFlagRequired("collections")
	_ = open.MarkFlagRequired("signature")

	freemint := &cobra.Command{
		Use:   "freemint <template-id>",
		Short: "Mint one NFT from a template with the mint caps",
		Args:  cobra.ExactArgs(1),
	}
	freemint.RunE = func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, _ *app.Env, flow *boxflow.Flow) (*execution.Result, error) {
			return flow.FreeMint(ctx, args[0])
		})(cmd, args)
	}

	claim := &cobra.Command{
		Use:   "claim <coupon-id>",
		Short: "Claim a coupon NFT",
		Args:  cobra.ExactArgs(1),
	}
	claim.RunE = func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, _ *app.Env, flow *boxflow.Flow) (*execution.Result, error) {
			return flow.ClaimCoupon(ctx, args[0])
		})(cmd, args)
	}

	transfer := &cobra.Command{
		Use:   "transfer <object-id> <receiver>",
		Short: "Transfer an owned object",
		Args:  cobra.ExactArgs(2),
	}
	transfer.RunE = func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, _ *app.Env, flow *boxflow.Flow) (*execution.Result, error) {
			return flow.TransferObject(ctx, args[0], args[1])
		})(cmd, args)
	}

	var (
		voucherAddr  string
		voucherPhase int
	)
	signVoucher := &cobra.Command{
		Use:   "sign-voucher",
		Short: "Print a mint voucher signature from SIGNER_MNEMONICS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			signer, err := sui.LoadKeypairFromEnv(sui.EnvSignerMnemonics)
			if err != nil {
				return err
			}
			if voucherPhase < 0 || voucherPhase > 255 {
				return fmt.Errorf("--phase must fit in a u8")
			}
			sig, err := boxflow.SignMintVoucher(signer, voucherAddr, uint8(voucherPhase), nonce)
			if err != nil {
				return err
			}
			if err := boxflow.VerifyMintVoucher(signer.PublicKey(), voucherAddr, uint8(voucherPhase), nonce, sig); err != nil {
				return fmt.Errorf("signed voucher does not verify: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sig)
			return nil
		},
	}
	signVoucher.Flags().StringVar(&voucherAddr, "address", "", "buyer address")
	signVoucher.Flags().IntVar(&voucherPhase, "phase", 0, "phase number")
	signVoucher.Flags().Uint64Var(&nonce, "nonce", 0, "voucher nonce")
	_ = signVoucher.MarkFlagRequired("address")

	var (
		checkSig    string
		checkPubKey string
	)
	verifyVoucher := &cobra.Command{
		Use:   "verify-voucher",
		Short: "Check a mint voucher signature against a public key or SIGNER_MNEMONICS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if voucherPhase < 0 || voucherPhase > 255 {
				return fmt.Errorf("--phase must fit in a u8")
			}
			pub, err := voucherKey(checkPubKey)
			if err != nil {
				return err
			}
			if err := boxflow.VerifyMintVoucher(pub, voucherAddr, uint8(voucherPhase), nonce, checkSig); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	verifyVoucher.Flags().StringVar(&voucherAddr, "address", "", "buyer address")
	verifyVoucher.Flags().IntVar(&voucherPhase, "phase", 0, "phase number")
	verifyVoucher.Flags().Uint64Var(&nonce, "nonce", 0, "voucher nonce")
	verifyVoucher.Flags().StringVar(&checkSig, "signature", "", "hex voucher signature")
	verifyVoucher.Flags().StringVar(&checkPubKey, "pubkey", "", "hex ed25519 public key; SIGNER_MNEMONICS when empty")
	_ = verifyVoucher.MarkFlagRequired("address")
	_ = verifyVoucher.MarkFlagRequired("signature")

	root.AddCommand(buy, open, freemint, claim, transfer, signVoucher, verifyVoucher)
	return root
}

// voucher returns sig, or signs one for the operator address when sig is empty.
func voucher(env *app.Env, sig string, nonce uint64) (string, error) {
	if sig != "" {
		return sig, nil
	}
	signer, err := sui.LoadKeypairFromEnv(sui.EnvSignerMnemonics)
	if err != nil {
		return "", fmt.Errorf("no --signature and %w", err)
	}
	return boxflow.SignMintVoucher(signer, env.Key.Address(), env.Config.Phase.Current, nonce)
}

func voucherKey(pubHex string) (ed25519.PublicKey, error) {
	if pubHex == "" {
		signer, err := sui.LoadKeypairFromEnv(sui.EnvSignerMnemonics)
		if err != nil {
			return nil, err
		}
		return signer.PublicKey(), nil
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(pubHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode --pubkey: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("--pubkey must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printResult(cmd *cobra.Command, res *execution.Result) {
	raw, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
}
