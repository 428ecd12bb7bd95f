package boxflow

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/StarryNift/starrynift-nft-box/internal/config"
	"github.com/StarryNift/starrynift-nft-box/internal/execution"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

type fakeExec struct {
	calls     []execution.MoveCall
	transfers [][2]string
}

func (f *fakeExec) Call(_ context.Context, call execution.MoveCall) (*execution.Result, error) {
	f.calls = append(f.calls, call)
	return &execution.Result{Digest: "D", Status: "success"}, nil
}

func (f *fakeExec) Transfer(_ context.Context, objectID, recipient string) (*execution.Result, error) {
	f.transfers = append(f.transfers, [2]string{objectID, recipient})
	return &execution.Result{Digest: "T", Status: "success"}, nil
}

var contract = config.Contract{
	PackageID:     "0xc133",
	ContractID:    "0xcontract",
	PhaseID:       "0xphase",
	BoxConfigID:   "0xboxcfg",
	BoxInfoID:     "0xboxinfo",
	AvatarMintCap: "0xavatar",
	SpaceMintCap:  "0xspace",
	CouponMintCap: "0xcoupon",
}

var sigHex = strings.Repeat("ab", 64)

func TestPrivateBuyBox(t *testing.T) {
	exec := &fakeExec{}
	f := New(exec, contract, zerolog.Nop())

	_, err := f.PrivateBuyBox(context.Background(), 24, sigHex)
	require.NoError(t, err)
	call := exec.calls[0]
	require.Equal(t, "0xc133::box_nft::private_buy_box", call.Target())
	require.Len(t, call.Arguments, 7)
	require.Equal(t, []any{"0xphase", "0xcontract", "0xboxcfg", "0xboxinfo", "0x6", "24"}, call.Arguments[:6])
	require.Equal(t, sui.PureBytes(bytes.Repeat([]byte{0xab}, 64)), call.Arguments[6])

	_, err = f.PrivateBuyBox(context.Background(), 1, "abcd")
	require.Error(t, err)
	require.Len(t, exec.calls, 1)
}

func TestOpenBoxNeedsThreeCollections(t *testing.T) {
	exec := &fakeExec{}
	f := New(exec, contract, zerolog.Nop())

	_, err := f.OpenBox(context.Background(), "0xbox", []string{"0xc1", "0xc2"}, sigHex)
	require.Error(t, err)
	require.Empty(t, exec.calls)

	_, err = f.OpenBox(context.Background(), "0xbox", []string{"0xc1", "0xc2", "0xc3"}, sigHex)
	require.NoError(t, err)
	require.Equal(t, "open_box", exec.calls[0].Function)
	require.Equal(t, []any{"0xcontract", "0xboxcfg", "0xbox", "0xboxinfo", "0x6", "0xc1", "0xc2", "0xc3"}, exec.calls[0].Arguments[:8])
}

func TestFreeMintAndClaim(t *testing.T) {
	exec := &fakeExec{}
	f := New(exec, contract, zerolog.Nop())

	_, err := f.FreeMint(context.Background(), "0xtemplate")
	require.NoError(t, err)
	require.Equal(t, []any{"0xtemplate", "0xavatar", "0xspace", "0xcoupon"}, exec.calls[0].Arguments)

	_, err = f.ClaimCoupon(context.Background(), "0xcouponnft")
	require.NoError(t, err)
	require.Equal(t, "claimCoupon", exec.calls[1].Function)
	require.Equal(t, []any{"0xphase", "0xcouponnft", "0xboxcfg"}, exec.calls[1].Arguments)
}

func TestMissingCapsNamed(t *testing.T) {
	c := contract
	c.SpaceMintCap = ""
	exec := &fakeExec{}
	_, err := New(exec, c, zerolog.Nop()).FreeMint(context.Background(), "0xtemplate")
	require.EqualError(t, err, "SPACE_MINT_CAP is not set")
	require.Empty(t, exec.calls)
}

func TestTransferObject(t *testing.T) {
	exec := &fakeExec{}
	f := New(exec, contract, zerolog.Nop())
	_, err := f.TransferObject(context.Background(), "0x342c", "0x17e2")
	require.NoError(t, err)
	require.Equal(t, "0x342c", exec.transfers[0][0])
	require.True(t, strings.HasSuffix(exec.transfers[0][1], "17e2"))
	require.Len(t, exec.transfers[0][1], 66)

	_, err = f.TransferObject(context.Background(), "0x342c", "bob")
	require.Error(t, err)
}

func TestMintVoucherRoundTrip(t *testing.T) {
	kp, err := sui.KeypairFromSeed(bytes.Repeat([]byte{9}, 32))
	require.NoError(t, err)
	addr := "0x633c214f58faf05c8b7e07093ae5c368b1d59e0cffe9de53b31a46fad00fc89b"

	msg, err := MintVoucherMessage(addr, 1, 24)
	require.NoError(t, err)
	require.Len(t, msg, 32+1+8)
	require.Equal(t, byte(1), msg[32])
	require.Equal(t, byte(24), msg[33])

	sig, err := SignMintVoucher(kp, addr, 1, 24)
	require.NoError(t, err)
	require.Len(t, sig, 128)
	require.NoError(t, VerifyMintVoucher(kp.PublicKey(), addr, 1, 24, sig))
	require.Error(t, VerifyMintVoucher(kp.PublicKey(), addr, 1, 25, sig))

	exec := &fakeExec{}
	_, err = New(exec, contract, zerolog.Nop()).PrivateBuyBox(context.Background(), 24, sig)
	require.NoError(t, err)
}
