package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/StarryNift/starrynift-nft-box/internal/config"
	"github.com/StarryNift/starrynift-nft-box/internal/execution"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

type fakeCaller struct {
	calls  []execution.MoveCall
	failOn string
	next   int
}

func (f *fakeCaller) Call(_ context.Context, call execution.MoveCall) (*execution.Result, error) {
	f.calls = append(f.calls, call)
	if f.failOn != "" && call.Function == f.failOn {
		return nil, errors.New("rpc unavailable")
	}
	f.next++
	return &execution.Result{Digest: "D", Status: "success", Created: []string{"0xobj" + string(rune('0'+f.next))}}, nil
}

type fakeReader struct {
	tx  *sui.TransactionBlockResponse
	obj *sui.ObjectResponse
}

func (f *fakeReader) GetObject(context.Context, string, sui.ObjectDataOptions) (*sui.ObjectResponse, error) {
	return f.obj, nil
}

func (f *fakeReader) GetTransactionBlock(context.Context, string, sui.TransactionBlockOptions) (*sui.TransactionBlockResponse, error) {
	return f.tx, nil
}

var fixedNow = time.Date(2023, 5, 9, 9, 0, 0, 500_000_000, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Contract: config.Contract{PackageID: "0xc133", ContractID: "0xcontract", PhaseID: "0xphase"},
		Box:      config.Box{Name: "AI ANIMO: Episode 2", Description: "desc", Image: "https://img/box.png"},
	}
}

func newService(caller Caller, reader Reader, cfg *config.Config) *Service {
	return New(caller, reader, cfg, zerolog.Nop(), WithClock(func() time.Time { return fixedNow }), WithItemPause(0))
}

func TestMissingIDsMakeNoCall(t *testing.T) {
	cfg := testConfig()
	cfg.Contract.PhaseID = ""
	caller := &fakeCaller{}
	s := newService(caller, nil, cfg)

	_, err := s.SetCurrentPhase(context.Background(), 2)
	require.EqualError(t, err, "PHASE_ID is not set")

	cfg = testConfig()
	cfg.Contract.PackageID = ""
	s = newService(caller, nil, cfg)
	_, err = s.ToggleContractFreeze(context.Background())
	require.EqualError(t, err, "PACKAGE_ID is not set")
	require.Empty(t, caller.calls)
}

func TestContractAdminCalls(t *testing.T) {
	caller := &fakeCaller{}
	s := newService(caller, nil, testConfig())
	ctx := context.Background()

	_, err := s.SetContractOwner(ctx, "0xcontract", "0x8b")
	require.NoError(t, err)
	_, err = s.SetContractReceiver(ctx, "0xcontract", "0x8b")
	require.NoError(t, err)
	_, err = s.SetSignerPublicKey(ctx, []byte{1, 2, 3})
	require.NoError(t, err)
	_, err = s.ToggleContractFreeze(ctx)
	require.NoError(t, err)

	require.Len(t, caller.calls, 4)
	require.Equal(t, "0xc133::admin::set_contract_owner", caller.calls[0].Target())
	require.Equal(t, []any{"0xcontract", "0x000000000000000000000000000000000000000000000000000000000000008b"}, caller.calls[0].Arguments)
	require.Equal(t, "set_contract_receiver", caller.calls[1].Function)
	require.Equal(t, sui.PureBytes{1, 2, 3}, caller.calls[2].Arguments[1])
	require.Equal(t, []any{"0xcontract"}, caller.calls[3].Arguments)

	_, err = s.SetContractOwner(ctx, "0xcontract", "not-an-address")
	require.Error(t, err)
}

func TestPhaseCalls(t *testing.T) {
	caller := &fakeCaller{}
	s := newService(caller, nil, testConfig())

	_, err := s.AddOrModifyPhaseConfig(context.Background(), 2, true, 100, 200)
	require.NoError(t, err)
	require.Equal(t, []any{"0xphase", "0xcontract", uint8(2), true, "100", "200"}, caller.calls[0].Arguments)

	_, err = s.AddOrModifyPhaseConfig(context.Background(), 2, true, 200, 200)
	require.Error(t, err)

	_, err = s.SetCurrentPhase(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "0xc133::phase_config::set_current_phase", caller.calls[1].Target())
}

func TestPhaseWindow(t *testing.T) {
	start, end, err := PhaseWindow(config.Phase{DurationDays: 10}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, uint64(fixedNow.Unix()), start)
	require.Equal(t, start+10*86400, end)

	want, _ := time.ParseInLocation(PhaseTimeLayout, "2023-05-09 17:00:00", time.Local)
	start, _, err = PhaseWindow(config.Phase{Start: "2023-05-09 17:00:00", DurationDays: 1}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, uint64(want.Unix()), start)

	_, _, err = PhaseWindow(config.Phase{Start: "May 9"}, fixedNow)
	require.Error(t, err)
}

func TestCreateBoxConfig(t *testing.T) {
	caller := &fakeCaller{}
	s := newService(caller, nil, testConfig())

	id, err := s.CreateBoxConfig(context.Background(), 2, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, "0xobj1", id)

	call := caller.calls[0]
	require.Equal(t, "0xc133::box_config::create_box_config", call.Target())
	require.Equal(t, []any{"0xcontract", uint8(2), "AI ANIMO: Episode 2", "desc", "https://img/box.png", "1000000", "1683622801"}, call.Arguments)

	require.NoError(t, s.ModifyBoxConfig(context.Background(), "0xbox", 2, 5))
	require.Equal(t, "0xbox", caller.calls[1].Arguments[0])
	require.Equal(t, "0xcontract", caller.calls[1].Arguments[1])

	require.EqualError(t, s.ModifyBoxConfig(context.Background(), "", 2, 5), "BOX_CONFIG_ID is not set")
}

func TestAddNFTItemsDispatchesByCategory(t *testing.T) {
	records, err := LoadMetadata(filepath.Join("..", "..", "consts", "Metadata.json"))
	require.NoError(t, err)
	require.Len(t, records, 4)

	var buf bytes.Buffer
	caller := &fakeCaller{failOn: "create_space_nft_config"}
	s := New(caller, nil, testConfig(), zerolog.New(&buf), WithItemPause(time.Millisecond))

	created, err := s.AddNFTItems(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, created, 4)

	// blank: coupon with amount 0 that cannot mint
	require.Equal(t, "create_coupon_nft_config", caller.calls[0].Function)
	require.Equal(t, []any{"0xcontract", "Blank", "Better luck next time.", records[0].Image, false, "SUI", "0"}, caller.calls[0].Arguments)
	// voucher: coupon with its amount
	require.Equal(t, true, caller.calls[1].Arguments[4])
	require.Equal(t, "20", caller.calls[1].Arguments[6])
	// space failed and keeps an empty id
	require.Equal(t, "create_space_nft_config", caller.calls[2].Function)
	require.Equal(t, uint8(1), caller.calls[2].Arguments[5])
	require.Equal(t, "", created[2].ObjectID)
	// avatar carries its asset id
	require.Equal(t, "create_avatar_nft_config", caller.calls[3].Function)
	require.Equal(t, "animo-0001", caller.calls[3].Arguments[5])
	require.NotEmpty(t, created[3].ObjectID)

	require.Contains(t, buf.String(), "nft template not created")

	out := filepath.Join(t.TempDir(), "out", "created.json")
	require.NoError(t, SaveCreated(out, created))
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var back []CreatedItem
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, created, back)
	require.True(t, strings.Contains(string(raw), "\n  {"), "output should be indented")
}

func TestAddNFTItemsEmpty(t *testing.T) {
	caller := &fakeCaller{}
	s := newService(caller, nil, testConfig())
	created, err := s.AddNFTItems(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, created)
	require.Empty(t, caller.calls)
}

func TestFetchDeployInfo(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "publish.json"))
	require.NoError(t, err)
	var changes []sui.ObjectChange
	require.NoError(t, json.Unmarshal(raw, &changes))

	s := newService(&fakeCaller{}, &fakeReader{tx: &sui.TransactionBlockResponse{ObjectChanges: changes}}, testConfig())
	info, err := s.FetchDeployInfo(context.Background(), "DaSA7ZBEQDeGmYqcQ35R6ziqqPePSTiczCcBznweQToD")
	require.NoError(t, err)

	require.Equal(t, &DeployInfo{
		PackageID:         "0xc133",
		CollectionID:      "0xcollection",
		ContractID:        "0xcontract",
		UpgradeCap:        "0xupgrade",
		PhaseID:           "0xphase",
		AvatarMintCap:     "0xavatarcap",
		SpaceMintCap:      "0xspacecap",
		CouponMintCap:     "0xcouponcap",
		MysteryBoxMintCap: "0xboxcap",
		BoxInfoID:         "0xboxinfo",
	}, info)

	lines := info.EnvLines()
	require.True(t, strings.HasPrefix(lines, "PACKAGE_ID=0xc133\nCOLLECTION_ID=0xcollection\n"))
	require.Contains(t, lines, "BOX_INFO_ID=0xboxinfo\n")
}

func TestParseDeployInfoWithoutPublish(t *testing.T) {
	_, err := ParseDeployInfo([]sui.ObjectChange{{Type: "created", ObjectType: "0x1::a::Contract", ObjectID: "0x2"}})
	require.Error(t, err)

	info, err := ParseDeployInfo([]sui.ObjectChange{{Type: "published", PackageID: "0x1"}})
	require.NoError(t, err)
	require.Equal(t, "PACKAGE_ID=0x1\n", info.EnvLines())
}

func TestQueryObject(t *testing.T) {
	reader := &fakeReader{obj: &sui.ObjectResponse{Data: &sui.ObjectData{ObjectID: "0xphase", Type: "0xc133::phase_config::Phase"}}}
	s := newService(&fakeCaller{}, reader, testConfig())
	data, err := s.QueryObject(context.Background(), "0xphase")
	require.NoError(t, err)
	require.Equal(t, "0xc133::phase_config::Phase", data.Type)

	reader.obj = &sui.ObjectResponse{}
	_, err = s.QueryObject(context.Background(), "0xphase")
	require.Error(t, err)
}
