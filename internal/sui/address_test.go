package sui

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/mr-tron/base58"
)

func TestNormalizeAddress(t *testing.T) {
	cases := map[string]string{
		"0x6":  "0x0000000000000000000000000000000000000000000000000000000000000006",
		"0XAB": "0x00000000000000000000000000000000000000000000000000000000000000ab",
		" 0x2a4f0c1d9b2e3f4a5b6c7d8e9f0a1b2c3d4e5f60718293a4b5c6d7e8f9012345 ": "0x2a4f0c1d9b2e3f4a5b6c7d8e9f0a1b2c3d4e5f60718293a4b5c6d7e8f9012345",
	}
	for in, want := range cases {
		got, err := NormalizeAddress(in)
		if err != nil {
			t.Fatalf("NormalizeAddress(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeAddress(%q) = %s, want %s", in, got, want)
		}
	}
	for _, bad := range []string{"", "0x", "0xzz", "0x" + string(bytes.Repeat([]byte("a"), 65))} {
		if _, err := NormalizeAddress(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestAddressBytes(t *testing.T) {
	b, err := AddressBytes("0x6")
	if err != nil {
		t.Fatalf("AddressBytes: %v", err)
	}
	if len(b) != 32 || b[31] != 6 {
		t.Fatalf("unexpected bytes %x", b)
	}
}

func TestValidateDigest(t *testing.T) {
	good := base58.Encode(bytes.Repeat([]byte{7}, 32))
	if err := ValidateDigest(good); err != nil {
		t.Fatalf("valid digest rejected: %v", err)
	}
	if err := ValidateDigest(base58.Encode([]byte{1, 2, 3})); err == nil {
		t.Fatalf("short digest accepted")
	}
	if err := ValidateDigest("0OIl"); err == nil {
		t.Fatalf("non-base58 digest accepted")
	}
}

func TestPureBytesAndU64JSON(t *testing.T) {
	raw, err := json.Marshal([]any{PureBytes{1, 255, 0}, U64(18446744073709551615)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `[[1,255,0],"18446744073709551615"]` {
		t.Fatalf("unexpected JSON %s", raw)
	}
	empty, _ := json.Marshal(PureBytes{})
	if string(empty) != "[]" {
		t.Fatalf("empty PureBytes = %s", empty)
	}
}

func TestPickCoins(t *testing.T) {
	coins := []Coin{
		{CoinObjectID: "0xa", Balance: "10"},
		{CoinObjectID: "0xb", Balance: "500"},
		{CoinObjectID: "0xc", Balance: "100"},
	}
	ids, err := pickCoins(coins, 550)
	if err != nil {
		t.Fatalf("pickCoins: %v", err)
	}
	if len(ids) != 2 || ids[0] != "0xb" || ids[1] != "0xc" {
		t.Fatalf("unexpected selection %v", ids)
	}
	if _, err := pickCoins(coins, 1000); err == nil {
		t.Fatalf("expected insufficient balance error")
	}
}

func TestMoveContentFields(t *testing.T) {
	var content MoveContent
	if err := json.Unmarshal([]byte(`{"dataType":"moveObject","type":"0x2::dynamic_field::Field<address, u64>","fields":{"name":"0x1","value":"42"}}`), &content); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	v, err := content.FieldUint64("value")
	if err != nil || v != 42 {
		t.Fatalf("FieldUint64 = %d, %v", v, err)
	}
	if _, err := content.FieldUint64("missing"); err == nil {
		t.Fatalf("expected missing field error")
	}
}

func TestTransactionBlockDigest(t *testing.T) {
	tx := []byte{0, 1, 2, 3}
	d := TransactionBlockDigest(tx)
	if err := ValidateDigest(d); err != nil {
		t.Fatalf("digest %s does not validate: %v", d, err)
	}
	if TransactionBlockDigest(tx) != d {
		t.Fatalf("digest is not deterministic")
	}
	if TransactionBlockDigest([]byte{0, 1, 2, 4}) == d {
		t.Fatalf("different bytes share a digest")
	}
	signing := SigningDigest(tx)
	if base58.Encode(signing[:]) == d {
		t.Fatalf("transaction digest must not be the signing digest")
	}
}
