package bcs

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestPrimitives(t *testing.T) {
	encode := func(e *Encoder) []byte {
		out, err := e.Result()
		if err != nil {
			t.Fatalf("Result: %v", err)
		}
		return out
	}
	cases := []struct {
		name string
		got  []byte
		want string
	}{
		{"u8", encode(NewEncoder().U8(2)), "02"},
		{"u64", encode(NewEncoder().U64(1)), "0100000000000000"},
		{"u64 max", encode(NewEncoder().U64(^uint64(0))), "ffffffffffffffff"},
		{"u64 little endian", encode(NewEncoder().U64(258)), "0201000000000000"},
	}
	for _, tc := range cases {
		if got := hex.EncodeToString(tc.got); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestAddress(t *testing.T) {
	out, err := NewEncoder().Address("0x6").Result()
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	if len(out) != 32 || out[31] != 6 || !bytes.Equal(out[:31], make([]byte, 31)) {
		t.Fatalf("unexpected address bytes %x", out)
	}
	if _, err := NewEncoder().Address("not-hex").Result(); err == nil {
		t.Fatalf("expected error for bad address")
	}
}

func TestEncoderConcatenatesAndStopsOnError(t *testing.T) {
	out, err := NewEncoder().Address("0x1").U8(1).U64(7).Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if len(out) != 32+1+8 || out[32] != 1 || out[33] != 7 {
		t.Fatalf("unexpected encoding %x", out)
	}
	if _, err := NewEncoder().Address("zz").U8(1).Result(); err == nil {
		t.Fatalf("expected error to be kept")
	}
}
