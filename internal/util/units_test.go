package util

import (
	"math"
	"testing"
)

func TestParseSUI(t *testing.T) {
	cases := map[string]uint64{
		"0.1":         100_000_000,
		"1":           1_000_000_000,
		"0.001":       1_000_000,
		"0.000000001": 1,
		" 2.5 ":       2_500_000_000,
	}
	for in, want := range cases {
		got, err := ParseSUI(in)
		if err != nil {
			t.Fatalf("ParseSUI(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSUI(%q) = %d, want %d", in, got, want)
		}
	}

	for _, bad := range []string{"", "abc", "-1", "0.0000000001"} {
		if _, err := ParseSUI(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestWholeSUIToMist(t *testing.T) {
	got, err := WholeSUIToMist(500)
	if err != nil || got != 500_000_000_000 {
		t.Fatalf("unexpected conversion %d, %v", got, err)
	}
	if _, err := WholeSUIToMist(math.MaxUint64); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestFormatSUI(t *testing.T) {
	if got := FormatSUI(100_000_000); got != "0.1" {
		t.Fatalf("unexpected %s", got)
	}
	if got := FormatSUI(3_000_000_000); got != "3" {
		t.Fatalf("unexpected %s", got)
	}
	if got := FormatSUI(1_000_000_001); got != "1.000000001" {
		t.Fatalf("unexpected %s", got)
	}
}
