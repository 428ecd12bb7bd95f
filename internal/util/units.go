package util

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// MistPerSUI is the number of MIST in one SUI.
const MistPerSUI uint64 = 1_000_000_000

// WholeSUIToMist converts an integer SUI amount to MIST, refusing values that overflow uint64.
func WholeSUIToMist(sui uint64) (uint64, error) {
	if sui > math.MaxUint64/MistPerSUI {
		return 0, fmt.Errorf("amount %d SUI overflows MIST", sui)
	}
	return sui * MistPerSUI, nil
}

// ParseSUI parses a decimal SUI amount such as "0.1" into MIST without float rounding.
func ParseSUI(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("invalid SUI amount %q", s)
	}
	if r.Sign() < 0 {
		return 0, fmt.Errorf("negative SUI amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetUint64(MistPerSUI))
	if !r.IsInt() {
		return 0, fmt.Errorf("SUI amount %q has more than 9 decimals", s)
	}
	n := r.Num()
	if !n.IsUint64() {
		return 0, fmt.Errorf("SUI amount %q overflows MIST", s)
	}
	return n.Uint64(), nil
}

// FormatSUI renders MIST as a decimal SUI string with trailing zeros trimmed.
func FormatSUI(mist uint64) string {
	whole := mist / MistPerSUI
	frac := mist % MistPerSUI
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	fs := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return strconv.FormatUint(whole, 10) + "." + fs
}
