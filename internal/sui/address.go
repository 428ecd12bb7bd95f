package sui

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// transactionDataPrefix is the type tag the network hashes in front of transaction bytes.
const transactionDataPrefix = "TransactionData::"

const addressHexLen = 64

// NormalizeAddress lower-cases an address or object id and left-pads it to 32 bytes.
func NormalizeAddress(s string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(s))
	h = strings.TrimPrefix(h, "0x")
	if h == "" || len(h) > addressHexLen {
		return "", fmt.Errorf("invalid address %q", s)
	}
	if _, err := hex.DecodeString(padHex(h)); err != nil {
		return "", fmt.Errorf("invalid address %q: %w", s, err)
	}
	return "0x" + strings.Repeat("0", addressHexLen-len(h)) + h, nil
}

// padHex makes odd-length hex decodable for validation.
func padHex(h string) string {
	if len(h)%2 == 1 {
		return "0" + h
	}
	return h
}

// AddressBytes returns the 32 raw bytes of an address.
func AddressBytes(s string) ([]byte, error) {
	norm, err := NormalizeAddress(s)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(norm[2:])
}

// ValidateDigest checks that s is a base58 encoded 32 byte transaction digest.
func ValidateDigest(s string) error {
	raw, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid digest %q: %w", s, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("invalid digest %q: %d bytes", s, len(raw))
	}
	return nil
}

// TransactionBlockDigest returns the base58 digest the network assigns to unsigned transaction bytes,
// so a transaction can be looked up even when its submit response was lost.
func TransactionBlockDigest(txBytes []byte) string {
	msg := make([]byte, 0, len(transactionDataPrefix)+len(txBytes))
	msg = append(msg, transactionDataPrefix...)
	msg = append(msg, txBytes...)
	sum := blake2b.Sum256(msg)
	return base58.Encode(sum[:])
}
