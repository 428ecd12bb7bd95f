package sui

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"
)

// DefaultDerivationPath is the first ed25519 account of a Sui wallet.
const DefaultDerivationPath = "m/44'/784'/0'/0'/0'"

const (
	flagEd25519  byte = 0x00
	hardenedBase      = 0x80000000
)

// transaction-data intent: scope TransactionData, version V0, app Sui
var transactionIntent = []byte{0, 0, 0}

// Keypair is an ed25519 signing key with its Sui address.
type Keypair struct {
	priv ed25519.PrivateKey
}

// DeriveKeypair derives the key at DefaultDerivationPath from a BIP-39 mnemonic.
func DeriveKeypair(mnemonic string) (*Keypair, error) {
	return DeriveKeypairPath(mnemonic, DefaultDerivationPath)
}

// DeriveKeypairPath derives the key at a hardened SLIP-0010 path from a BIP-39 mnemonic.
func DeriveKeypairPath(mnemonic, path string) (*Keypair, error) {
	words := strings.Join(strings.Fields(mnemonic), " ")
	seed, err := bip39.NewSeedWithErrorChecking(words, "")
	if err != nil {
		return nil, fmt.Errorf("mnemonic: %w", err)
	}
	key, _, err := deriveSLIP10(seed, path)
	if err != nil {
		return nil, err
	}
	return KeypairFromSeed(key)
}

// KeypairFromSeed builds a keypair from a 32 byte ed25519 seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Keypair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// PublicKey returns the raw 32 byte public key.
func (k *Keypair) PublicKey() ed25519.PublicKey {
	return k.priv.Public().(ed25519.PublicKey)
}

// Address returns the 0x-prefixed Sui address of the key.
func (k *Keypair) Address() string {
	return AddressFromPublicKey(k.PublicKey())
}

// Sign signs msg with no intent wrapping.
func (k *Keypair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.priv, msg)
}

// SignTransaction signs unsigned transaction bytes and returns the serialized signature
// flag || signature || public key, base64 encoded, as sui_executeTransactionBlock expects.
func (k *Keypair) SignTransaction(txBytes []byte) string {
	digest := SigningDigest(txBytes)
	sig := ed25519.Sign(k.priv, digest[:])

	out := make([]byte, 0, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	out = append(out, flagEd25519)
	out = append(out, sig...)
	out = append(out, k.PublicKey()...)
	return base64.StdEncoding.EncodeToString(out)
}

// SigningDigest is blake2b-256 over the intent-prefixed transaction bytes; it is what gets signed.
func SigningDigest(txBytes []byte) [32]byte {
	msg := make([]byte, 0, len(transactionIntent)+len(txBytes))
	msg = append(msg, transactionIntent...)
	msg = append(msg, txBytes...)
	return blake2b.Sum256(msg)
}

// VerifyTransactionSignature checks a serialized ed25519 signature against transaction bytes.
func VerifyTransactionSignature(serialized string, txBytes []byte) error {
	raw, err := base64.StdEncoding.DecodeString(serialized)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	if len(raw) != 1+ed25519.SignatureSize+ed25519.PublicKeySize {
		return fmt.Errorf("unexpected signature length %d", len(raw))
	}
	if raw[0] != flagEd25519 {
		return fmt.Errorf("unsupported signature scheme flag %#x", raw[0])
	}
	sig := raw[1 : 1+ed25519.SignatureSize]
	pub := ed25519.PublicKey(raw[1+ed25519.SignatureSize:])
	digest := SigningDigest(txBytes)
	if !ed25519.Verify(pub, digest[:], sig) {
		return errors.New("signature does not verify")
	}
	return nil
}

// AddressFromPublicKey hashes flag || pubkey with blake2b-256.
func AddressFromPublicKey(pub ed25519.PublicKey) string {
	buf := make([]byte, 0, 1+len(pub))
	buf = append(buf, flagEd25519)
	buf = append(buf, pub...)
	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:])
}

// deriveSLIP10 walks a fully hardened ed25519 path and returns the key and chain code.
func deriveSLIP10(seed []byte, path string) (key, chainCode []byte, err error) {
	indices, err := parsePath(path)
	if err != nil {
		return nil, nil, err
	}
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	key, chainCode = sum[:32], sum[32:]

	for _, index := range indices {
		data := make([]byte, 0, 37)
		data = append(data, 0x00)
		data = append(data, key...)
		data = binary.BigEndian.AppendUint32(data, index)

		mac = hmac.New(sha512.New, chainCode)
		mac.Write(data)
		sum = mac.Sum(nil)
		key, chainCode = sum[:32], sum[32:]
	}
	return key, chainCode, nil
}

func parsePath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("derivation path %q must start with m", path)
	}
	out := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		if !strings.HasSuffix(part, "'") {
			return nil, fmt.Errorf("derivation path %q: ed25519 only supports hardened segments", path)
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(part, "'"), 10, 31)
		if err != nil {
			return nil, fmt.Errorf("derivation path %q: %w", path, err)
		}
		out = append(out, uint32(n)+hardenedBase)
	}
	return out, nil
}
