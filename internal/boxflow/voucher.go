package boxflow

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"

	"github.com/StarryNift/starrynift-nft-box/internal/bcs"
)

// VoucherSigner is the contract signer key.
type VoucherSigner interface {
	Sign(msg []byte) []byte
}

// MintVoucherMessage is BCS(address) || BCS(u8 phase) || BCS(u64 nonce).
func MintVoucherMessage(address string, phase uint8, nonce uint64) ([]byte, error) {
	return bcs.NewEncoder().Address(address).U8(phase).U64(nonce).Result()
}

// SignMintVoucher produces the hex signature PrivateBuyBox expects, for testnet runs where the
// operator holds the signer key.
func SignMintVoucher(signer VoucherSigner, address string, phase uint8, nonce uint64) (string, error) {
	msg, err := MintVoucherMessage(address, phase, nonce)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(signer.Sign(msg)), nil
}

// VerifyMintVoucher checks a voucher signature against the signer's public key.
func VerifyMintVoucher(pub ed25519.PublicKey, address string, phase uint8, nonce uint64, signatureHex string) error {
	msg, err := MintVoucherMessage(address, phase, nonce)
	if err != nil {
		return err
	}
	sig, err := decodeSignature(signatureHex)
	if err != nil {
		return err
	}
	if !ed25519.Verify(pub, msg, sig) {
		return errors.New("voucher signature does not verify")
	}
	return nil
}
