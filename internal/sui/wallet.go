package sui

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvMnemonics holds the deployer/operator wallet that pays for and signs transactions.
	EnvMnemonics = "MNEMONICS"
	// EnvSignerMnemonics holds the key whose public half the contract uses to verify vouchers.
	EnvSignerMnemonics = "SIGNER_MNEMONICS"
)

// LoadKeypairFromEnv derives a keypair from the mnemonic stored in the named variable.
func LoadKeypairFromEnv(name string) (*Keypair, error) {
	_ = godotenv.Load() // best-effort
	mnemonic := strings.TrimSpace(os.Getenv(name))
	if mnemonic == "" {
		return nil, fmt.Errorf("%s not set", name)
	}
	kp, err := DeriveKeypair(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return kp, nil
}
