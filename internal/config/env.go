package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env from the working directory if present; existing variables win.
func LoadDotEnv() {
	_ = godotenv.Load() // best-effort
}

// ApplyEnv overlays deployment ids and network settings from the environment onto cfg. A
// non-empty network takes precedence over NETWORK and the file, so only the winning name is
// validated.
func ApplyEnv(cfg *Config, network string) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	LoadDotEnv()

	if network == "" {
		network = getEnv("NETWORK", cfg.Network.Name)
	}
	name, err := NormalizeNetwork(network)
	if err != nil {
		return err
	}
	cfg.Network.Name = name
	cfg.Network.RPCURL = getEnv("SUI_RPC_URL", cfg.Network.RPCURL)
	cfg.Network.WSURL = getEnv("SUI_WS_URL", cfg.Network.WSURL)

	c := &cfg.Contract
	c.PackageID = getEnv("PACKAGE_ID", c.PackageID)
	c.ContractID = getEnv("CONTRACT_ID", c.ContractID)
	c.PhaseID = getEnv("PHASE_ID", c.PhaseID)
	c.CollectionID = getEnv("COLLECTION_ID", c.CollectionID)
	c.UpgradeCap = getEnv("UPGRADE_CAP", c.UpgradeCap)
	c.BoxConfigID = getEnv("BOX_CONFIG_ID", c.BoxConfigID)
	c.BoxInfoID = getEnv("BOX_INFO_ID", c.BoxInfoID)
	c.AvatarMintCap = getEnv("AVATAR_MINT_CAP", c.AvatarMintCap)
	c.SpaceMintCap = getEnv("SPACE_MINT_CAP", c.SpaceMintCap)
	c.CouponMintCap = getEnv("COUPON_MINT_CAP", c.CouponMintCap)
	c.MysteryBoxMintCap = getEnv("MYSTERY_BOX_MINT_CAP", c.MysteryBoxMintCap)

	if v := strings.TrimSpace(os.Getenv("CURRENT_PHASE")); v != "" {
		phase, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return fmt.Errorf("CURRENT_PHASE: %w", err)
		}
		cfg.Phase.Current = uint8(phase)
	}
	return nil
}

// Require returns an error naming the first env variable whose value is empty.
// Pairs are given as env name, value.
func Require(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%s is not set", pairs[i])
		}
	}
	return nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
