// Package config exposes strongly typed tool configuration loaded from YAML and overridden from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, metrics address and log level.
type App struct {
	Name        string `yaml:"name"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Contract holds the on-chain object ids produced by a deployment. Normally filled from env.
type Contract struct {
	PackageID         string `yaml:"package_id"`
	ContractID        string `yaml:"contract_id"`
	PhaseID           string `yaml:"phase_id"`
	CollectionID      string `yaml:"collection_id"`
	UpgradeCap        string `yaml:"upgrade_cap"`
	BoxConfigID       string `yaml:"box_config_id"`
	BoxInfoID         string `yaml:"box_info_id"`
	AvatarMintCap     string `yaml:"avatar_mint_cap"`
	SpaceMintCap      string `yaml:"space_mint_cap"`
	CouponMintCap     string `yaml:"coupon_mint_cap"`
	MysteryBoxMintCap string `yaml:"mystery_box_mint_cap"`
}

// Box is the descriptive content written into box configs.
type Box struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	PriceMist   uint64 `yaml:"price_mist"`
}

// Phase describes the sale phase the setup tool configures.
type Phase struct {
	Current         uint8  `yaml:"current"`
	AllowPublicMint bool   `yaml:"allow_public_mint"`
	Start           string `yaml:"start"` // "2006-01-02 15:04:05" local time, empty = now
	DurationDays    int    `yaml:"duration_days"`
}

// Metadata points at the NFT metadata list and where created object ids are written.
type Metadata struct {
	Path       string `yaml:"path"`
	OutputPath string `yaml:"output_path"`
	IntervalMs int    `yaml:"interval_ms"`
}

// Airdrop configures gas airdrops.
type Airdrop struct {
	AmountMist         uint64 `yaml:"amount_mist"`
	IntervalMs         int    `yaml:"interval_ms"`
	LogPath            string `yaml:"log_path"`
	MaxPerTransferMist uint64 `yaml:"max_per_transfer_mist"`
	MaxTotalMist       uint64 `yaml:"max_total_mist"`
}

// Reward configures the coupon reconciliation daemon.
type Reward struct {
	EventType          string `yaml:"event_type"` // empty = <package>::box_nft::ClaimCouponEvent
	PageSize           int    `yaml:"page_size"`
	IntervalMs         int    `yaml:"interval_ms"`
	TransferIntervalMs int    `yaml:"transfer_interval_ms"`
	FetchConcurrency   int    `yaml:"fetch_concurrency"`
	ClaimsPath         string `yaml:"claims_path"`
	FundedPath         string `yaml:"funded_path"`
	FundedLogPath      string `yaml:"funded_log_path"`
	DryRun             bool   `yaml:"dry_run"`
	MaxPerTransferMist uint64 `yaml:"max_per_transfer_mist"`
	MaxPerPassMist     uint64 `yaml:"max_per_pass_mist"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Network  Network  `yaml:"network"`
	Contract Contract `yaml:"contract"`
	Box      Box      `yaml:"box"`
	Phase    Phase    `yaml:"phase"`
	Metadata Metadata `yaml:"metadata"`
	Airdrop  Airdrop  `yaml:"airdrop"`
	Reward   Reward   `yaml:"reward"`
}

// Load reads a YAML file from disk and hydrates a Config struct with defaults for unset leaves.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

const (
	defaultGasBudget     = 10_000_000 // 0.01 SUI
	defaultAirdropAmount = 100_000_000
)

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Network.GasBudget == 0 {
		c.Network.GasBudget = defaultGasBudget
	}
	if c.Network.TimeoutMs <= 0 {
		c.Network.TimeoutMs = 30_000
	}
	if c.Phase.DurationDays <= 0 {
		c.Phase.DurationDays = 30
	}
	if c.Metadata.Path == "" {
		c.Metadata.Path = "consts/Metadata.json"
	}
	if c.Metadata.OutputPath == "" {
		c.Metadata.OutputPath = "out/metadata-objects.json"
	}
	if c.Metadata.IntervalMs < 0 {
		c.Metadata.IntervalMs = 0
	}
	if c.Airdrop.AmountMist == 0 {
		c.Airdrop.AmountMist = defaultAirdropAmount
	}
	if c.Airdrop.IntervalMs <= 0 {
		c.Airdrop.IntervalMs = 5000
	}
	if c.Airdrop.LogPath == "" {
		c.Airdrop.LogPath = "out/airdrop.jsonl"
	}
	if c.Reward.PageSize <= 0 {
		c.Reward.PageSize = 50
	}
	if c.Reward.IntervalMs <= 0 {
		c.Reward.IntervalMs = 10 * 60 * 1000
	}
	if c.Reward.TransferIntervalMs <= 0 {
		c.Reward.TransferIntervalMs = 5000
	}
	if c.Reward.FetchConcurrency <= 0 {
		c.Reward.FetchConcurrency = 4
	}
	if c.Reward.ClaimsPath == "" {
		c.Reward.ClaimsPath = "totalClaim.json"
	}
	if c.Reward.FundedPath == "" {
		c.Reward.FundedPath = "funded.json"
	}
	if c.Reward.FundedLogPath == "" {
		c.Reward.FundedLogPath = "fundedLog.json"
	}
}

// Millis converts a millisecond config knob into a duration.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// ClaimEventType returns the Move event type the reward scanner queries.
func (c *Config) ClaimEventType() string {
	if c.Reward.EventType != "" {
		return c.Reward.EventType
	}
	return c.Contract.PackageID + "::box_nft::ClaimCouponEvent"
}
