// Package app wires configuration, logging, the node client and the operator key for the binaries.
package app

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/StarryNift/starrynift-nft-box/internal/config"
	"github.com/StarryNift/starrynift-nft-box/internal/execution"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
	"github.com/StarryNift/starrynift-nft-box/internal/util"
)

// DefaultConfigPath is where the binaries look for YAML when --config is not given.
const DefaultConfigPath = "internal/config/config.yaml"

// Flags are the persistent flags every binary shares.
type Flags struct {
	ConfigPath string
	LogLevel   string
	Network    string
}

// Register adds the shared flags to root.
func (f *Flags) Register(root *cobra.Command) {
	root.PersistentFlags().StringVar(&f.ConfigPath, "config", DefaultConfigPath, "path to the YAML config")
	root.PersistentFlags().StringVar(&f.LogLevel, "log-level", "", "log level, overrides app.log_level")
	root.PersistentFlags().StringVar(&f.Network, "network", "", "mainnet|testnet|devnet|localnet, overrides NETWORK")
}

// Env is everything an operation needs.
type Env struct {
	Config *config.Config
	Log    zerolog.Logger
	Client *sui.Client
	Key    *sui.Keypair
	Exec   *execution.Executor
}

// Open loads config, builds the logger and client, and when withKey is set derives the operator key
// from MNEMONICS.
func Open(flags Flags, tool string, withKey bool) (*Env, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, flags.Network); err != nil {
		return nil, err
	}
	level := cfg.App.LogLevel
	if flags.LogLevel != "" {
		level = flags.LogLevel
	}
	log := util.ForTool(util.NewLogger(level), tool, cfg.Network.Name)

	endpoint, err := cfg.Network.Endpoint()
	if err != nil {
		return nil, err
	}
	client, err := sui.NewClient(sui.Config{Endpoint: endpoint, Timeout: config.Millis(cfg.Network.TimeoutMs)})
	if err != nil {
		return nil, err
	}
	env := &Env{Config: cfg, Log: log, Client: client}

	if withKey {
		key, err := sui.LoadKeypairFromEnv(sui.EnvMnemonics)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("operator key: %w", err)
		}
		env.Key = key
		env.Exec = execution.NewExecutor(client, key, cfg.Network.GasBudget, log)
		log.Info().Str("address", key.Address()).Str("rpc", endpoint).Msg("operator ready")
	}
	return env, nil
}

// Close releases the node client.
func (e *Env) Close() {
	if e.Client != nil {
		e.Client.Close()
	}
}
