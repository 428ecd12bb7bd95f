package main

import (
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/StarryNift/starrynift-nft-box/internal/airdrop"
	"github.com/StarryNift/starrynift-nft-box/internal/app"
	"github.com/StarryNift/starrynift-nft-box/internal/config"
	"github.com/StarryNift/starrynift-nft-box/internal/risk"
	"github.com/StarryNift/starrynift-nft-box/internal/util"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	var (
		flags     app.Flags
		addresses string
		amount    string
		logPath   string
		fresh     bool
	)
	root := &cobra.Command{
		Use:          "airdrop --addresses <file>",
		Short:        "Send a fixed SUI amount to every address in a list",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}
	flags.Register(root)
	root.Flags().StringVar(&addresses, "addresses", "", "JSON array or newline separated address file")
	root.Flags().StringVar(&amount, "amount", "", "SUI per address (default airdrop.amount_mist)")
	root.Flags().StringVar(&logPath, "log", "", "JSONL attempt log (default airdrop.log_path)")
	root.Flags().BoolVar(&fresh, "fresh", false, "ignore earlier successes and unconfirmed sends in the attempt log")
	_ = root.MarkFlagRequired("addresses")

	root.RunE = func(cmd *cobra.Command, _ []string) error {
		env, err := app.Open(flags, "airdrop", true)
		if err != nil {
			return err
		}
		defer env.Close()
		cfg := env.Config.Airdrop

		mist := cfg.AmountMist
		if amount != "" {
			if mist, err = util.ParseSUI(amount); err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
		}
		if logPath == "" {
			logPath = cfg.LogPath
		}

		list, err := airdrop.LoadAddresses(addresses)
		if err != nil {
			return err
		}
		done := map[string]bool{}
		if !fresh {
			if done, err = airdrop.Settled(logPath); err != nil {
				return err
			}
		}
		recorder, err := airdrop.NewJSONLRecorder(logPath)
		if err != nil {
			return err
		}
		defer recorder.Close()

		ctx, cancel := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		env.Log.Info().Int("addresses", len(list)).Int("already_done", len(done)).
			Str("amount", util.FormatSUI(mist)).Msg("starting airdrop")
		dropper := airdrop.New(env.Exec, recorder, airdrop.Config{
			AmountMist: mist,
			Interval:   config.Millis(cfg.IntervalMs),
			Limits:     risk.Limits{MaxPerTransfer: cfg.MaxPerTransferMist, MaxTotal: cfg.MaxTotalMist},
			Done:       done,
		}, env.Log)
		sum, err := dropper.Run(ctx, list)
		fmt.Fprintf(cmd.OutOrStdout(), "sent=%d skipped=%d total=%s SUI\n", sum.Sent, sum.Skipped, util.FormatSUI(sum.TotalMist))
		return err
	}
	return root
}
