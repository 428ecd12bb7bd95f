package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/StarryNift/starrynift-nft-box/internal/app"
	"github.com/StarryNift/starrynift-nft-box/internal/config"
	"github.com/StarryNift/starrynift-nft-box/internal/metrics"
	"github.com/StarryNift/starrynift-nft-box/internal/reward"
	"github.com/StarryNift/starrynift-nft-box/internal/risk"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
	"github.com/StarryNift/starrynift-nft-box/internal/util"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

type daemon struct {
	env      *app.Env
	scanner  *reward.Scanner
	releaser *reward.Releaser
}

func newRoot() *cobra.Command {
	var (
		flags app.Flags
		live  bool
	)
	root := &cobra.Command{
		Use:          "reward",
		Short:        "Pay SUI to addresses that claimed coupons",
		SilenceUsage: true,
	}
	flags.Register(root)
	root.PersistentFlags().BoolVar(&live, "live", false, "send payments even when reward.dry_run is set")

	open := func(withKey bool) (*daemon, error) {
		env, err := app.Open(flags, "reward", withKey)
		if err != nil {
			return nil, err
		}
		cfg := env.Config.Reward
		scanner := reward.NewScanner(env.Client, reward.ScannerConfig{
			EventType:   env.Config.ClaimEventType(),
			PageSize:    cfg.PageSize,
			Concurrency: cfg.FetchConcurrency,
			ClaimsPath:  cfg.ClaimsPath,
		}, env.Log)
		d := &daemon{env: env, scanner: scanner}
		if !withKey {
			return d, nil
		}
		ledger, err := reward.LoadLedger(cfg.FundedPath, cfg.FundedLogPath)
		if err != nil {
			env.Close()
			return nil, err
		}
		dryRun := cfg.DryRun && !live
		d.releaser = reward.NewReleaser(scanner, ledger, env.Exec, reward.ReleaserConfig{
			DryRun: dryRun,
			Pause:  config.Millis(cfg.TransferIntervalMs),
			Limits: risk.Limits{MaxPerTransfer: cfg.MaxPerTransferMist, MaxTotal: cfg.MaxPerPassMist},
		}, env.Log)
		env.Log.Info().Str("event_type", scanner.EventType()).Bool("dry_run", dryRun).
			Int("funded", len(ledger.Snapshot())).Msg("reward releaser ready")
		return d, nil
	}

	withSignals := func(cmd *cobra.Command) (context.Context, context.CancelFunc) {
		return ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	}

	scan := &cobra.Command{
		Use:   "scan",
		Short: "Fetch every claim and write the claims file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := open(false)
			if err != nil {
				return err
			}
			defer d.env.Close()
			ctx, cancel := withSignals(cmd)
			defer cancel()
			claims, err := d.scanner.FetchAll(ctx)
			if err != nil {
				return err
			}
			var total uint64
			for _, c := range claims {
				total += c.Value
			}
			fmt.Fprintf(cmd.OutOrStdout(), "claims=%d value=%s SUI file=%s\n",
				len(claims), util.FormatSUI(total), d.env.Config.Reward.ClaimsPath)
			return nil
		},
	}

	once := &cobra.Command{
		Use:   "once",
		Short: "Run a single release pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := open(true)
			if err != nil {
				return err
			}
			defer d.env.Close()
			ctx, cancel := withSignals(cmd)
			defer cancel()
			rep, err := d.releaser.Release(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "pass=%s claims=%d paid=%d paid_sui=%s dry_run=%d refused=%d invalid=%d\n",
				rep.PassID, rep.Claims, rep.Paid, util.FormatSUI(rep.PaidMist), rep.DryRun, rep.Refused, rep.Invalid)
			return err
		},
	}

	var interval time.Duration
	run := &cobra.Command{
		Use:   "run",
		Short: "Release on a fixed interval and serve metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := open(true)
			if err != nil {
				return err
			}
			defer d.env.Close()
			ctx, cancel := withSignals(cmd)
			defer cancel()
			stop := serveMetrics(d.env)
			defer stop()
			every := interval
			if every <= 0 {
				every = config.Millis(d.env.Config.Reward.IntervalMs)
			}
			return ignoreCanceled(reward.Run(ctx, d.releaser, every, d.env.Log))
		},
	}
	run.Flags().DurationVar(&interval, "interval", 0, "time between passes (default reward.interval_ms)")

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Release whenever a claim event is pushed over the websocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := open(true)
			if err != nil {
				return err
			}
			defer d.env.Close()
			url, err := d.env.Config.Network.WebsocketEndpoint()
			if err != nil {
				return err
			}
			ctx, cancel := withSignals(cmd)
			defer cancel()
			stop := serveMetrics(d.env)
			defer stop()
			sub := sui.NewSubscriber(url, d.env.Log)
			return ignoreCanceled(reward.Watch(ctx, d.releaser, sub, d.scanner.EventType(), d.env.Log))
		},
	}

	root.AddCommand(scan, once, run, watch)
	return root
}

func serveMetrics(env *app.Env) func() {
	addr := env.Config.App.MetricsAddr
	if addr == "" {
		return func() {}
	}
	srv := metrics.Serve(addr)
	env.Log.Info().Str("addr", addr).Msg("metrics listening")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
