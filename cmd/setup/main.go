package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/StarryNift/starrynift-nft-box/internal/admin"
	"github.com/StarryNift/starrynift-nft-box/internal/app"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
	"github.com/StarryNift/starrynift-nft-box/internal/util"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	var flags app.Flags
	root := &cobra.Command{
		Use:          "setup",
		Short:        "Administer the mystery box contract",
		SilenceUsage: true,
	}
	flags.Register(root)

	// withService opens the environment and runs fn against an admin service.
	withService := func(withKey bool, fn func(ctx context.Context, env *app.Env, svc *admin.Service) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			env, err := app.Open(flags, "setup", withKey)
			if err != nil {
				return err
			}
			defer env.Close()
			ctx, cancel := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			var caller admin.Caller
			if env.Exec != nil {
				caller = env.Exec
			}
			svc := admin.New(caller, env.Client, env.Config, env.Log)
			return fn(ctx, env, svc)
		}
	}

	var contractID string
	setOwner := &cobra.Command{
		Use:   "set-owner <address>",
		Short: "Hand the contract to a new owner",
		Args:  cobra.ExactArgs(1),
	}
	setOwner.RunE = func(cmd *cobra.Command, args []string) error {
		return withService(true, func(ctx context.Context, env *app.Env, svc *admin.Service) error {
			id := contractID
			if id == "" {
				id = env.Config.Contract.ContractID
			}
			_, err := svc.SetContractOwner(ctx, id, args[0])
			return err
		})(cmd, args)
	}
	setOwner.Flags().StringVar(&contractID, "contract", "", "contract object id (default CONTRACT_ID)")

	setReceiver := &cobra.Command{
		Use:   "set-receiver <address>",
		Short: "Change where sale proceeds are paid",
		Args:  cobra.ExactArgs(1),
	}
	setReceiver.RunE = func(cmd *cobra.Command, args []string) error {
		return withService(true, func(ctx context.Context, env *app.Env, svc *admin.Service) error {
			id := contractID
			if id == "" {
				id = env.Config.Contract.ContractID
			}
			_, err := svc.SetContractReceiver(ctx, id, args[0])
			return err
		})(cmd, args)
	}
	setReceiver.Flags().StringVar(&contractID, "contract", "", "contract object id (default CONTRACT_ID)")

	setSignerKey := &cobra.Command{
		Use:   "set-signer-key",
		Short: "Register the SIGNER_MNEMONICS public key as the voucher signer",
		RunE: withService(true, func(ctx context.Context, env *app.Env, svc *admin.Service) error {
			signer, err := sui.LoadKeypairFromEnv(sui.EnvSignerMnemonics)
			if err != nil {
				return err
			}
			env.Log.Info().Str("signer", signer.Address()).Msg("registering signer public key")
			_, err = svc.SetSignerPublicKey(ctx, signer.PublicKey())
			return err
		}),
	}

	toggleFreeze := &cobra.Command{
		Use:   "toggle-freeze",
		Short: "Freeze or unfreeze the contract",
		RunE: withService(true, func(ctx context.Context, _ *app.Env, svc *admin.Service) error {
			_, err := svc.ToggleContractFreeze(ctx)
			return err
		}),
	}

	root.AddCommand(
		setOwner,
		setReceiver,
		setSignerKey,
		toggleFreeze,
		phaseCommand(withService),
		boxCommand(withService),
		nftCommand(withService),
		deployInfoCommand(withService),
		queryObjectCommand(withService),
	)
	return root
}

// phaseFlag resolves a --phase value; negative means def. Phases are u8 on chain.
func phaseFlag(v int, def uint8) (uint8, error) {
	switch {
	case v < 0:
		return def, nil
	case v > math.MaxUint8:
		return 0, fmt.Errorf("--phase %d out of range 0-%d", v, math.MaxUint8)
	}
	return uint8(v), nil
}

type runner func(withKey bool, fn func(ctx context.Context, env *app.Env, svc *admin.Service) error) func(*cobra.Command, []string) error

func phaseCommand(withService runner) *cobra.Command {
	cmd := &cobra.Command{Use: "phase", Short: "Configure sale phases"}

	var (
		phase     int
		public    bool
		start     string
		days      int
		setPublic bool
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add or modify a phase window",
		RunE: withService(true, func(ctx context.Context, env *app.Env, svc *admin.Service) error {
			p := env.Config.Phase
			cur, err := phaseFlag(phase, p.Current)
			if err != nil {
				return err
			}
			p.Current = cur
			if setPublic {
				p.AllowPublicMint = public
			}
			if start != "" {
				p.Start = start
			}
			if days > 0 {
				p.DurationDays = days
			}
			from, to, err := admin.PhaseWindow(p, time.Now())
			if err != nil {
				return err
			}
			env.Log.Info().Uint8("phase", p.Current).Bool("public", p.AllowPublicMint).
				Time("start", time.Unix(int64(from), 0)).Time("end", time.Unix(int64(to), 0)).Msg("phase window")
			_, err = svc.AddOrModifyPhaseConfig(ctx, p.Current, p.AllowPublicMint, from, to)
			return err
		}),
	}
	add.PreRunE = func(c *cobra.Command, _ []string) error {
		setPublic = c.Flags().Changed("public")
		_, err := phaseFlag(phase, 0)
		return err
	}
	add.Flags().IntVar(&phase, "phase", -1, "phase number (default phase.current / CURRENT_PHASE)")
	add.Flags().BoolVar(&public, "public", false, "allow public mint")
	add.Flags().StringVar(&start, "start", "", "start time, "+admin.PhaseTimeLayout+" local")
	add.Flags().IntVar(&days, "days", 0, "phase length in days")

	var current int
	setCurrent := &cobra.Command{
		Use:   "set-current",
		Short: "Switch the active phase",
		RunE: withService(true, func(ctx context.Context, env *app.Env, svc *admin.Service) error {
			p, err := phaseFlag(current, env.Config.Phase.Current)
			if err != nil {
				return err
			}
			_, err = svc.SetCurrentPhase(ctx, p)
			return err
		}),
	}
	setCurrent.PreRunE = func(*cobra.Command, []string) error {
		_, err := phaseFlag(current, 0)
		return err
	}
	setCurrent.Flags().IntVar(&current, "phase", -1, "phase number (default phase.current / CURRENT_PHASE)")

	cmd.AddCommand(add, setCurrent)
	return cmd
}

func boxCommand(withService runner) *cobra.Command {
	cmd := &cobra.Command{Use: "box", Short: "Manage box configs"}

	var (
		phase int
		price string
	)
	resolve := func(env *app.Env) (uint8, uint64, error) {
		p, err := phaseFlag(phase, env.Config.Phase.Current)
		if err != nil {
			return 0, 0, err
		}
		mist := env.Config.Box.PriceMist
		if price != "" {
			v, err := util.ParseSUI(price)
			if err != nil {
				return 0, 0, fmt.Errorf("--price: %w", err)
			}
			mist = v
		}
		return p, mist, nil
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a box config for a phase",
		RunE: withService(true, func(ctx context.Context, env *app.Env, svc *admin.Service) error {
			p, mist, err := resolve(env)
			if err != nil {
				return err
			}
			id, err := svc.CreateBoxConfig(ctx, p, mist)
			if err != nil {
				return err
			}
			fmt.Printf("BOX_CONFIG_ID=%s\n", id)
			return nil
		}),
	}
	modify := &cobra.Command{
		Use:   "modify [box-config-id]",
		Short: "Rewrite an existing box config",
		Args:  cobra.MaximumNArgs(1),
	}
	modify.RunE = func(c *cobra.Command, args []string) error {
		return withService(true, func(ctx context.Context, env *app.Env, svc *admin.Service) error {
			id := env.Config.Contract.BoxConfigID
			if len(args) == 1 {
				id = args[0]
			}
			p, mist, err := resolve(env)
			if err != nil {
				return err
			}
			return svc.ModifyBoxConfig(ctx, id, p, mist)
		})(c, args)
	}
	for _, c := range []*cobra.Command{create, modify} {
		c.PreRunE = func(*cobra.Command, []string) error {
			_, err := phaseFlag(phase, 0)
			return err
		}
		c.Flags().IntVar(&phase, "phase", -1, "phase number (default phase.current / CURRENT_PHASE)")
		c.Flags().StringVar(&price, "price", "", "box price in SUI (default box.price_mist)")
	}
	cmd.AddCommand(create, modify)
	return cmd
}

func nftCommand(withService runner) *cobra.Command {
	var metadataPath, outPath string
	cmd := &cobra.Command{
		Use:   "add-nft-items",
		Short: "Create an NFT template for every metadata record",
		RunE: withService(true, func(ctx context.Context, env *app.Env, svc *admin.Service) error {
			path := env.Config.Metadata.Path
			if metadataPath != "" {
				path = metadataPath
			}
			records, err := admin.LoadMetadata(path)
			if err != nil {
				return err
			}
			created, err := svc.AddNFTItems(ctx, records)
			out := env.Config.Metadata.OutputPath
			if outPath != "" {
				out = outPath
			}
			if out != "" && len(created) > 0 {
				if werr := admin.SaveCreated(out, created); werr != nil {
					env.Log.Error().Err(werr).Str("path", out).Msg("failed to write created templates")
				}
			}
			if err != nil {
				return err
			}
			raw, _ := json.MarshalIndent(created, "", "  ")
			fmt.Println(string(raw))
			return nil
		}),
	}
	cmd.Flags().StringVar(&metadataPath, "metadata", "", "metadata JSON (default metadata.path)")
	cmd.Flags().StringVar(&outPath, "out", "", "where to write created ids (default metadata.output_path)")
	return cmd
}

func deployInfoCommand(withService runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy-info <publish-digest>",
		Short: "Print the .env lines for a publish transaction",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return withService(false, func(ctx context.Context, _ *app.Env, svc *admin.Service) error {
			info, err := svc.FetchDeployInfo(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(c.OutOrStdout(), info.EnvLines())
			return nil
		})(c, args)
	}
	return cmd
}

func queryObjectCommand(withService runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query-object <object-id>",
		Short: "Print an object's type and content",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return withService(false, func(ctx context.Context, _ *app.Env, svc *admin.Service) error {
			data, err := svc.QueryObject(ctx, args[0])
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), string(raw))
			return nil
		})(c, args)
	}
	return cmd
}
