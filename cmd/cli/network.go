package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/theblitlabs/vecstake/internal/api/handlers"
	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/utils/cliutil"
	"github.com/theblitlabs/vecstake/internal/utils/configutil"
	"github.com/theblitlabs/vecstake/internal/utils/contextutil"
	"github.com/theblitlabs/vecstake/internal/utils/walletutil"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

func NewNetworkCommand() *cobra.Command {
	log := logger.WithComponent("network")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "network",
		Short: "Show the wallet network, optionally switching to the target network",
		Flags: map[string]cliutil.Flag{
			"switch": {
				Type:        cliutil.FlagTypeBool,
				Description: "Switch the wallet to " + config.ChainName + ", adding it if needed",
			},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			doSwitch, err := cmd.Flags().GetBool("switch")
			if err != nil {
				return err
			}

			cfg, err := configutil.GetConfig()
			if err != nil {
				return err
			}

			w, err := walletutil.Open(cfg)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, cancel := contextutil.WithSignal(cmd.Context())
			defer cancel()

			target := config.TargetNetwork()
			if doSwitch {
				if err := w.Adapter.EnsureNetwork(ctx, target); err != nil {
					return fmt.Errorf("%s: %w", handlers.ConnectMessage(err), err)
				}
				log.Info().Int64("chain_id", target.ChainID).Msg("Wallet on target network")
			}

			active := w.Local.ActiveNetwork()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wallet network: %s (chain %d, %s)\n", active.Name, active.ChainID, active.RPCURL)
			if active.ChainID == target.ChainID {
				color.New(color.FgGreen).Fprintf(out, "On %s\n", target.Name)
			} else {
				color.New(color.FgYellow).Fprintf(out, "Please switch to %s (run with --switch)\n", target.Name)
			}
			return nil
		},
	}, log)
}
