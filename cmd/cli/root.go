package cli

import (
	"github.com/spf13/cobra"

	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/utils/configutil"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

// NewRootCommand assembles the vecstake command tree.
func NewRootCommand() *cobra.Command {
	var (
		logMode    string
		configPath string
	)

	root := &cobra.Command{
		Use:   "vecstake",
		Short: "VEC staking dashboard",
		Long:  `Stake VEC tokens, track balances and claim rewards on Sepolia from the terminal or a local dashboard`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch logMode {
			case "debug", "pretty", "info", "prod", "test":
				logger.InitWithMode(logger.LogMode(logMode))
			default:
				logger.InitWithMode(logger.LogModePretty)
			}
			configutil.SetPath(configPath)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&logMode, "log", "pretty", "Log mode: debug, pretty, info, prod, test")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to the config file")

	root.AddCommand(
		NewAuthCommand(),
		NewTokenCommand(),
		NewBalanceCommand(),
		NewStakeCommand(),
		NewUnstakeCommand(),
		NewClaimCommand(),
		NewNetworkCommand(),
		NewServerCommand(),
		NewWatchCommand(),
	)

	return root
}
