package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/theblitlabs/vecstake/internal/api/handlers"
	"github.com/theblitlabs/vecstake/internal/utils/cliutil"
	"github.com/theblitlabs/vecstake/internal/utils/contextutil"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

func NewBalanceCommand() *cobra.Command {
	log := logger.WithComponent("balance")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "balance",
		Short: "Show ETH, VEC, staked and reward balances",
		RunFunc: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := contextutil.WithSignal(cmd.Context())
			defer cancel()
			ctx, cancelRead := contextutil.WithReadTimeout(ctx)
			defer cancelRead()

			c, err := connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			snap, err := c.controller.Refresh(ctx)
			if err != nil {
				return err
			}

			sess := c.controller.Session()
			log.Debug().Str("address", sess.Address.Hex()).Msg("Balances read")

			view := handlers.NewBalancesView(snap, c.controller.Deployment())
			printBalances(cmd.OutOrStdout(), handlers.NewSessionView(sess, c.controller.Deployment()), view)
			return nil
		},
	}, log)
}

func printBalances(out io.Writer, sess handlers.SessionView, view handlers.BalancesView) {
	label := color.New(color.FgHiBlack).SprintFunc()
	value := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(out, "%s %s (%s)\n", label("Account:"), value(sess.Address), sess.Network)
	row := func(name string, f handlers.FieldView, symbol string) {
		line := fmt.Sprintf("%s %s %s", label(fmt.Sprintf("%-9s", name+":")), value(f.Display), symbol)
		if f.Status == "stale" {
			line += " " + color.YellowString("(stale: %s)", f.Error)
		}
		fmt.Fprintln(out, line)
	}
	row("Balance", view.Native, view.NativeSymbol)
	row("Wallet", view.Token, view.TokenSymbol)
	row("Staked", view.Staked, view.TokenSymbol)
	row("Rewards", view.Rewards, view.TokenSymbol)
}
