package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/vecstake/internal/orchestrator"
	"github.com/theblitlabs/vecstake/internal/session"
	"github.com/theblitlabs/vecstake/internal/utils/cliutil"
	"github.com/theblitlabs/vecstake/internal/utils/contextutil"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

func NewStakeCommand() *cobra.Command {
	return amountCommand(orchestrator.ActionStake, "Approve if needed, then stake VEC tokens", func(c *session.Controller) (string, error) {
		return c.MaxStake()
	}, func(ctx context.Context, c *session.Controller, amount string) error {
		return c.Stake(ctx, amount)
	})
}

func NewUnstakeCommand() *cobra.Command {
	return amountCommand(orchestrator.ActionUnstake, "Withdraw staked VEC tokens", func(c *session.Controller) (string, error) {
		return c.MaxUnstake()
	}, func(ctx context.Context, c *session.Controller, amount string) error {
		return c.Unstake(ctx, amount)
	})
}

func NewClaimCommand() *cobra.Command {
	log := logger.WithComponent("claim")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "claim",
		Short: "Claim staking rewards",
		RunFunc: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, orchestrator.ActionClaim, func(ctx context.Context, c *session.Controller) error {
				return c.Claim(ctx)
			})
		},
	}, log)
}

func amountCommand(
	action orchestrator.Action,
	short string,
	fullAmount func(*session.Controller) (string, error),
	run func(context.Context, *session.Controller, string) error,
) *cobra.Command {
	log := logger.WithComponent(string(action))

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   string(action),
		Short: short,
		Flags: map[string]cliutil.Flag{
			"amount": {
				Type:        cliutil.FlagTypeString,
				Shorthand:   "a",
				Description: "Amount of VEC, or \"max\" for the full balance",
				Required:    true,
			},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			amount, err := cmd.Flags().GetString("amount")
			if err != nil {
				return fmt.Errorf("failed to get amount flag: %w", err)
			}

			return runAction(cmd, action, func(ctx context.Context, c *session.Controller) error {
				if amount == "max" {
					if amount, err = fullAmount(c); err != nil {
						return err
					}
					log.Info().Str("amount", amount).Msg("Using full balance")
				}
				return run(ctx, c, amount)
			})
		},
	}, log)
}

// runAction connects, runs fn while printing its notices, and returns a
// user-facing error when the action fails.
func runAction(cmd *cobra.Command, action orchestrator.Action, fn func(context.Context, *session.Controller) error) error {
	log := logger.WithComponent(string(action))

	ctx, cancel := contextutil.WithSignal(cmd.Context())
	defer cancel()

	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	stop := printNotices(c.controller, cmd.OutOrStdout(), c.controller.Deployment())
	err = fn(ctx, c.controller)
	stop()

	if err != nil {
		log.Debug().Err(err).Msg("Action failed")
		return fmt.Errorf("%s: %w", orchestrator.UserMessage(action, err), err)
	}
	return nil
}
