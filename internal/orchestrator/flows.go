package orchestrator

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/theblitlabs/vecstake/internal/utils"
)

// Stake approves the staking contract for amount if the current allowance is
// lower, then stakes amount. amount is a decimal token amount.
func (o *Orchestrator) Stake(ctx context.Context, amount string) error {
	value, err := utils.ParsePositiveUnits(amount, o.decimals)
	if err != nil {
		return o.reject(ActionStake, err)
	}

	return o.run(ctx, ActionStake, "Staked Successfully!", func(ctx context.Context, r *runner) error {
		spender := o.contracts.StakingAddress()

		r.enter(StepCheckingAllowance)
		allowance, err := o.contracts.Allowance(ctx, o.owner, spender)
		if err != nil {
			return err
		}

		if allowance.Cmp(value) < 0 {
			o.log.Debug().
				Str("allowance", allowance.String()).
				Str("amount", value.String()).
				Msg("Allowance too low, approving")

			_, err := r.submit(ctx, StepApproving, "Approval Transaction Sent...", func() (*types.Transaction, error) {
				return o.contracts.Approve(ctx, spender, value)
			})
			if err != nil {
				return err
			}
			r.emit(StateAwaitingConfirmation, "Approval Confirmed!", LevelSuccess, nil)
		}

		_, err = r.submit(ctx, StepStaking, "Staking Transaction Sent...", func() (*types.Transaction, error) {
			return o.contracts.Stake(ctx, value)
		})
		return err
	})
}

// Unstake withdraws amount from the staking contract.
func (o *Orchestrator) Unstake(ctx context.Context, amount string) error {
	value, err := utils.ParsePositiveUnits(amount, o.decimals)
	if err != nil {
		return o.reject(ActionUnstake, err)
	}

	return o.run(ctx, ActionUnstake, "Unstaked Successfully!", func(ctx context.Context, r *runner) error {
		_, err := r.submit(ctx, StepUnstaking, "Unstake Transaction Sent...", func() (*types.Transaction, error) {
			return o.contracts.Withdraw(ctx, value)
		})
		return err
	})
}

// Claim collects pending rewards.
func (o *Orchestrator) Claim(ctx context.Context) error {
	return o.run(ctx, ActionClaim, "Rewards Claimed!", func(ctx context.Context, r *runner) error {
		_, err := r.submit(ctx, StepClaiming, "Claim Transaction Sent...", func() (*types.Transaction, error) {
			return o.contracts.ClaimReward(ctx)
		})
		return err
	})
}

