package orchestrator

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/theblitlabs/vecstake/internal/utils"
	"github.com/theblitlabs/vecstake/internal/wallet"
)

var (
	ErrActionInFlight = errors.New("action already in progress")
	ErrReverted       = errors.New("transaction reverted")
)

// TransactionFailure is any failure of a submitted or attempted transaction
// other than the user declining to sign.
type TransactionFailure struct {
	Action Action
	Step   Step
	TxHash common.Hash
	Err    error
}

func (e *TransactionFailure) Error() string {
	if e.TxHash != (common.Hash{}) {
		return fmt.Sprintf("%s failed while %s (tx %s): %v", e.Action, e.Step, e.TxHash.Hex(), e.Err)
	}
	return fmt.Sprintf("%s failed while %s: %v", e.Action, e.Step, e.Err)
}

func (e *TransactionFailure) Unwrap() error {
	return e.Err
}

// UserMessage is the short text shown to the user when action fails with err.
func UserMessage(action Action, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, wallet.ErrNotConnected):
		return "Connect Wallet First"
	case errors.Is(err, ErrActionInFlight):
		return "Transaction already in progress"
	case errors.Is(err, utils.ErrInvalidAmount):
		if action == ActionStake {
			return "Enter a valid amount"
		}
		return "Enter valid amount"
	case wallet.IsUserRejected(err):
		return "Transaction Rejected"
	}

	switch action {
	case ActionStake:
		return "Transaction Failed. Check Console."
	case ActionUnstake:
		return "Unstake Failed"
	case ActionClaim:
		return "Claim Failed or No Rewards"
	default:
		return "Transaction Failed. Check Console."
	}
}
