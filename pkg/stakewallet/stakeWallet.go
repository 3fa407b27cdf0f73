package stakewallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// StakeWallet represents the staking contract interface
type StakeWallet interface {
	// Read-only methods
	BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error)
	Earned(opts *bind.CallOpts, account common.Address) (*big.Int, error)

	// Transaction methods
	Stake(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)
	Withdraw(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)
	GetReward(opts *bind.TransactOpts) (*types.Transaction, error)
	Exit(opts *bind.TransactOpts) (*types.Transaction, error)
}

// NewStakeWallet creates a new instance of StakeWallet
func NewStakeWallet(address common.Address, backend bind.ContractBackend) (StakeWallet, error) {
	return NewStakeWalletContract(address, backend)
}
