package stakewallet

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// StakeWalletContract is the Go binding of the staking rewards contract
type StakeWalletContract struct {
	address common.Address
	backend bind.ContractBackend
	abi     abi.ABI
}

const StakeWalletABI = `[
    {
      "inputs": [{"internalType": "address", "name": "account", "type": "address"}],
      "name": "balanceOf",
      "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
      "stateMutability": "view",
      "type": "function"
    },
    {
      "inputs": [{"internalType": "address", "name": "account", "type": "address"}],
      "name": "earned",
      "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
      "stateMutability": "view",
      "type": "function"
    },
    {
      "inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}],
      "name": "stake",
      "outputs": [],
      "stateMutability": "nonpayable",
      "type": "function"
    },
    {
      "inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}],
      "name": "withdraw",
      "outputs": [],
      "stateMutability": "nonpayable",
      "type": "function"
    },
    {
      "inputs": [],
      "name": "getReward",
      "outputs": [],
      "stateMutability": "nonpayable",
      "type": "function"
    },
    {
      "inputs": [],
      "name": "exit",
      "outputs": [],
      "stateMutability": "nonpayable",
      "type": "function"
    }
  ]`

// NewStakeWalletContract creates a new instance of the contract bindings
func NewStakeWalletContract(address common.Address, backend bind.ContractBackend) (*StakeWalletContract, error) {
	contractABI, err := abi.JSON(strings.NewReader(StakeWalletABI))
	if err != nil {
		return nil, err
	}

	return &StakeWalletContract{
		address: address,
		backend: backend,
		abi:     contractABI,
	}, nil
}

func (c *StakeWalletContract) bound() *bind.BoundContract {
	return bind.NewBoundContract(c.address, c.abi, c.backend, c.backend, c.backend)
}

// BalanceOf returns the amount staked by account
func (c *StakeWalletContract) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.bound().Call(opts, &out, "balanceOf", account); err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Earned returns the rewards account can claim
func (c *StakeWalletContract) Earned(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.bound().Call(opts, &out, "earned", account); err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Stake deposits amount tokens; the caller must have approved the contract first
func (c *StakeWalletContract) Stake(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return c.bound().Transact(opts, "stake", amount)
}

// Withdraw takes amount tokens out of the stake
func (c *StakeWalletContract) Withdraw(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return c.bound().Transact(opts, "withdraw", amount)
}

// GetReward claims all pending rewards
func (c *StakeWalletContract) GetReward(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.bound().Transact(opts, "getReward")
}

// Exit withdraws the whole stake and claims rewards in one call
func (c *StakeWalletContract) Exit(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.bound().Transact(opts, "exit")
}
