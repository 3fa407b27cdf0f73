package mocks

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type MockStakeWallet struct {
	BalanceOfFn func(opts *bind.CallOpts, account common.Address) (*big.Int, error)
	EarnedFn    func(opts *bind.CallOpts, account common.Address) (*big.Int, error)
	StakeFn     func(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)
	WithdrawFn  func(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)
	GetRewardFn func(opts *bind.TransactOpts) (*types.Transaction, error)
	ExitFn      func(opts *bind.TransactOpts) (*types.Transaction, error)
}

func (m *MockStakeWallet) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	if m.BalanceOfFn != nil {
		return m.BalanceOfFn(opts, account)
	}
	return big.NewInt(0), nil
}

func (m *MockStakeWallet) Earned(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	if m.EarnedFn != nil {
		return m.EarnedFn(opts, account)
	}
	return big.NewInt(0), nil
}

func (m *MockStakeWallet) Stake(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	if m.StakeFn != nil {
		return m.StakeFn(opts, amount)
	}
	return &types.Transaction{}, nil
}

func (m *MockStakeWallet) Withdraw(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	if m.WithdrawFn != nil {
		return m.WithdrawFn(opts, amount)
	}
	return &types.Transaction{}, nil
}

func (m *MockStakeWallet) GetReward(opts *bind.TransactOpts) (*types.Transaction, error) {
	if m.GetRewardFn != nil {
		return m.GetRewardFn(opts)
	}
	return &types.Transaction{}, nil
}

func (m *MockStakeWallet) Exit(opts *bind.TransactOpts) (*types.Transaction, error) {
	if m.ExitFn != nil {
		return m.ExitFn(opts)
	}
	return &types.Transaction{}, nil
}
