package mocks

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type MockToken struct {
	NameFn      func(opts *bind.CallOpts) (string, error)
	SymbolFn    func(opts *bind.CallOpts) (string, error)
	DecimalsFn  func(opts *bind.CallOpts) (uint8, error)
	BalanceOfFn func(opts *bind.CallOpts, account common.Address) (*big.Int, error)
	AllowanceFn func(opts *bind.CallOpts, owner common.Address, spender common.Address) (*big.Int, error)
	ApproveFn   func(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error)
}

func (m *MockToken) Name(opts *bind.CallOpts) (string, error) {
	if m.NameFn != nil {
		return m.NameFn(opts)
	}
	return "Mock Token", nil
}

func (m *MockToken) Symbol(opts *bind.CallOpts) (string, error) {
	if m.SymbolFn != nil {
		return m.SymbolFn(opts)
	}
	return "MOCK", nil
}

func (m *MockToken) Decimals(opts *bind.CallOpts) (uint8, error) {
	if m.DecimalsFn != nil {
		return m.DecimalsFn(opts)
	}
	return 18, nil
}

func (m *MockToken) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	if m.BalanceOfFn != nil {
		return m.BalanceOfFn(opts, account)
	}
	return big.NewInt(0), nil
}

func (m *MockToken) Allowance(opts *bind.CallOpts, owner common.Address, spender common.Address) (*big.Int, error) {
	if m.AllowanceFn != nil {
		return m.AllowanceFn(opts, owner, spender)
	}
	return big.NewInt(0), nil
}

func (m *MockToken) Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	if m.ApproveFn != nil {
		return m.ApproveFn(opts, spender, amount)
	}
	return &types.Transaction{}, nil
}
