package mocks

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

// MockContracts mocks the contract client used by the balance fetcher and
// the transaction orchestrator.
type MockContracts struct {
	mock.Mock
}

func bigOrNil(v interface{}) *big.Int {
	if v == nil {
		return nil
	}
	return v.(*big.Int)
}

func txOrNil(v interface{}) *types.Transaction {
	if v == nil {
		return nil
	}
	return v.(*types.Transaction)
}

func (m *MockContracts) StakingAddress() common.Address {
	args := m.Called()
	return args.Get(0).(common.Address)
}

func (m *MockContracts) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	args := m.Called(ctx, account)
	return bigOrNil(args.Get(0)), args.Error(1)
}

func (m *MockContracts) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	args := m.Called(ctx, owner, spender)
	return bigOrNil(args.Get(0)), args.Error(1)
}

func (m *MockContracts) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	args := m.Called(ctx, spender, amount)
	return txOrNil(args.Get(0)), args.Error(1)
}

func (m *MockContracts) StakedBalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	args := m.Called(ctx, account)
	return bigOrNil(args.Get(0)), args.Error(1)
}

func (m *MockContracts) Earned(ctx context.Context, account common.Address) (*big.Int, error) {
	args := m.Called(ctx, account)
	return bigOrNil(args.Get(0)), args.Error(1)
}

func (m *MockContracts) Stake(ctx context.Context, amount *big.Int) (*types.Transaction, error) {
	args := m.Called(ctx, amount)
	return txOrNil(args.Get(0)), args.Error(1)
}

func (m *MockContracts) Withdraw(ctx context.Context, amount *big.Int) (*types.Transaction, error) {
	args := m.Called(ctx, amount)
	return txOrNil(args.Get(0)), args.Error(1)
}

func (m *MockContracts) ClaimReward(ctx context.Context) (*types.Transaction, error) {
	args := m.Called(ctx)
	return txOrNil(args.Get(0)), args.Error(1)
}

// MockChainReader mocks native balance reads.
type MockChainReader struct {
	mock.Mock
}

func (m *MockChainReader) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	args := m.Called(ctx, account, blockNumber)
	return bigOrNil(args.Get(0)), args.Error(1)
}
