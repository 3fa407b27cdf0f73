package stakewallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/theblitlabs/vecstake/internal/telemetry"
)

// MetricsStakeWallet wraps a StakeWallet and adds metrics
type MetricsStakeWallet struct {
	sw StakeWallet
}

var _ StakeWallet = (*MetricsStakeWallet)(nil)

// NewMetricsStakeWallet creates a new metrics-enabled stake wallet
func NewMetricsStakeWallet(sw StakeWallet) *MetricsStakeWallet {
	return &MetricsStakeWallet{sw: sw}
}

func record(operation string, err error) {
	if err != nil {
		telemetry.RecordStakeOperation(operation, "error")
		return
	}
	telemetry.RecordStakeOperation(operation, "success")
}

// BalanceOf implements StakeWallet interface with metrics
func (m *MetricsStakeWallet) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	balance, err := m.sw.BalanceOf(opts, account)
	record("get_balance", err)
	return balance, err
}

// Earned implements StakeWallet interface with metrics
func (m *MetricsStakeWallet) Earned(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	earned, err := m.sw.Earned(opts, account)
	record("get_earned", err)
	return earned, err
}

// Stake implements StakeWallet interface with metrics
func (m *MetricsStakeWallet) Stake(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	tx, err := m.sw.Stake(opts, amount)
	record("stake", err)
	return tx, err
}

// Withdraw implements StakeWallet interface with metrics
func (m *MetricsStakeWallet) Withdraw(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	tx, err := m.sw.Withdraw(opts, amount)
	record("withdraw", err)
	return tx, err
}

// GetReward implements StakeWallet interface with metrics
func (m *MetricsStakeWallet) GetReward(opts *bind.TransactOpts) (*types.Transaction, error) {
	tx, err := m.sw.GetReward(opts)
	record("get_reward", err)
	return tx, err
}

// Exit implements StakeWallet interface with metrics
func (m *MetricsStakeWallet) Exit(opts *bind.TransactOpts) (*types.Transaction, error) {
	tx, err := m.sw.Exit(opts)
	record("exit", err)
	return tx, err
}
