package session

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/vecstake/internal/balance"
	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/mocks"
	"github.com/theblitlabs/vecstake/internal/orchestrator"
	"github.com/theblitlabs/vecstake/internal/wallet"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

func init() {
	logger.InitWithMode(logger.LogModeTest)
}

var (
	alice = common.HexToAddress("0x1234567890123456789012345678901234567890")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// fakeWallet is a scriptable provider that starts on mainnet and knows the
// target chain.
type fakeWallet struct {
	mu       sync.Mutex
	accounts []common.Address
	chainID  int64
	reject   bool
	log      []string
}

func (w *fakeWallet) record(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = append(w.log, s)
}

func (w *fakeWallet) events() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.log...)
}

func (w *fakeWallet) setAccounts(accounts ...common.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accounts = accounts
}

func (w *fakeWallet) setChain(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chainID = id
}

func (w *fakeWallet) provider() *mocks.MockProvider {
	return &mocks.MockProvider{
		CallContextFn: func(ctx context.Context, result interface{}, method string, args ...interface{}) error {
			w.record(method)
			w.mu.Lock()
			defer w.mu.Unlock()

			switch method {
			case "eth_requestAccounts":
				if w.reject {
					return &wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "User rejected the request."}
				}
				return mocks.Respond(result, w.accounts)
			case "eth_chainId":
				return mocks.Respond(result, hexutil.EncodeUint64(uint64(w.chainID)))
			case "wallet_switchEthereumChain":
				params := args[0].(wallet.SwitchChainParams)
				id, err := hexutil.DecodeBig(params.ChainID)
				if err != nil {
					return err
				}
				w.chainID = id.Int64()
				return nil
			}
			return errors.New("unexpected method " + method)
		},
	}
}

type fixture struct {
	wallet     *fakeWallet
	provider   *mocks.MockProvider
	contracts  *mocks.MockContracts
	chain      *mocks.MockChainReader
	controller *Controller
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		wallet:    &fakeWallet{accounts: []common.Address{alice}, chainID: 1},
		contracts: &mocks.MockContracts{},
		chain:     &mocks.MockChainReader{},
	}
	f.provider = f.wallet.provider()

	f.chain.On("BalanceAt", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { f.wallet.record("BalanceAt") }).
		Return(eth(2), nil)
	f.contracts.On("BalanceOf", mock.Anything, mock.Anything).Return(eth(100), nil)
	f.contracts.On("StakedBalanceOf", mock.Anything, mock.Anything).Return(eth(40), nil)
	f.contracts.On("Earned", mock.Anything, mock.Anything).Return(eth(1), nil)
	f.contracts.On("StakingAddress").Return(config.TargetDeployment().StakingAddress).Maybe()

	factory := func(ctx context.Context, adapter *wallet.Adapter, deployment config.Deployment) (*Bindings, error) {
		f.wallet.record("bindings")
		return &Bindings{
			Contracts: f.contracts,
			Chain:     f.chain,
			Wait: func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
				return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
			},
		}, nil
	}

	f.controller = NewController(wallet.NewAdapter(f.provider), config.TargetDeployment(), factory)
	t.Cleanup(f.controller.Close)
	return f
}

func TestConnect(t *testing.T) {
	f := newFixture(t)

	sess, err := f.controller.Connect(context.Background())
	require.NoError(t, err)

	assert.True(t, sess.Connected)
	assert.Equal(t, alice, sess.Address)
	assert.Equal(t, config.ChainID, sess.ChainID)
	assert.Equal(t, sess, f.controller.Session())

	assert.Equal(t, []string{
		"eth_requestAccounts",
		"eth_chainId",
		"wallet_switchEthereumChain",
		"eth_chainId",
		"bindings",
		"BalanceAt",
	}, f.wallet.events(), "network switch happens before any contract read")

	snap := f.controller.Balances()
	assert.Equal(t, balance.Fresh, snap.Native.Status)
	assert.Equal(t, eth(2), snap.Native.Value)
	assert.Equal(t, eth(100), snap.Token.Value)

	amount, err := f.controller.MaxStake()
	require.NoError(t, err)
	assert.Equal(t, "100.0", amount)

	amount, err = f.controller.MaxUnstake()
	require.NoError(t, err)
	assert.Equal(t, "40.0", amount)
}

func TestConnectRejected(t *testing.T) {
	f := newFixture(t)
	f.wallet.reject = true

	_, err := f.controller.Connect(context.Background())
	assert.True(t, wallet.IsUserRejected(err))
	assert.False(t, f.controller.Session().Connected)
	assert.NotContains(t, f.wallet.events(), "bindings")
}

func TestConnectNoProvider(t *testing.T) {
	c := NewController(wallet.NewAdapter(nil), config.TargetDeployment(), nil)
	defer c.Close()

	_, err := c.Connect(context.Background())
	assert.ErrorIs(t, err, wallet.ErrNoProvider)
}

func TestNotConnected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.controller.Refresh(ctx)
	assert.ErrorIs(t, err, wallet.ErrNotConnected)
	assert.ErrorIs(t, f.controller.Stake(ctx, "1"), wallet.ErrNotConnected)
	assert.ErrorIs(t, f.controller.Unstake(ctx, "1"), wallet.ErrNotConnected)
	assert.ErrorIs(t, f.controller.Claim(ctx), wallet.ErrNotConnected)
	_, err = f.controller.MaxStake()
	assert.ErrorIs(t, err, wallet.ErrNotConnected)

	for _, status := range f.controller.Actions() {
		assert.Equal(t, orchestrator.StateIdle, status.State)
	}
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t)
	_, err := f.controller.Connect(context.Background())
	require.NoError(t, err)

	updates := make(chan Update, 8)
	sub := f.controller.Subscribe(updates)
	defer sub.Unsubscribe()

	f.controller.Disconnect()

	assert.False(t, f.controller.Session().Connected)
	assert.Equal(t, balance.Unset, f.controller.Balances().Native.Status)

	u := <-updates
	assert.Equal(t, UpdateSession, u.Kind)
	assert.False(t, u.Session.Connected)
}

func TestProviderEvents(t *testing.T) {
	t.Run("empty accounts disconnects", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.controller.Connect(context.Background())
		require.NoError(t, err)

		f.provider.Feed.Send(wallet.Event{Kind: wallet.AccountsChanged})

		assert.Eventually(t, func() bool {
			return !f.controller.Session().Connected
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("account change reconnects", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.controller.Connect(context.Background())
		require.NoError(t, err)

		f.wallet.setAccounts(bob)
		f.provider.Feed.Send(wallet.Event{Kind: wallet.AccountsChanged, Accounts: []common.Address{bob}})

		assert.Eventually(t, func() bool {
			return f.controller.Session().Address == bob
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("chain change reconnects on target network", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.controller.Connect(context.Background())
		require.NoError(t, err)

		f.wallet.setChain(5)
		f.provider.Feed.Send(wallet.Event{Kind: wallet.ChainChanged, ChainID: 5})

		assert.Eventually(t, func() bool {
			switches := 0
			for _, e := range f.wallet.events() {
				if e == "wallet_switchEthereumChain" {
					switches++
				}
			}
			return switches == 2 && f.controller.Session().Connected
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, config.ChainID, f.controller.Session().ChainID)
	})

	t.Run("same chain is ignored", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.controller.Connect(context.Background())
		require.NoError(t, err)
		before := len(f.wallet.events())

		f.provider.Feed.Send(wallet.Event{Kind: wallet.ChainChanged, ChainID: config.ChainID})
		time.Sleep(20 * time.Millisecond)

		assert.Len(t, f.wallet.events(), before)
	})
}

func TestStakeThroughController(t *testing.T) {
	f := newFixture(t)
	_, err := f.controller.Connect(context.Background())
	require.NoError(t, err)

	staking := config.TargetDeployment().StakingAddress
	f.contracts.On("Allowance", mock.Anything, alice, staking).Return(eth(100), nil)
	f.contracts.On("Stake", mock.Anything, eth(5)).Return(types.NewTx(&types.LegacyTx{Nonce: 1}), nil)

	updates := make(chan Update, 32)
	sub := f.controller.Subscribe(updates)
	defer sub.Unsubscribe()

	require.NoError(t, f.controller.Stake(context.Background(), "5"))
	f.contracts.AssertCalled(t, "Stake", mock.Anything, eth(5))

	var sawAction, sawBalances bool
	timeout := time.After(time.Second)
	for !(sawAction && sawBalances) {
		select {
		case u := <-updates:
			switch u.Kind {
			case UpdateAction:
				sawAction = true
			case UpdateBalances:
				sawBalances = true
			}
		case <-timeout:
			t.Fatalf("missing updates: action=%v balances=%v", sawAction, sawBalances)
		}
	}
}
