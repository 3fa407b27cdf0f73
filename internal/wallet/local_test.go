package wallet

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
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/pkg/keystore"
)

const localTestKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// chainService answers the eth namespace calls the local wallet forwards.
type chainService struct {
	id int64
}

func (s *chainService) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(s.id))
}

func (s *chainService) BlockNumber() hexutil.Uint64 {
	return 42
}

// inProcDialer serves every known url from an in-process RPC server that
// reports the mapped chain id.
func inProcDialer(t *testing.T, chains map[string]int64) Dialer {
	return func(ctx context.Context, url string) (*rpc.Client, error) {
		id, ok := chains[url]
		if !ok {
			return nil, errors.New("connection refused")
		}
		srv := rpc.NewServer()
		require.NoError(t, srv.RegisterName("eth", &chainService{id: id}))
		t.Cleanup(srv.Stop)
		return rpc.DialInProc(srv), nil
	}
}

// scriptedPrompter answers prompts in order and approves once the script is
// exhausted.
type scriptedPrompter struct {
	mu      sync.Mutex
	answers []bool
	labels  []string
}

func (p *scriptedPrompter) Confirm(ctx context.Context, label string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.labels = append(p.labels, label)
	if len(p.answers) == 0 {
		return true, nil
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func newTestLocalWallet(t *testing.T, prompter Prompter, opts ...LocalOption) *LocalWallet {
	t.Helper()

	key, err := crypto.HexToECDSA(localTestKey)
	require.NoError(t, err)

	mainnet := config.MainnetNetwork("http://mainnet.local")
	dialer := inProcDialer(t, map[string]int64{
		"http://mainnet.local": 1,
		config.RPCURL:          config.ChainID,
		"http://liar.local":    5,
	})

	w, err := NewLocalWallet(key, mainnet, prompter, append([]LocalOption{WithDialer(dialer)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w
}

func TestLocalWalletAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("approve", func(t *testing.T) {
		w := newTestLocalWallet(t, AutoApprove)

		var before []common.Address
		require.NoError(t, w.CallContext(ctx, &before, "eth_accounts"))
		assert.Empty(t, before)

		var accounts []common.Address
		require.NoError(t, w.CallContext(ctx, &accounts, "eth_requestAccounts"))
		require.Len(t, accounts, 1)
		assert.Equal(t, w.Address(), accounts[0])

		var after []common.Address
		require.NoError(t, w.CallContext(ctx, &after, "eth_accounts"))
		assert.Equal(t, accounts, after)
	})

	t.Run("decline", func(t *testing.T) {
		w := newTestLocalWallet(t, StaticPrompter{Approve: false})

		var accounts []common.Address
		err := w.CallContext(ctx, &accounts, "eth_requestAccounts")
		code, ok := ErrorCode(err)
		require.True(t, ok)
		assert.Equal(t, CodeUserRejected, code)

		_, err = NewAdapter(w).Connect(ctx)
		assert.True(t, IsUserRejected(err))
	})
}

func TestLocalWalletNetworks(t *testing.T) {
	ctx := context.Background()
	target := config.TargetNetwork()

	t.Run("reports active chain", func(t *testing.T) {
		w := newTestLocalWallet(t, AutoApprove)

		id, err := NewAdapter(w).ChainID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	})

	t.Run("unknown chain", func(t *testing.T) {
		w := newTestLocalWallet(t, AutoApprove)

		err := w.CallContext(ctx, nil, "wallet_switchEthereumChain", SwitchChainParams{ChainID: "0xaa36a7"})
		code, ok := ErrorCode(err)
		require.True(t, ok)
		assert.Equal(t, CodeUnrecognizedChain, code)
	})

	t.Run("ensure network adds and switches", func(t *testing.T) {
		store, err := keystore.NewStore(t.TempDir())
		require.NoError(t, err)

		w := newTestLocalWallet(t, AutoApprove, WithStore(store))
		events := make(chan Event, 4)
		sub := w.SubscribeEvents(events)
		defer sub.Unsubscribe()

		require.NoError(t, NewAdapter(w).EnsureNetwork(ctx, target))
		assert.Equal(t, target.ChainID, w.ActiveNetwork().ChainID)

		select {
		case ev := <-events:
			assert.Equal(t, ChainChanged, ev.Kind)
			assert.Equal(t, target.ChainID, ev.ChainID)
		case <-time.After(time.Second):
			t.Fatal("no chainChanged event")
		}

		state, err := store.LoadWalletState()
		require.NoError(t, err)
		assert.Equal(t, target.ChainID, state.ActiveChainID)

		reopened := newTestLocalWallet(t, AutoApprove, WithStore(store))
		assert.Equal(t, target.ChainID, reopened.ActiveNetwork().ChainID)
	})

	t.Run("switch declined", func(t *testing.T) {
		w := newTestLocalWallet(t, AutoApprove)
		require.NoError(t, NewAdapter(w).EnsureNetwork(ctx, target))

		w.prompter = StaticPrompter{Approve: false}
		err := NewAdapter(w).EnsureNetwork(ctx, config.MainnetNetwork("http://mainnet.local"))
		var rejected *NetworkSwitchRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.True(t, IsUserRejected(err))
		assert.Equal(t, target.ChainID, w.ActiveNetwork().ChainID)
	})

	t.Run("add rejects rpc reporting another chain", func(t *testing.T) {
		w := newTestLocalWallet(t, AutoApprove)
		liar := target
		liar.RPCURL = "http://liar.local"

		err := NewAdapter(w).EnsureNetwork(ctx, liar)
		var unavailable *NetworkUnavailableError
		require.ErrorAs(t, err, &unavailable)
		code, ok := ErrorCode(err)
		require.True(t, ok)
		assert.Equal(t, CodeInternal, code)
		assert.Equal(t, int64(1), w.ActiveNetwork().ChainID)
	})

	t.Run("add with unreachable rpc", func(t *testing.T) {
		w := newTestLocalWallet(t, AutoApprove)
		down := target
		down.RPCURL = "http://down.local"

		err := NewAdapter(w).EnsureNetwork(ctx, down)
		var unavailable *NetworkUnavailableError
		assert.ErrorAs(t, err, &unavailable)
	})
}

func TestLocalWalletForwardsRequests(t *testing.T) {
	w := newTestLocalWallet(t, AutoApprove)

	var block hexutil.Uint64
	require.NoError(t, w.CallContext(context.Background(), &block, "eth_blockNumber"))
	assert.Equal(t, hexutil.Uint64(42), block)
}

func TestLocalWalletSigning(t *testing.T) {
	ctx := context.Background()
	prompter := &scriptedPrompter{}
	w := newTestLocalWallet(t, prompter)

	_, err := w.TransactOpts(ctx)
	code, ok := ErrorCode(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnauthorized, code)

	_, err = NewAdapter(w).Connect(ctx)
	require.NoError(t, err)

	opts, err := w.TransactOpts(ctx)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), opts.From)

	to := common.HexToAddress(config.StakingAddress)
	tx := types.NewTx(&types.LegacyTx{Nonce: 3, To: &to, Gas: 21000, GasPrice: big.NewInt(1), Data: []byte{0xa6, 0x94, 0xfc, 0x3a}})

	signed, err := opts.Signer(opts.From, tx)
	require.NoError(t, err)
	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1)), signed)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), sender)

	prompter.answers = []bool{false}
	_, err = opts.Signer(opts.From, tx)
	assert.True(t, IsUserRejected(err))
	assert.Contains(t, prompter.labels[len(prompter.labels)-1], "0xa694fc3a")
}

func TestLocalWalletDisconnect(t *testing.T) {
	ctx := context.Background()
	w := newTestLocalWallet(t, AutoApprove)
	_, err := NewAdapter(w).Connect(ctx)
	require.NoError(t, err)

	events := make(chan Event, 1)
	sub := NewAdapter(w).Subscribe(events)
	defer sub.Unsubscribe()

	w.Disconnect()

	ev := <-events
	assert.Equal(t, AccountsChanged, ev.Kind)
	assert.Empty(t, ev.Accounts)

	var accounts []common.Address
	require.NoError(t, w.CallContext(ctx, &accounts, "eth_accounts"))
	assert.Empty(t, accounts)
}
