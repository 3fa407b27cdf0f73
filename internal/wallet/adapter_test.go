package wallet_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/mocks"
	"github.com/theblitlabs/vecstake/internal/wallet"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

func init() {
	logger.InitWithMode(logger.LogModeTest)
}

var testAccount = common.HexToAddress("0x1234567890123456789012345678901234567890")

func TestAdapterConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("no provider", func(t *testing.T) {
		_, err := wallet.NewAdapter(nil).Connect(ctx)
		assert.ErrorIs(t, err, wallet.ErrNoProvider)
	})

	t.Run("user rejects", func(t *testing.T) {
		provider := &mocks.MockProvider{
			CallContextFn: func(ctx context.Context, result interface{}, method string, args ...interface{}) error {
				return &wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "User rejected the request."}
			},
		}

		_, err := wallet.NewAdapter(provider).Connect(ctx)
		var rejected *wallet.UserRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, "connect", rejected.Op)
		assert.True(t, wallet.IsUserRejected(err))
	})

	t.Run("returns first account", func(t *testing.T) {
		other := common.HexToAddress("0x00000000000000000000000000000000000000aa")
		provider := &mocks.MockProvider{
			CallContextFn: func(ctx context.Context, result interface{}, method string, args ...interface{}) error {
				return mocks.Respond(result, []common.Address{testAccount, other})
			},
		}

		addr, err := wallet.NewAdapter(provider).Connect(ctx)
		require.NoError(t, err)
		assert.Equal(t, testAccount, addr)
		assert.Equal(t, []string{"eth_requestAccounts"}, provider.Calls())
	})

	t.Run("no accounts", func(t *testing.T) {
		provider := &mocks.MockProvider{
			CallContextFn: func(ctx context.Context, result interface{}, method string, args ...interface{}) error {
				return mocks.Respond(result, []common.Address{})
			},
		}

		_, err := wallet.NewAdapter(provider).Connect(ctx)
		assert.ErrorIs(t, err, wallet.ErrNoAccounts)
	})

	t.Run("other failure is not a rejection", func(t *testing.T) {
		provider := &mocks.MockProvider{
			CallContextFn: func(ctx context.Context, result interface{}, method string, args ...interface{}) error {
				return errors.New("boom")
			},
		}

		_, err := wallet.NewAdapter(provider).Connect(ctx)
		require.Error(t, err)
		assert.False(t, wallet.IsUserRejected(err))
	})
}

// chainProvider simulates a wallet that knows a set of chains and can be told
// to fail switch or add requests.
type chainProvider struct {
	current   int64
	known     map[int64]bool
	switchErr error
	addErr    error
	added     []wallet.AddChainParams
}

func (c *chainProvider) provider() *mocks.MockProvider {
	return &mocks.MockProvider{
		CallContextFn: func(ctx context.Context, result interface{}, method string, args ...interface{}) error {
			switch method {
			case "eth_chainId":
				return mocks.Respond(result, hexutil.EncodeUint64(uint64(c.current)))
			case "wallet_switchEthereumChain":
				if c.switchErr != nil {
					return c.switchErr
				}
				params := args[0].(wallet.SwitchChainParams)
				id, err := hexutil.DecodeBig(params.ChainID)
				if err != nil {
					return err
				}
				if !c.known[id.Int64()] {
					return &wallet.ProviderError{Code: wallet.CodeUnrecognizedChain, Message: "Unrecognized chain ID"}
				}
				c.current = id.Int64()
				return nil
			case "wallet_addEthereumChain":
				params := args[0].(wallet.AddChainParams)
				c.added = append(c.added, params)
				if c.addErr != nil {
					return c.addErr
				}
				n, err := params.Network()
				if err != nil {
					return err
				}
				c.known[n.ChainID] = true
				c.current = n.ChainID
				return nil
			}
			return errors.New("unexpected method " + method)
		},
	}
}

func TestAdapterEnsureNetwork(t *testing.T) {
	ctx := context.Background()
	target := config.TargetNetwork()

	t.Run("already on target", func(t *testing.T) {
		c := &chainProvider{current: target.ChainID, known: map[int64]bool{target.ChainID: true}}
		p := c.provider()

		require.NoError(t, wallet.NewAdapter(p).EnsureNetwork(ctx, target))
		assert.Equal(t, []string{"eth_chainId"}, p.Calls())
	})

	t.Run("switches to known chain", func(t *testing.T) {
		c := &chainProvider{current: 1, known: map[int64]bool{1: true, target.ChainID: true}}
		p := c.provider()

		require.NoError(t, wallet.NewAdapter(p).EnsureNetwork(ctx, target))
		assert.Equal(t, target.ChainID, c.current)
		assert.Empty(t, c.added)
		assert.Equal(t, []string{"eth_chainId", "wallet_switchEthereumChain", "eth_chainId"}, p.Calls())
	})

	t.Run("adds unknown chain with configured rpc", func(t *testing.T) {
		c := &chainProvider{current: 1, known: map[int64]bool{1: true}}
		p := c.provider()

		require.NoError(t, wallet.NewAdapter(p).EnsureNetwork(ctx, target))
		require.Len(t, c.added, 1)
		assert.Equal(t, "0xaa36a7", c.added[0].ChainID)
		assert.Equal(t, []string{config.RPCURL}, c.added[0].RPCURLs)
		assert.Equal(t, config.ChainName, c.added[0].ChainName)
		assert.Equal(t, config.CurrencySymbol, c.added[0].NativeCurrency.Symbol)
		assert.Equal(t, 18, c.added[0].NativeCurrency.Decimals)
		assert.Equal(t, []string{config.ExplorerURL}, c.added[0].BlockExplorerURLs)
		assert.Equal(t, target.ChainID, c.current)
	})

	t.Run("add fails", func(t *testing.T) {
		c := &chainProvider{
			current: 1,
			known:   map[int64]bool{1: true},
			addErr:  &wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "User rejected the request."},
		}

		err := wallet.NewAdapter(c.provider()).EnsureNetwork(ctx, target)
		var unavailable *wallet.NetworkUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, target.ChainID, unavailable.ChainID)
	})

	t.Run("switch rejected", func(t *testing.T) {
		c := &chainProvider{
			current:   1,
			known:     map[int64]bool{1: true, target.ChainID: true},
			switchErr: &wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "User rejected the request."},
		}

		err := wallet.NewAdapter(c.provider()).EnsureNetwork(ctx, target)
		var rejected *wallet.NetworkSwitchRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.True(t, wallet.IsUserRejected(err))
		assert.Empty(t, c.added)
	})

	t.Run("switch fails without code", func(t *testing.T) {
		c := &chainProvider{current: 1, known: map[int64]bool{1: true}, switchErr: errors.New("timeout")}

		err := wallet.NewAdapter(c.provider()).EnsureNetwork(ctx, target)
		var rejected *wallet.NetworkSwitchRejectedError
		assert.ErrorAs(t, err, &rejected)
		assert.Empty(t, c.added)
	})

	t.Run("wallet stays on wrong chain", func(t *testing.T) {
		p := &mocks.MockProvider{
			CallContextFn: func(ctx context.Context, result interface{}, method string, args ...interface{}) error {
				if method == "eth_chainId" {
					return mocks.Respond(result, "0x1")
				}
				return nil
			},
		}

		err := wallet.NewAdapter(p).EnsureNetwork(ctx, target)
		var mismatch *wallet.NetworkMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, int64(1), mismatch.Actual)
		assert.Equal(t, target.ChainID, mismatch.Expected)
	})
}

func TestErrorCode(t *testing.T) {
	code, ok := wallet.ErrorCode(&wallet.ProviderError{Code: wallet.CodeUnrecognizedChain})
	assert.True(t, ok)
	assert.Equal(t, wallet.CodeUnrecognizedChain, code)

	_, ok = wallet.ErrorCode(errors.New("plain"))
	assert.False(t, ok)
}
