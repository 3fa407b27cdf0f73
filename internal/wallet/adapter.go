package wallet

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/rs/zerolog"

	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

// Adapter wraps a Provider with the account and network operations the
// dashboard needs. A nil provider is allowed and makes Connect fail with
// ErrNoProvider.
type Adapter struct {
	provider Provider
	log      zerolog.Logger
}

func NewAdapter(provider Provider) *Adapter {
	return &Adapter{
		provider: provider,
		log:      logger.WithComponent("wallet"),
	}
}

// Connect asks the wallet for account access and returns the first account.
func (a *Adapter) Connect(ctx context.Context) (common.Address, error) {
	if a.provider == nil {
		return common.Address{}, ErrNoProvider
	}

	var accounts []common.Address
	if err := a.provider.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		if IsUserRejected(err) {
			a.log.Info().Msg("Account access rejected by user")
			return common.Address{}, &UserRejectedError{Op: "connect", Err: err}
		}
		return common.Address{}, fmt.Errorf("failed to request accounts: %w", err)
	}

	if len(accounts) == 0 {
		return common.Address{}, ErrNoAccounts
	}

	a.log.Info().Str("address", accounts[0].Hex()).Msg("Wallet connected")
	return accounts[0], nil
}

// ChainID returns the wallet's active chain.
func (a *Adapter) ChainID(ctx context.Context) (int64, error) {
	if a.provider == nil {
		return 0, ErrNoProvider
	}

	var id hexutil.Big
	if err := a.provider.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return id.ToInt().Int64(), nil
}

// EnsureNetwork switches the wallet to expected if it is on another chain,
// adding the chain first when the wallet does not know it.
func (a *Adapter) EnsureNetwork(ctx context.Context, expected config.Network) error {
	current, err := a.ChainID(ctx)
	if err != nil {
		return err
	}
	if current == expected.ChainID {
		return nil
	}

	a.log.Info().
		Int64("current_chain", current).
		Int64("expected_chain", expected.ChainID).
		Msg("Wrong network, requesting switch")

	switchParams := SwitchChainParams{ChainID: hexutil.EncodeBig(expected.ChainIDBig())}
	err = a.provider.CallContext(ctx, nil, "wallet_switchEthereumChain", switchParams)
	if err == nil {
		return a.verifyChain(ctx, expected)
	}

	if code, ok := ErrorCode(err); !ok || code != CodeUnrecognizedChain {
		a.log.Warn().Err(err).Int64("chain_id", expected.ChainID).Msg("Network switch rejected")
		return &NetworkSwitchRejectedError{ChainID: expected.ChainID, Err: err}
	}

	a.log.Info().
		Int64("chain_id", expected.ChainID).
		Str("rpc_url", expected.RPCURL).
		Msg("Chain unknown to wallet, requesting add")

	if err := a.provider.CallContext(ctx, nil, "wallet_addEthereumChain", NewAddChainParams(expected)); err != nil {
		a.log.Error().Err(err).Int64("chain_id", expected.ChainID).Msg("Could not add network")
		return &NetworkUnavailableError{ChainID: expected.ChainID, Err: err}
	}

	return a.verifyChain(ctx, expected)
}

func (a *Adapter) verifyChain(ctx context.Context, expected config.Network) error {
	current, err := a.ChainID(ctx)
	if err != nil {
		return err
	}
	if current != expected.ChainID {
		return &NetworkMismatchError{Expected: expected.ChainID, Actual: current}
	}
	return nil
}

// Subscribe delivers provider events to ch.
func (a *Adapter) Subscribe(ch chan<- Event) event.Subscription {
	if a.provider == nil {
		return event.NewSubscription(func(quit <-chan struct{}) error {
			<-quit
			return nil
		})
	}
	return a.provider.SubscribeEvents(ch)
}

// Signer returns transaction options for the connected account.
func (a *Adapter) Signer(ctx context.Context) (*bind.TransactOpts, error) {
	if a.provider == nil {
		return nil, ErrNoProvider
	}
	return a.provider.TransactOpts(ctx)
}

// Backend returns the chain backend of the wallet's active network.
func (a *Adapter) Backend() (Backend, error) {
	if a.provider == nil {
		return nil, ErrNoProvider
	}
	return a.provider.Backend()
}
