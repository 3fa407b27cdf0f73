package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/pkg/keystore"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

// Dialer opens a JSON-RPC connection to a chain endpoint.
type Dialer func(ctx context.Context, url string) (*rpc.Client, error)

// LocalWallet is a Provider backed by a private key from the keystore. It
// answers the account and network requests itself, asks the Prompter before
// connecting, switching, adding networks or signing, and forwards every other
// request to the active chain's RPC endpoint.
type LocalWallet struct {
	mu         sync.RWMutex
	key        *ecdsa.PrivateKey
	address    common.Address
	store      *keystore.Store
	prompter   Prompter
	dial       Dialer
	networks   map[int64]config.Network
	active     config.Network
	rpcClient  *rpc.Client
	client     *ethclient.Client
	authorized bool
	feed       event.Feed
	log        zerolog.Logger
}

var _ Provider = (*LocalWallet)(nil)

type LocalOption func(*LocalWallet)

// WithStore persists added networks and the active chain.
func WithStore(store *keystore.Store) LocalOption {
	return func(w *LocalWallet) {
		w.store = store
	}
}

// WithDialer replaces rpc.DialContext.
func WithDialer(dial Dialer) LocalOption {
	return func(w *LocalWallet) {
		w.dial = dial
	}
}

// NewLocalWallet creates a wallet that starts on defaultNetwork unless the
// store remembers another known chain.
func NewLocalWallet(key *ecdsa.PrivateKey, defaultNetwork config.Network, prompter Prompter, opts ...LocalOption) (*LocalWallet, error) {
	if key == nil {
		return nil, ErrNoProvider
	}
	if prompter == nil {
		prompter = NewTerminalPrompter()
	}

	w := &LocalWallet{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		prompter: prompter,
		dial:     rpc.DialContext,
		networks: map[int64]config.Network{defaultNetwork.ChainID: defaultNetwork},
		active:   defaultNetwork,
		log:      logger.WithComponent("local_wallet"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.store != nil {
		state, err := w.store.LoadWalletState()
		if err != nil {
			return nil, fmt.Errorf("failed to load wallet state: %w", err)
		}
		for _, n := range state.Networks {
			w.networks[n.ChainID] = n
		}
		if n, ok := w.networks[state.ActiveChainID]; ok {
			w.active = n
		}
	}

	return w, nil
}

// Address returns the wallet account.
func (w *LocalWallet) Address() common.Address {
	return w.address
}

// ActiveNetwork returns the chain the wallet is on.
func (w *LocalWallet) ActiveNetwork() config.Network {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active
}

func (w *LocalWallet) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	switch method {
	case "eth_requestAccounts":
		return w.requestAccounts(ctx, result)
	case "eth_accounts":
		return assign(result, w.accounts())
	case "eth_chainId":
		return assign(result, (*hexutil.Big)(w.ActiveNetwork().ChainIDBig()))
	case "wallet_switchEthereumChain":
		var params SwitchChainParams
		if err := decodeParam(args, &params); err != nil {
			return err
		}
		return w.switchChain(ctx, params)
	case "wallet_addEthereumChain":
		var params AddChainParams
		if err := decodeParam(args, &params); err != nil {
			return err
		}
		return w.addChain(ctx, params)
	default:
		client, err := w.rpc(ctx)
		if err != nil {
			return &ProviderError{Code: CodeDisconnected, Message: err.Error()}
		}
		return client.CallContext(ctx, result, method, args...)
	}
}

func (w *LocalWallet) SubscribeEvents(ch chan<- Event) event.Subscription {
	return w.feed.Subscribe(ch)
}

func (w *LocalWallet) Backend() (Backend, error) {
	if _, err := w.rpc(context.Background()); err != nil {
		return nil, err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.client, nil
}

// TransactOpts returns a keyed transactor for the active chain whose signer
// asks the Prompter before every signature.
func (w *LocalWallet) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	w.mu.RLock()
	authorized := w.authorized
	chainID := w.active.ChainIDBig()
	w.mu.RUnlock()

	if !authorized {
		return nil, &ProviderError{Code: CodeUnauthorized, Message: "account not connected"}
	}

	opts, err := bind.NewKeyedTransactorWithChainID(w.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	sign := opts.Signer
	opts.Signer = func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		ok, err := w.prompter.Confirm(ctx, describeTx(tx))
		if err != nil {
			return nil, &ProviderError{Code: CodeInternal, Message: err.Error()}
		}
		if !ok {
			w.log.Info().Str("to", txTo(tx)).Msg("Signature declined")
			return nil, userRejected("User denied transaction signature.")
		}
		return sign(from, tx)
	}
	opts.Context = ctx

	return opts, nil
}

// Disconnect revokes account access and notifies subscribers with an empty
// account list.
func (w *LocalWallet) Disconnect() {
	w.mu.Lock()
	w.authorized = false
	w.mu.Unlock()

	w.feed.Send(Event{Kind: AccountsChanged})
}

// Close drops the RPC connection.
func (w *LocalWallet) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.rpcClient != nil {
		w.rpcClient.Close()
		w.rpcClient = nil
		w.client = nil
	}
}

func (w *LocalWallet) accounts() []common.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.authorized {
		return []common.Address{}
	}
	return []common.Address{w.address}
}

func (w *LocalWallet) requestAccounts(ctx context.Context, result interface{}) error {
	w.mu.RLock()
	authorized := w.authorized
	w.mu.RUnlock()

	if !authorized {
		ok, err := w.prompter.Confirm(ctx, fmt.Sprintf("Connect account %s to the staking dashboard", w.address.Hex()))
		if err != nil {
			return &ProviderError{Code: CodeInternal, Message: err.Error()}
		}
		if !ok {
			return userRejected("User rejected the request.")
		}

		w.mu.Lock()
		w.authorized = true
		w.mu.Unlock()
	}

	return assign(result, []common.Address{w.address})
}

func (w *LocalWallet) switchChain(ctx context.Context, params SwitchChainParams) error {
	id, err := hexutil.DecodeBig(params.ChainID)
	if err != nil {
		return &ProviderError{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid chainId %q", params.ChainID)}
	}

	w.mu.RLock()
	n, known := w.networks[id.Int64()]
	current := w.active.ChainID
	w.mu.RUnlock()

	if !known {
		return &ProviderError{Code: CodeUnrecognizedChain, Message: fmt.Sprintf("Unrecognized chain ID %q", params.ChainID)}
	}
	if n.ChainID == current {
		return nil
	}

	ok, err := w.prompter.Confirm(ctx, fmt.Sprintf("Switch network to %s (%d)", n.Name, n.ChainID))
	if err != nil {
		return &ProviderError{Code: CodeInternal, Message: err.Error()}
	}
	if !ok {
		return userRejected("User rejected the request.")
	}

	client, err := w.dial(ctx, n.RPCURL)
	if err != nil {
		return &ProviderError{Code: CodeInternal, Message: fmt.Sprintf("could not reach %s: %v", n.RPCURL, err)}
	}

	w.install(n, client)
	return nil
}

func (w *LocalWallet) addChain(ctx context.Context, params AddChainParams) error {
	n, err := params.Network()
	if err != nil || n.RPCURL == "" {
		return &ProviderError{Code: CodeInvalidParams, Message: "invalid wallet_addEthereumChain parameters"}
	}

	ok, err := w.prompter.Confirm(ctx, fmt.Sprintf("Add network %s (%d) using %s", n.Name, n.ChainID, n.RPCURL))
	if err != nil {
		return &ProviderError{Code: CodeInternal, Message: err.Error()}
	}
	if !ok {
		return userRejected("User rejected the request.")
	}

	client, err := w.dial(ctx, n.RPCURL)
	if err != nil {
		return &ProviderError{Code: CodeInternal, Message: fmt.Sprintf("could not reach %s: %v", n.RPCURL, err)}
	}

	var got hexutil.Big
	if err := client.CallContext(ctx, &got, "eth_chainId"); err != nil {
		client.Close()
		return &ProviderError{Code: CodeInternal, Message: fmt.Sprintf("could not read chain id from %s: %v", n.RPCURL, err)}
	}
	if got.ToInt().Int64() != n.ChainID {
		client.Close()
		return &ProviderError{
			Code:    CodeInternal,
			Message: fmt.Sprintf("rpc %s reports chain %d, expected %d", n.RPCURL, got.ToInt().Int64(), n.ChainID),
		}
	}

	w.mu.Lock()
	w.networks[n.ChainID] = n
	w.mu.Unlock()

	w.log.Info().Int64("chain_id", n.ChainID).Str("rpc_url", n.RPCURL).Msg("Network added")

	w.install(n, client)
	return nil
}

// install makes n the active network using an already dialed client, then
// persists the state and emits ChainChanged.
func (w *LocalWallet) install(n config.Network, client *rpc.Client) {
	w.mu.Lock()
	old := w.rpcClient
	w.active = n
	w.rpcClient = client
	w.client = ethclient.NewClient(client)
	w.mu.Unlock()

	if old != nil {
		old.Close()
	}

	w.persist()
	w.log.Info().Int64("chain_id", n.ChainID).Str("name", n.Name).Msg("Network switched")
	w.feed.Send(Event{Kind: ChainChanged, ChainID: n.ChainID})
}

func (w *LocalWallet) rpc(ctx context.Context) (*rpc.Client, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.rpcClient != nil {
		return w.rpcClient, nil
	}

	client, err := w.dial(ctx, w.active.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", w.active.RPCURL, err)
	}
	w.rpcClient = client
	w.client = ethclient.NewClient(client)
	return client, nil
}

func (w *LocalWallet) persist() {
	if w.store == nil {
		return
	}

	w.mu.RLock()
	state := keystore.WalletState{ActiveChainID: w.active.ChainID}
	for _, n := range w.networks {
		state.Networks = append(state.Networks, n)
	}
	w.mu.RUnlock()

	if err := w.store.SaveWalletState(state); err != nil {
		w.log.Warn().Err(err).Msg("Failed to persist wallet state")
	}
}

// assign stores value into result the way a JSON-RPC client would.
func assign(result interface{}, value interface{}) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}

func decodeParam(args []interface{}, target interface{}) error {
	if len(args) == 0 {
		return &ProviderError{Code: CodeInvalidParams, Message: "missing parameters"}
	}
	data, err := json.Marshal(args[0])
	if err != nil {
		return &ProviderError{Code: CodeInvalidParams, Message: err.Error()}
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &ProviderError{Code: CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func txTo(tx *types.Transaction) string {
	if tx.To() == nil {
		return "contract creation"
	}
	return tx.To().Hex()
}

func describeTx(tx *types.Transaction) string {
	selector := "none"
	if len(tx.Data()) >= 4 {
		selector = hexutil.Encode(tx.Data()[:4])
	}
	return fmt.Sprintf("Sign transaction to %s (selector %s, nonce %d, gas %d)", txTo(tx), selector, tx.Nonce(), tx.Gas())
}
