package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"

	"github.com/theblitlabs/vecstake/internal/config"
)

// Provider is the wallet surface: an EIP-1193 style request method, an event
// feed, the chain backend of the active network and a signer.
type Provider interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	SubscribeEvents(ch chan<- Event) event.Subscription
	Backend() (Backend, error)
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

// Backend is what contract bindings, balance reads and receipt waits need.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type EventKind int

const (
	AccountsChanged EventKind = iota
	ChainChanged
)

func (k EventKind) String() string {
	switch k {
	case AccountsChanged:
		return "accountsChanged"
	case ChainChanged:
		return "chainChanged"
	default:
		return "unknown"
	}
}

// Event is emitted by a provider when the exposed accounts or the active
// chain change.
type Event struct {
	Kind     EventKind
	Accounts []common.Address
	ChainID  int64
}

// SwitchChainParams is the wallet_switchEthereumChain parameter (EIP-3326).
type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}

// NativeCurrency is part of AddChainParams.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// AddChainParams is the wallet_addEthereumChain parameter (EIP-3085).
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// NewAddChainParams builds the add-network request for n.
func NewAddChainParams(n config.Network) AddChainParams {
	params := AddChainParams{
		ChainID:   hexutil.EncodeBig(n.ChainIDBig()),
		ChainName: n.Name,
		NativeCurrency: NativeCurrency{
			Name:     n.CurrencyName,
			Symbol:   n.CurrencySymbol,
			Decimals: n.CurrencyDecimals,
		},
		RPCURLs: []string{n.RPCURL},
	}
	if n.ExplorerURL != "" {
		params.BlockExplorerURLs = []string{n.ExplorerURL}
	}
	return params
}

// Network converts the request back into a network description.
func (p AddChainParams) Network() (config.Network, error) {
	id, err := hexutil.DecodeBig(p.ChainID)
	if err != nil {
		return config.Network{}, err
	}
	n := config.Network{
		ChainID:          id.Int64(),
		Name:             p.ChainName,
		CurrencyName:     p.NativeCurrency.Name,
		CurrencySymbol:   p.NativeCurrency.Symbol,
		CurrencyDecimals: p.NativeCurrency.Decimals,
	}
	if len(p.RPCURLs) > 0 {
		n.RPCURL = p.RPCURLs[0]
	}
	if len(p.BlockExplorerURLs) > 0 {
		n.ExplorerURL = p.BlockExplorerURLs[0]
	}
	return n, nil
}
