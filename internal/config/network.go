package config

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Target network and contracts. These are compiled in and never read from the
// config file or the environment.
const (
	ChainID          int64 = 11155111
	ChainIDHex             = "0xaa36a7"
	ChainName              = "Sepolia Testnet"
	RPCURL                 = "https://rpc.sepolia.org"
	ExplorerURL            = "https://sepolia.etherscan.io"
	CurrencyName           = "SepoliaETH"
	CurrencySymbol         = "ETH"
	CurrencyDecimals       = 18

	TokenAddress   = "0x82829a882AB09864c5f2D1DA7F3F6650bFE2ebb8"
	StakingAddress = "0x82829a882AB09864c5f2D1DA7F3F6650bFE2ebb8"
	TokenSymbol    = "VEC"
	TokenDecimals  = 18
)

// Network describes an EVM chain the way a wallet needs to know it.
type Network struct {
	ChainID          int64  `json:"chain_id"`
	Name             string `json:"name"`
	RPCURL           string `json:"rpc_url"`
	ExplorerURL      string `json:"explorer_url,omitempty"`
	CurrencyName     string `json:"currency_name"`
	CurrencySymbol   string `json:"currency_symbol"`
	CurrencyDecimals int    `json:"currency_decimals"`
}

// ChainIDBig returns the chain id as a big.Int.
func (n Network) ChainIDBig() *big.Int {
	return big.NewInt(n.ChainID)
}

// Deployment is the pair of contracts the dashboard talks to.
type Deployment struct {
	Network        Network
	TokenAddress   common.Address
	StakingAddress common.Address
	TokenSymbol    string
	TokenDecimals  int
}

// TargetNetwork returns the compiled-in chain the dashboard requires.
func TargetNetwork() Network {
	return Network{
		ChainID:          ChainID,
		Name:             ChainName,
		RPCURL:           RPCURL,
		ExplorerURL:      ExplorerURL,
		CurrencyName:     CurrencyName,
		CurrencySymbol:   CurrencySymbol,
		CurrencyDecimals: CurrencyDecimals,
	}
}

// TargetDeployment returns the compiled-in network and contract addresses.
func TargetDeployment() Deployment {
	return Deployment{
		Network:        TargetNetwork(),
		TokenAddress:   common.HexToAddress(TokenAddress),
		StakingAddress: common.HexToAddress(StakingAddress),
		TokenSymbol:    TokenSymbol,
		TokenDecimals:  TokenDecimals,
	}
}

// MainnetNetwork is the chain a fresh local wallet starts on.
func MainnetNetwork(rpcURL string) Network {
	return Network{
		ChainID:          1,
		Name:             "Ethereum Mainnet",
		RPCURL:           rpcURL,
		ExplorerURL:      "https://etherscan.io",
		CurrencyName:     "Ether",
		CurrencySymbol:   "ETH",
		CurrencyDecimals: 18,
	}
}
