package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/pkg/stakewallet"
	"github.com/theblitlabs/vecstake/pkg/token"
)

// SignerFunc returns transaction options for the connected account.
type SignerFunc func(ctx context.Context) (*bind.TransactOpts, error)

// TokenInfo is the token metadata read from the chain.
type TokenInfo struct {
	Address  common.Address `json:"address"`
	Name     string         `json:"name"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

// Client talks to the token and staking contracts of one deployment on behalf
// of the connected account.
type Client struct {
	deployment config.Deployment
	token      token.Token
	staking    stakewallet.StakeWallet
	signer     SignerFunc
}

// NewClient binds both contracts of deployment to backend. Staking calls are
// counted in the stake_operations_total metric.
func NewClient(deployment config.Deployment, backend bind.ContractBackend, signer SignerFunc) (*Client, error) {
	tok, err := token.NewToken(deployment.TokenAddress, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to bind token contract: %w", err)
	}

	sw, err := stakewallet.NewStakeWallet(deployment.StakingAddress, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to bind staking contract: %w", err)
	}

	return NewClientWithBindings(deployment, tok, stakewallet.NewMetricsStakeWallet(sw), signer), nil
}

// NewClientWithBindings uses already constructed bindings.
func NewClientWithBindings(deployment config.Deployment, tok token.Token, staking stakewallet.StakeWallet, signer SignerFunc) *Client {
	return &Client{
		deployment: deployment,
		token:      tok,
		staking:    staking,
		signer:     signer,
	}
}

func (c *Client) TokenAddress() common.Address {
	return c.deployment.TokenAddress
}

func (c *Client) StakingAddress() common.Address {
	return c.deployment.StakingAddress
}

func (c *Client) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("no signer configured")
	}
	return c.signer(ctx)
}

// TokenInfo reads name, symbol and decimals of the token.
func (c *Client) TokenInfo(ctx context.Context) (TokenInfo, error) {
	opts := c.callOpts(ctx)
	info := TokenInfo{Address: c.deployment.TokenAddress}

	var err error
	if info.Name, err = c.token.Name(opts); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to read token name: %w", err)
	}
	if info.Symbol, err = c.token.Symbol(opts); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to read token symbol: %w", err)
	}
	if info.Decimals, err = c.token.Decimals(opts); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to read token decimals: %w", err)
	}
	return info, nil
}

func (c *Client) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.token.BalanceOf(c.callOpts(ctx), account)
}

func (c *Client) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return c.token.Allowance(c.callOpts(ctx), owner, spender)
}

func (c *Client) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	return c.token.Approve(opts, spender, amount)
}

// StakedBalanceOf returns the amount account has staked.
func (c *Client) StakedBalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.staking.BalanceOf(c.callOpts(ctx), account)
}

func (c *Client) Earned(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.staking.Earned(c.callOpts(ctx), account)
}

func (c *Client) Stake(ctx context.Context, amount *big.Int) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	return c.staking.Stake(opts, amount)
}

func (c *Client) Withdraw(ctx context.Context, amount *big.Int) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	return c.staking.Withdraw(opts, amount)
}

// ClaimReward calls getReward.
func (c *Client) ClaimReward(ctx context.Context) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	return c.staking.GetReward(opts)
}

// Exit withdraws the full stake and claims rewards. No dashboard flow uses it.
func (c *Client) Exit(ctx context.Context) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	return c.staking.Exit(opts)
}
