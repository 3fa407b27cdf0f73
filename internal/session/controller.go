package session

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/rs/zerolog"

	"github.com/theblitlabs/vecstake/internal/balance"
	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/contracts"
	"github.com/theblitlabs/vecstake/internal/orchestrator"
	"github.com/theblitlabs/vecstake/internal/utils"
	"github.com/theblitlabs/vecstake/internal/wallet"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

// Session is the connected account. The zero value is disconnected.
type Session struct {
	Connected bool           `json:"connected"`
	Address   common.Address `json:"address"`
	ChainID   int64          `json:"chain_id"`
}

// Contracts is everything a session needs from the contract client.
type Contracts interface {
	orchestrator.Contracts
	balance.Contracts
}

// Bindings are the chain handles of one connected session.
type Bindings struct {
	Contracts Contracts
	Chain     balance.ChainReader
	Wait      orchestrator.WaitFunc
}

// BindingsFactory builds the chain handles once the wallet is connected and on
// the right network.
type BindingsFactory func(ctx context.Context, adapter *wallet.Adapter, deployment config.Deployment) (*Bindings, error)

// ChainBindings binds the deployment's contracts to the wallet's backend and
// signer.
func ChainBindings(ctx context.Context, adapter *wallet.Adapter, deployment config.Deployment) (*Bindings, error) {
	backend, err := adapter.Backend()
	if err != nil {
		return nil, err
	}

	client, err := contracts.NewClient(deployment, backend, adapter.Signer)
	if err != nil {
		return nil, err
	}

	return &Bindings{
		Contracts: client,
		Chain:     backend,
		Wait:      orchestrator.MinedWaiter(backend),
	}, nil
}

type UpdateKind string

const (
	UpdateSession  UpdateKind = "session"
	UpdateBalances UpdateKind = "balances"
	UpdateAction   UpdateKind = "action"
)

// Update is published to subscribers whenever the session, the balances or an
// action changes.
type Update struct {
	Kind       UpdateKind
	Session    Session
	Balances   balance.Snapshot
	Transition orchestrator.Transition
}

// Controller owns the session and every handle derived from it. Provider
// events invalidate the handles and connect again from scratch.
type Controller struct {
	adapter    *wallet.Adapter
	deployment config.Deployment
	bindings   BindingsFactory
	log        zerolog.Logger

	connectMu sync.Mutex

	mu      sync.RWMutex
	session Session
	fetcher *balance.Fetcher
	orch    *orchestrator.Orchestrator
	orchSub event.Subscription

	feed event.Feed

	ctx    context.Context
	cancel context.CancelFunc
	sub    event.Subscription
	wg     sync.WaitGroup
}

// NewController starts watching the adapter's provider events. Close stops it.
func NewController(adapter *wallet.Adapter, deployment config.Deployment, bindings BindingsFactory) *Controller {
	if bindings == nil {
		bindings = ChainBindings
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		adapter:    adapter,
		deployment: deployment,
		bindings:   bindings,
		log:        logger.WithComponent("session"),
		ctx:        ctx,
		cancel:     cancel,
	}

	events := make(chan wallet.Event, 16)
	c.sub = adapter.Subscribe(events)

	c.wg.Add(1)
	go c.watch(events)

	return c
}

// Close stops the event watcher and drops the session.
func (c *Controller) Close() {
	c.cancel()
	c.sub.Unsubscribe()
	c.wg.Wait()

	c.mu.Lock()
	c.teardownLocked()
	c.mu.Unlock()
}

// Subscribe delivers updates to ch. Receivers must drain ch promptly.
func (c *Controller) Subscribe(ch chan<- Update) event.Subscription {
	return c.feed.Subscribe(ch)
}

func (c *Controller) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Controller) Deployment() config.Deployment {
	return c.deployment
}

// Connect requests account access, moves the wallet to the target network,
// builds the contract handles and reads the initial balances. The network
// check always happens before any contract is touched.
func (c *Controller) Connect(ctx context.Context) (Session, error) {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	address, err := c.adapter.Connect(ctx)
	if err != nil {
		return Session{}, err
	}

	if err := c.adapter.EnsureNetwork(ctx, c.deployment.Network); err != nil {
		c.log.Warn().Err(err).Int64("chain_id", c.deployment.Network.ChainID).Msg("Wallet not on target network")
		return Session{}, err
	}

	b, err := c.bindings(ctx, c.adapter, c.deployment)
	if err != nil {
		return Session{}, err
	}

	fetcher := balance.NewFetcher(b.Chain, b.Contracts)
	orch := orchestrator.New(b.Contracts, address, c.deployment.TokenDecimals, b.Wait, func(ctx context.Context) error {
		_, err := c.refresh(ctx, fetcher, address)
		return err
	})

	transitions := make(chan orchestrator.Transition, 32)
	orchSub := orch.SubscribeTransitions(transitions)
	c.wg.Add(1)
	go c.forward(transitions, orchSub)

	sess := Session{Connected: true, Address: address, ChainID: c.deployment.Network.ChainID}

	c.mu.Lock()
	c.teardownLocked()
	c.session = sess
	c.fetcher = fetcher
	c.orch = orch
	c.orchSub = orchSub
	c.mu.Unlock()

	c.log.Info().Str("address", address.Hex()).Int64("chain_id", sess.ChainID).Msg("Session connected")
	c.feed.Send(Update{Kind: UpdateSession, Session: sess})

	if _, err := c.refresh(ctx, fetcher, address); err != nil {
		c.log.Warn().Err(err).Msg("Initial balance read failed")
	}

	return sess, nil
}

// Disconnect clears the session and every handle.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	wasConnected := c.session.Connected
	c.teardownLocked()
	c.mu.Unlock()

	if wasConnected {
		c.log.Info().Msg("Session disconnected")
	}
	c.feed.Send(Update{Kind: UpdateSession, Session: Session{}})
	c.feed.Send(Update{Kind: UpdateBalances, Balances: balance.EmptySnapshot()})
}

func (c *Controller) teardownLocked() {
	if c.orchSub != nil {
		c.orchSub.Unsubscribe()
		c.orchSub = nil
	}
	if c.fetcher != nil {
		c.fetcher.Reset()
	}
	c.session = Session{}
	c.fetcher = nil
	c.orch = nil
}

// Refresh re-reads the balances of the connected account.
func (c *Controller) Refresh(ctx context.Context) (balance.Snapshot, error) {
	c.mu.RLock()
	sess, fetcher := c.session, c.fetcher
	c.mu.RUnlock()

	if !sess.Connected || fetcher == nil {
		return balance.EmptySnapshot(), wallet.ErrNotConnected
	}
	return c.refresh(ctx, fetcher, sess.Address)
}

func (c *Controller) refresh(ctx context.Context, fetcher *balance.Fetcher, address common.Address) (balance.Snapshot, error) {
	snap, err := fetcher.Refresh(ctx, address)

	c.mu.RLock()
	current := c.fetcher == fetcher
	c.mu.RUnlock()

	if current {
		c.feed.Send(Update{Kind: UpdateBalances, Balances: snap})
	}
	return snap, err
}

// Balances returns the last snapshot without reading the chain.
func (c *Controller) Balances() balance.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.fetcher == nil {
		return balance.EmptySnapshot()
	}
	return c.fetcher.Snapshot()
}

func (c *Controller) active() (*orchestrator.Orchestrator, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.session.Connected || c.orch == nil {
		return nil, wallet.ErrNotConnected
	}
	return c.orch, nil
}

func (c *Controller) Stake(ctx context.Context, amount string) error {
	orch, err := c.active()
	if err != nil {
		return err
	}
	return orch.Stake(ctx, amount)
}

func (c *Controller) Unstake(ctx context.Context, amount string) error {
	orch, err := c.active()
	if err != nil {
		return err
	}
	return orch.Unstake(ctx, amount)
}

func (c *Controller) Claim(ctx context.Context) error {
	orch, err := c.active()
	if err != nil {
		return err
	}
	return orch.Claim(ctx)
}

// Actions returns the state of every action. All actions are idle while
// disconnected.
func (c *Controller) Actions() []orchestrator.Status {
	orch, err := c.active()
	if err != nil {
		out := make([]orchestrator.Status, 0, len(orchestrator.Actions))
		for _, a := range orchestrator.Actions {
			out = append(out, orchestrator.Status{Action: a, State: orchestrator.StateIdle})
		}
		return out
	}
	return orch.Statuses()
}

// MaxStake returns the full token balance as a decimal string.
func (c *Controller) MaxStake() (string, error) {
	if _, err := c.active(); err != nil {
		return "", err
	}
	return utils.FormatUnits(c.Balances().Token.Value, c.deployment.TokenDecimals), nil
}

// MaxUnstake returns the full staked balance as a decimal string.
func (c *Controller) MaxUnstake() (string, error) {
	if _, err := c.active(); err != nil {
		return "", err
	}
	return utils.FormatUnits(c.Balances().Staked.Value, c.deployment.TokenDecimals), nil
}

func (c *Controller) forward(transitions <-chan orchestrator.Transition, sub event.Subscription) {
	defer c.wg.Done()
	for {
		select {
		case tr := <-transitions:
			c.feed.Send(Update{Kind: UpdateAction, Transition: tr})
		case <-sub.Err():
			return
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Controller) watch(events <-chan wallet.Event) {
	defer c.wg.Done()
	for {
		select {
		case ev := <-events:
			c.handleEvent(ev)
		case err := <-c.sub.Err():
			if err != nil {
				c.log.Error().Err(err).Msg("Provider event subscription failed")
			}
			return
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Controller) handleEvent(ev wallet.Event) {
	sess := c.Session()
	log := c.log.With().Str("event", ev.Kind.String()).Logger()

	switch ev.Kind {
	case wallet.AccountsChanged:
		if len(ev.Accounts) == 0 {
			if sess.Connected {
				log.Info().Msg("Wallet revoked accounts")
				c.Disconnect()
			}
			return
		}
		if !sess.Connected || ev.Accounts[0] == sess.Address {
			return
		}
		log.Info().Str("address", ev.Accounts[0].Hex()).Msg("Account changed")
	case wallet.ChainChanged:
		if !sess.Connected || ev.ChainID == sess.ChainID {
			return
		}
		log.Info().Int64("chain_id", ev.ChainID).Msg("Chain changed")
	default:
		return
	}

	c.Disconnect()
	if _, err := c.Connect(c.ctx); err != nil {
		log.Error().Err(err).Msg("Reconnect after wallet change failed")
	}
}
