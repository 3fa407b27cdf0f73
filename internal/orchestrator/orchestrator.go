package orchestrator

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/theblitlabs/vecstake/internal/telemetry"
	"github.com/theblitlabs/vecstake/internal/wallet"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

type Action string

const (
	ActionStake   Action = "stake"
	ActionUnstake Action = "unstake"
	ActionClaim   Action = "claim"
)

// Actions lists every action in display order.
var Actions = []Action{ActionStake, ActionUnstake, ActionClaim}

type State string

const (
	StateIdle                 State = "idle"
	StateSubmitting           State = "submitting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateConfirmed            State = "confirmed"
	StateFailed               State = "failed"
)

type Step string

const (
	StepNone              Step = ""
	StepCheckingAllowance Step = "checking_allowance"
	StepApproving         Step = "approving"
	StepStaking           Step = "staking"
	StepUnstaking         Step = "unstaking"
	StepClaiming          Step = "claiming"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Transition is emitted on every state change of an action. ID is shared by
// all transitions of one run. Notice, when set, is a message for the user.
type Transition struct {
	ID     string
	Action Action
	State  State
	Step   Step
	TxHash common.Hash
	Notice string
	Level  Level
	Err    error
	At     time.Time
}

// Status is the current state of one action.
type Status struct {
	Action Action
	State  State
	Step   Step
}

// Busy reports whether the action is running.
func (s Status) Busy() bool {
	return s.State == StateSubmitting || s.State == StateAwaitingConfirmation
}

// Contracts is the part of the contract client the flows use.
type Contracts interface {
	StakingAddress() common.Address
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error)
	Stake(ctx context.Context, amount *big.Int) (*types.Transaction, error)
	Withdraw(ctx context.Context, amount *big.Int) (*types.Transaction, error)
	ClaimReward(ctx context.Context) (*types.Transaction, error)
}

// WaitFunc blocks until tx is mined and returns its receipt.
type WaitFunc func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)

// RefreshFunc re-reads balances after an action.
type RefreshFunc func(ctx context.Context) error

// MinedWaiter waits on backend with bind.WaitMined.
func MinedWaiter(backend bind.DeployBackend) WaitFunc {
	return func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
		return bind.WaitMined(ctx, backend, tx)
	}
}

// Orchestrator runs stake, unstake and claim for one account. Each action
// runs at most once at a time. Different actions may overlap.
type Orchestrator struct {
	contracts Contracts
	owner     common.Address
	decimals  int
	wait      WaitFunc
	refresh   RefreshFunc
	log       zerolog.Logger

	guards map[Action]*sync.Mutex

	mu     sync.RWMutex
	status map[Action]Status

	feed event.Feed
}

func New(contracts Contracts, owner common.Address, decimals int, wait WaitFunc, refresh RefreshFunc) *Orchestrator {
	o := &Orchestrator{
		contracts: contracts,
		owner:     owner,
		decimals:  decimals,
		wait:      wait,
		refresh:   refresh,
		log:       logger.WithComponent("orchestrator"),
		guards:    make(map[Action]*sync.Mutex, len(Actions)),
		status:    make(map[Action]Status, len(Actions)),
	}
	for _, a := range Actions {
		o.guards[a] = &sync.Mutex{}
		o.status[a] = Status{Action: a, State: StateIdle}
	}
	return o
}

// SubscribeTransitions delivers every transition to ch. Slow receivers delay
// the flows, so ch should be buffered and drained promptly.
func (o *Orchestrator) SubscribeTransitions(ch chan<- Transition) event.Subscription {
	return o.feed.Subscribe(ch)
}

// Status returns the current state of action.
func (o *Orchestrator) Status(action Action) Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status[action]
}

// Statuses returns the state of every action.
func (o *Orchestrator) Statuses() []Status {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]Status, 0, len(Actions))
	for _, a := range Actions {
		out = append(out, o.status[a])
	}
	return out
}

// reject reports an input error that stops action before it starts.
func (o *Orchestrator) reject(action Action, err error) error {
	o.publish(Transition{
		ID:     uuid.NewString(),
		Action: action,
		State:  StateIdle,
		Notice: UserMessage(action, err),
		Level:  LevelError,
		Err:    err,
		At:     time.Now(),
	})
	return err
}

func (o *Orchestrator) publish(t Transition) {
	o.mu.Lock()
	o.status[t.Action] = Status{Action: t.Action, State: t.State, Step: t.Step}
	o.mu.Unlock()

	o.feed.Send(t)
}

// run executes fn under the action guard and drives the state machine around
// it. Failures are classified and the action always ends Idle. Balances are
// refreshed only once a transaction was submitted, so an action rejected or
// failed before submission leaves the snapshot untouched.
func (o *Orchestrator) run(ctx context.Context, action Action, success string, fn func(ctx context.Context, r *runner) error) error {
	guard := o.guards[action]
	if !guard.TryLock() {
		return ErrActionInFlight
	}
	defer guard.Unlock()

	ctx, span := telemetry.Tracer().Start(ctx, "orchestrator."+string(action))
	defer span.End()

	telemetry.UpdateActiveActions(1)
	defer telemetry.UpdateActiveActions(-1)

	start := time.Now()
	r := &runner{o: o, id: uuid.NewString(), action: action}
	span.SetAttributes(attribute.String("action.id", r.id), attribute.String("account", o.owner.Hex()))

	log := o.log.With().Str("action", string(action)).Str("action_id", r.id).Logger()
	log.Info().Msg("Action started")

	err := fn(ctx, r)
	if err != nil {
		err = r.classify(err)
		status := "failed"
		if wallet.IsUserRejected(err) {
			status = "rejected"
			log.Info().Err(err).Msg("Action rejected by user")
		} else {
			log.Error().Err(err).Str("step", string(r.step)).Str("tx_hash", r.txHash.Hex()).Msg("Action failed")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		telemetry.RecordAction(string(action), status, time.Since(start))
		r.emit(StateFailed, UserMessage(action, err), LevelError, err)
	} else {
		log.Info().Str("tx_hash", r.txHash.Hex()).Dur("duration", time.Since(start)).Msg("Action confirmed")
		telemetry.RecordAction(string(action), "success", time.Since(start))
		r.emit(StateConfirmed, success, LevelSuccess, nil)
	}

	if r.submitted && o.refresh != nil {
		if rerr := o.refresh(ctx); rerr != nil {
			log.Warn().Err(rerr).Msg("Balance refresh after action failed")
		}
	}

	r.step = StepNone
	r.emit(StateIdle, "", "", nil)
	return err
}

// runner tracks one execution of an action.
type runner struct {
	o         *Orchestrator
	id        string
	action    Action
	step      Step
	txHash    common.Hash
	submitted bool
}

func (r *runner) emit(state State, notice string, level Level, err error) {
	r.o.publish(Transition{
		ID:     r.id,
		Action: r.action,
		State:  state,
		Step:   r.step,
		TxHash: r.txHash,
		Notice: notice,
		Level:  level,
		Err:    err,
		At:     time.Now(),
	})
}

// enter moves to step without sending anything.
func (r *runner) enter(step Step) {
	r.step = step
	r.txHash = common.Hash{}
	r.emit(StateSubmitting, "", "", nil)
}

// submit sends a transaction for step and waits until it is mined with a
// successful receipt.
func (r *runner) submit(ctx context.Context, step Step, sent string, send func() (*types.Transaction, error)) (*types.Receipt, error) {
	r.enter(step)

	tx, err := send()
	if err != nil {
		return nil, err
	}
	r.submitted = true
	r.txHash = tx.Hash()
	r.emit(StateAwaitingConfirmation, sent, LevelInfo, nil)

	receipt, err := r.o.wait(ctx, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, ErrReverted
	}
	return receipt, nil
}

func (r *runner) classify(err error) error {
	var failure *TransactionFailure
	var rejected *wallet.UserRejectedError
	switch {
	case errors.As(err, &failure), errors.As(err, &rejected):
		return err
	case wallet.IsUserRejected(err):
		return &wallet.UserRejectedError{Op: string(r.action), Err: err}
	default:
		return &TransactionFailure{Action: r.action, Step: r.step, TxHash: r.txHash, Err: err}
	}
}
