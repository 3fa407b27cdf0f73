package balance

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/theblitlabs/vecstake/internal/telemetry"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

const (
	FieldNative  = "native"
	FieldToken   = "token"
	FieldStaked  = "staked"
	FieldRewards = "rewards"
)

type Status int

const (
	// Unset fields were never read and hold zero.
	Unset Status = iota
	// Fresh fields hold the result of the last read.
	Fresh
	// Stale fields hold an older value because the last read failed.
	Stale
)

func (s Status) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "unset"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Field is one balance in smallest units together with how it was obtained.
type Field struct {
	Value     *big.Int
	Status    Status
	Err       error
	UpdatedAt time.Time
}

// Snapshot holds the four balances shown on the dashboard.
type Snapshot struct {
	Native  Field
	Token   Field
	Staked  Field
	Rewards Field
}

// EmptySnapshot returns a snapshot with every field unset.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Native:  Field{Value: new(big.Int)},
		Token:   Field{Value: new(big.Int)},
		Staked:  Field{Value: new(big.Int)},
		Rewards: Field{Value: new(big.Int)},
	}
}

// ReadFailure is returned when a balance that must be read could not be.
type ReadFailure struct {
	Field string
	Err   error
}

func (e *ReadFailure) Error() string {
	return fmt.Sprintf("failed to read %s balance: %v", e.Field, e.Err)
}

func (e *ReadFailure) Unwrap() error {
	return e.Err
}

// ChainReader reads native balances.
type ChainReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Contracts reads token and staking balances.
type Contracts interface {
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	StakedBalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Earned(ctx context.Context, account common.Address) (*big.Int, error)
}

// Fetcher reads balances and keeps the last snapshot.
type Fetcher struct {
	chain     ChainReader
	contracts Contracts
	now       func() time.Time
	log       zerolog.Logger

	mu       sync.RWMutex
	snapshot Snapshot
}

func NewFetcher(chain ChainReader, contracts Contracts) *Fetcher {
	return &Fetcher{
		chain:     chain,
		contracts: contracts,
		now:       time.Now,
		log:       logger.WithComponent("balance"),
		snapshot:  EmptySnapshot(),
	}
}

// Refresh reads all balances of account once. The native balance must be
// readable or nothing is updated and a ReadFailure is returned. The other
// three fields fail independently and keep their previous value.
func (f *Fetcher) Refresh(ctx context.Context, account common.Address) (Snapshot, error) {
	native, err := f.chain.BalanceAt(ctx, account, nil)
	if err != nil {
		telemetry.RecordBalanceRead(FieldNative, "error")
		f.log.Error().Err(err).Str("address", account.Hex()).Msg("Failed to read native balance")
		return f.Snapshot(), &ReadFailure{Field: FieldNative, Err: err}
	}
	telemetry.RecordBalanceRead(FieldNative, "success")

	token, tokenErr := f.read(FieldToken, account, func() (*big.Int, error) {
		return f.contracts.BalanceOf(ctx, account)
	})
	staked, stakedErr := f.read(FieldStaked, account, func() (*big.Int, error) {
		return f.contracts.StakedBalanceOf(ctx, account)
	})
	rewards, rewardsErr := f.read(FieldRewards, account, func() (*big.Int, error) {
		return f.contracts.Earned(ctx, account)
	})

	now := f.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.snapshot.Native = Field{Value: native, Status: Fresh, UpdatedAt: now}
	update(&f.snapshot.Token, token, tokenErr, now)
	update(&f.snapshot.Staked, staked, stakedErr, now)
	update(&f.snapshot.Rewards, rewards, rewardsErr, now)

	return f.snapshot, nil
}

func (f *Fetcher) read(field string, account common.Address, fn func() (*big.Int, error)) (*big.Int, error) {
	value, err := fn()
	if err != nil {
		telemetry.RecordBalanceRead(field, "error")
		f.log.Warn().Err(err).Str("field", field).Str("address", account.Hex()).Msg("Balance read failed, keeping previous value")
		return nil, err
	}
	telemetry.RecordBalanceRead(field, "success")
	return value, nil
}

func update(field *Field, value *big.Int, err error, now time.Time) {
	if err != nil {
		field.Status = Stale
		field.Err = err
		return
	}
	*field = Field{Value: value, Status: Fresh, UpdatedAt: now}
}

// Snapshot returns the last merged snapshot.
func (f *Fetcher) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

// Reset drops every cached balance.
func (f *Fetcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = EmptySnapshot()
}
