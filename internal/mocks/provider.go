package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/event"

	"github.com/theblitlabs/vecstake/internal/wallet"
)

// MockProvider is a wallet.Provider driven by function fields. Every request
// method is recorded in Calls.
type MockProvider struct {
	CallContextFn  func(ctx context.Context, result interface{}, method string, args ...interface{}) error
	BackendFn      func() (wallet.Backend, error)
	TransactOptsFn func(ctx context.Context) (*bind.TransactOpts, error)

	Feed event.Feed

	mu    sync.Mutex
	calls []string
}

var _ wallet.Provider = (*MockProvider)(nil)

func (m *MockProvider) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	m.mu.Lock()
	m.calls = append(m.calls, method)
	m.mu.Unlock()

	if m.CallContextFn != nil {
		return m.CallContextFn(ctx, result, method, args...)
	}
	return nil
}

func (m *MockProvider) SubscribeEvents(ch chan<- wallet.Event) event.Subscription {
	return m.Feed.Subscribe(ch)
}

func (m *MockProvider) Backend() (wallet.Backend, error) {
	if m.BackendFn != nil {
		return m.BackendFn()
	}
	return nil, wallet.ErrNotConnected
}

func (m *MockProvider) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if m.TransactOptsFn != nil {
		return m.TransactOptsFn(ctx)
	}
	return &bind.TransactOpts{Context: ctx}, nil
}

// Calls returns the request methods seen so far, in order.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Respond stores value into result the way a JSON-RPC client decodes a reply.
func Respond(result interface{}, value interface{}) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}
