package wallet

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// Provider error codes (EIP-1193, EIP-3085).
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeUnrecognizedChain = 4902
	CodeInvalidParams     = -32602
	CodeInternal          = -32603
)

var (
	ErrNoProvider   = errors.New("no wallet provider found")
	ErrNoAccounts   = errors.New("wallet returned no accounts")
	ErrNotConnected = errors.New("wallet not connected")
)

// ProviderError is an error answered by a wallet provider. It satisfies
// rpc.Error so errors from remote JSON-RPC wallets and the local wallet are
// classified the same way.
type ProviderError struct {
	Code    int
	Message string
}

var _ rpc.Error = (*ProviderError)(nil)

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

func (e *ProviderError) ErrorCode() int {
	return e.Code
}

func userRejected(msg string) error {
	return &ProviderError{Code: CodeUserRejected, Message: msg}
}

// UserRejectedError means the user declined a connection, network or signing
// prompt.
type UserRejectedError struct {
	Op  string
	Err error
}

func (e *UserRejectedError) Error() string {
	return fmt.Sprintf("%s: user rejected the request", e.Op)
}

func (e *UserRejectedError) Unwrap() error {
	return e.Err
}

// NetworkMismatchError means the wallet is on a different chain than required.
type NetworkMismatchError struct {
	Expected int64
	Actual   int64
}

func (e *NetworkMismatchError) Error() string {
	return fmt.Sprintf("wallet is on chain %d, expected %d", e.Actual, e.Expected)
}

// NetworkSwitchRejectedError means the wallet refused to switch chains.
type NetworkSwitchRejectedError struct {
	ChainID int64
	Err     error
}

func (e *NetworkSwitchRejectedError) Error() string {
	return fmt.Sprintf("switch to chain %d rejected: %v", e.ChainID, e.Err)
}

func (e *NetworkSwitchRejectedError) Unwrap() error {
	return e.Err
}

// NetworkUnavailableError means the chain was unknown to the wallet and adding
// it failed as well.
type NetworkUnavailableError struct {
	ChainID int64
	Err     error
}

func (e *NetworkUnavailableError) Error() string {
	return fmt.Sprintf("could not add chain %d: %v", e.ChainID, e.Err)
}

func (e *NetworkUnavailableError) Unwrap() error {
	return e.Err
}

// ErrorCode extracts a provider error code from err.
func ErrorCode(err error) (int, bool) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode(), true
	}
	return 0, false
}

// IsUserRejected reports whether err stems from the user declining a prompt.
func IsUserRejected(err error) bool {
	var rejected *UserRejectedError
	if errors.As(err, &rejected) {
		return true
	}
	code, ok := ErrorCode(err)
	return ok && code == CodeUserRejected
}
