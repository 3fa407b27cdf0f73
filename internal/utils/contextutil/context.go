package contextutil

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	// ReadTimeout bounds balance and metadata reads from the CLI.
	ReadTimeout = 30 * time.Second
	// ShutdownTimeout bounds graceful server shutdown.
	ShutdownTimeout = 5 * time.Second
)

// WithSignal returns a context cancelled on SIGINT or SIGTERM.
func WithSignal(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// WithReadTimeout bounds a read-only chain call.
func WithReadTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, ReadTimeout)
}

// WithShutdownTimeout returns a fresh context for graceful shutdown, detached
// from any cancelled parent.
func WithShutdownTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ShutdownTimeout)
}
