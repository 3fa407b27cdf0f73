package wallet

import (
	"context"
	"errors"
	"sync"

	"github.com/manifoldco/promptui"
)

// Prompter asks the wallet owner to approve a request.
type Prompter interface {
	Confirm(ctx context.Context, label string) (bool, error)
}

// TerminalPrompter asks on the controlling terminal. Prompts are serialized so
// concurrent requests do not interleave on screen.
type TerminalPrompter struct {
	mu sync.Mutex
}

func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{}
}

func (p *TerminalPrompter) Confirm(ctx context.Context, label string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort), errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return false, nil
	default:
		return false, err
	}
}

// StaticPrompter answers every prompt the same way. It backs the
// auto_approve setting and tests.
type StaticPrompter struct {
	Approve bool
}

func (p StaticPrompter) Confirm(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.Approve, nil
}

// AutoApprove approves every request without asking.
var AutoApprove Prompter = StaticPrompter{Approve: true}
