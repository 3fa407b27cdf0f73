package cli

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fatih/color"

	"github.com/theblitlabs/vecstake/internal/api/handlers"
	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/orchestrator"
	"github.com/theblitlabs/vecstake/internal/session"
	"github.com/theblitlabs/vecstake/internal/utils/configutil"
	"github.com/theblitlabs/vecstake/internal/utils/walletutil"
)

func addressOf(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

// connected holds a wallet and a connected session controller.
type connected struct {
	wallet     *walletutil.Wallet
	controller *session.Controller
}

func (c *connected) Close() {
	c.controller.Close()
	c.wallet.Close()
}

// connect opens the stored wallet and runs the full connect flow, including
// the network switch.
func connect(ctx context.Context) (*connected, error) {
	cfg, err := configutil.GetConfig()
	if err != nil {
		return nil, err
	}

	w, err := walletutil.Open(cfg)
	if err != nil {
		return nil, err
	}

	ctrl := w.Controller()
	if _, err := ctrl.Connect(ctx); err != nil {
		ctrl.Close()
		w.Close()
		return nil, fmt.Errorf("%s: %w", handlers.ConnectMessage(err), err)
	}

	return &connected{wallet: w, controller: ctrl}, nil
}

// printNotices writes action notices to out until the returned stop is
// called.
func printNotices(ctrl *session.Controller, out io.Writer, deployment config.Deployment) (stop func()) {
	updates := make(chan session.Update, 32)
	sub := ctrl.Subscribe(updates)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case u := <-updates:
				if u.Kind != session.UpdateAction || u.Transition.Notice == "" {
					continue
				}
				printNotice(out, u.Transition, deployment)
			case <-sub.Err():
				return
			}
		}
	}()

	return func() {
		sub.Unsubscribe()
		<-done
	}
}

func printNotice(out io.Writer, t orchestrator.Transition, deployment config.Deployment) {
	paint := color.New(color.FgCyan)
	switch t.Level {
	case orchestrator.LevelSuccess:
		paint = color.New(color.FgGreen)
	case orchestrator.LevelError:
		paint = color.New(color.FgRed)
	}

	paint.Fprintln(out, t.Notice)
	if t.TxHash != (common.Hash{}) && t.State == orchestrator.StateAwaitingConfirmation && t.Level == orchestrator.LevelInfo {
		fmt.Fprintf(out, "  %s/tx/%s\n", deployment.Network.ExplorerURL, t.TxHash.Hex())
	}
}
