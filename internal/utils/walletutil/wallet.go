package walletutil

import (
	"fmt"

	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/session"
	"github.com/theblitlabs/vecstake/internal/wallet"
	"github.com/theblitlabs/vecstake/pkg/keystore"
)

// Wallet is the local wallet the CLI commands drive, with the adapter in
// front of it.
type Wallet struct {
	Store   *keystore.Store
	Local   *wallet.LocalWallet
	Adapter *wallet.Adapter
}

// OpenStore opens the configured keystore directory.
func OpenStore(cfg *config.Config) (*keystore.Store, error) {
	store, err := keystore.NewStore(cfg.Wallet.KeystoreDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %w", err)
	}
	return store, nil
}

// Prompter returns the approval prompter selected by wallet.auto_approve.
func Prompter(cfg *config.Config) wallet.Prompter {
	if cfg.Wallet.AutoApprove {
		return wallet.AutoApprove
	}
	return wallet.NewTerminalPrompter()
}

// Open loads the stored key and starts a local wallet on the network it was
// last switched to.
func Open(cfg *config.Config, opts ...wallet.LocalOption) (*Wallet, error) {
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	key, err := store.LoadPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("no private key found - please authenticate first using 'vecstake auth': %w", err)
	}

	opts = append([]wallet.LocalOption{wallet.WithStore(store)}, opts...)
	local, err := wallet.NewLocalWallet(key, config.MainnetNetwork(cfg.Wallet.DefaultRPC), Prompter(cfg), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet: %w", err)
	}

	return &Wallet{
		Store:   store,
		Local:   local,
		Adapter: wallet.NewAdapter(local),
	}, nil
}

// Controller starts a session controller for the compiled-in deployment.
func (w *Wallet) Controller() *session.Controller {
	return session.NewController(w.Adapter, config.TargetDeployment(), session.ChainBindings)
}

func (w *Wallet) Close() {
	w.Local.Close()
}
