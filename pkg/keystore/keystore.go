package keystore

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

var ErrNoKey = errors.New("no private key found in keystore")

const (
	keyFile      = "keystore.json"
	networksFile = "networks.json"
)

type Keystore struct {
	PrivateKey string `json:"private_key"`
	Address    string `json:"address"`
	CreatedAt  int64  `json:"created_at"`
}

// WalletState is what the local wallet remembers between runs: the chains the
// user added and the chain it was last switched to.
type WalletState struct {
	ActiveChainID int64            `json:"active_chain_id"`
	Networks      []config.Network `json:"networks"`
}

// Store keeps the wallet key and wallet state under one directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// DefaultDir returns ~/.vecstake.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".vecstake"), nil
}

// NewStore opens the keystore directory, creating it if needed. An empty dir
// selects DefaultDir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// SavePrivateKey validates and stores a hex private key, with or without 0x.
func (s *Store) SavePrivateKey(privateKeyHex string) (common.Address, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid private key format: %w", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey)

	ks := Keystore{
		PrivateKey: privateKeyHex,
		Address:    address.Hex(),
		CreatedAt:  time.Now().Unix(),
	}

	log := logger.WithComponent("keystore")
	log.Info().
		Str("path", s.path(keyFile)).
		Str("address", address.Hex()).
		Msg("Saving private key to keystore")

	if err := s.writeJSON(keyFile, ks); err != nil {
		return common.Address{}, err
	}

	return address, nil
}

// LoadPrivateKey returns ErrNoKey when nothing has been saved yet.
func (s *Store) LoadPrivateKey() (*ecdsa.PrivateKey, error) {
	var ks Keystore
	if err := s.readJSON(keyFile, &ks); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoKey
		}
		return nil, err
	}

	if ks.PrivateKey == "" {
		return nil, ErrNoKey
	}

	key, err := crypto.HexToECDSA(ks.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key in keystore: %w", err)
	}
	return key, nil
}

// LoadWalletState returns an empty state when none was saved.
func (s *Store) LoadWalletState() (WalletState, error) {
	var state WalletState
	if err := s.readJSON(networksFile, &state); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return WalletState{}, nil
		}
		return WalletState{}, err
	}
	return state, nil
}

// SaveWalletState persists the wallet state, networks ordered by chain id.
func (s *Store) SaveWalletState(state WalletState) error {
	networks := append([]config.Network(nil), state.Networks...)
	sort.Slice(networks, func(i, j int) bool { return networks[i].ChainID < networks[j].ChainID })
	state.Networks = networks
	return s.writeJSON(networksFile, state)
}

func (s *Store) writeJSON(name string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	if err := os.WriteFile(s.path(name), data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *Store) readJSON(name string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}
