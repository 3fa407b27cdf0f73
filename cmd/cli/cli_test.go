package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/vecstake/internal/api/client"
	"github.com/theblitlabs/vecstake/internal/api/handlers"
	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/orchestrator"
	"github.com/theblitlabs/vecstake/pkg/auth"
	"github.com/theblitlabs/vecstake/pkg/keystore"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func writeConfig(t *testing.T, secret string) (path, keystoreDir string) {
	t.Helper()
	dir := t.TempDir()
	keystoreDir = filepath.Join(dir, "keys")
	path = filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("server:\n  auth_secret: %q\nwallet:\n  keystore_dir: %q\n", secret, keystoreDir)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path, keystoreDir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log", "test"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	root := NewRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"auth", "token", "balance", "stake", "unstake", "claim", "network", "server", "watch"} {
		assert.Contains(t, names, want)
	}
}

func TestAuthAndToken(t *testing.T) {
	path, keystoreDir := writeConfig(t, "cli-secret")

	_, err := run(t, "--config", path, "auth", "-k", "0x1234")
	assert.Error(t, err)

	_, err = run(t, "--config", path, "auth", "-k", "0x"+testKey)
	require.NoError(t, err)

	store, err := keystore.NewStore(keystoreDir)
	require.NoError(t, err)
	_, err = store.LoadPrivateKey()
	require.NoError(t, err)

	out, err := run(t, "--config", path, "token", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.VerifyToken("cli-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.NotEmpty(t, claims.Address)
}

func TestTokenRequiresSecret(t *testing.T) {
	path, _ := writeConfig(t, "")

	_, err := run(t, "--config", path, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth_secret")
}

func TestStakeRequiresAmount(t *testing.T) {
	path, _ := writeConfig(t, "")

	_, err := run(t, "--config", path, "stake")
	assert.Error(t, err)
}

func TestPrintBalances(t *testing.T) {
	var out bytes.Buffer
	sess := handlers.SessionView{Address: "0x1234567890123456789012345678901234567890", Network: config.ChainName}
	view := handlers.BalancesView{
		Native:       handlers.FieldView{Display: "1.23", Status: "fresh"},
		Token:        handlers.FieldView{Display: "100.00", Status: "stale", Error: "timeout"},
		Staked:       handlers.FieldView{Display: "40.00", Status: "fresh"},
		Rewards:      handlers.FieldView{Display: "0.0001", Status: "fresh"},
		NativeSymbol: "ETH",
		TokenSymbol:  "VEC",
	}

	printBalances(&out, sess, view)

	text := out.String()
	assert.Contains(t, text, "1.23 ETH")
	assert.Contains(t, text, "100.00 VEC (stale: timeout)")
	assert.Contains(t, text, "0.0001 VEC")
	assert.Contains(t, text, config.ChainName)
}

func TestPrintNotice(t *testing.T) {
	var out bytes.Buffer
	hash := common.HexToHash("0x01")

	printNotice(&out, orchestrator.Transition{
		State:  orchestrator.StateAwaitingConfirmation,
		Notice: "Staking Transaction Sent...",
		Level:  orchestrator.LevelInfo,
		TxHash: hash,
	}, config.TargetDeployment())

	assert.Contains(t, out.String(), "Staking Transaction Sent...")
	assert.Contains(t, out.String(), config.ExplorerURL+"/tx/"+hash.Hex())
}

func TestPrintMessage(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, printMessage(&out, client.Message{
		Type:    handlers.MessageToast,
		Payload: []byte(`{"message":"Staked Successfully!","level":"success"}`),
	}))
	require.NoError(t, printMessage(&out, client.Message{
		Type:    handlers.MessageAction,
		Payload: []byte(`{"action":"stake","label":"Approving...","state":"awaiting_confirmation"}`),
	}))
	assert.Error(t, printMessage(&out, client.Message{Type: handlers.MessageSession, Payload: []byte(`[`)}))

	assert.Contains(t, out.String(), "Staked Successfully!")
	assert.Contains(t, out.String(), "[stake] Approving... (awaiting_confirmation)")
}
