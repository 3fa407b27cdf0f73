package handlers

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/theblitlabs/vecstake/internal/balance"
	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/orchestrator"
	"github.com/theblitlabs/vecstake/internal/session"
	"github.com/theblitlabs/vecstake/internal/utils"
)

// Websocket message types.
const (
	MessageSession  = "session"
	MessageBalances = "balances"
	MessageAction   = "action"
	MessageToast    = "toast"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type SessionView struct {
	Connected    bool   `json:"connected"`
	Address      string `json:"address,omitempty"`
	ShortAddress string `json:"short_address,omitempty"`
	ChainID      int64  `json:"chain_id,omitempty"`
	Network      string `json:"network,omitempty"`
	ButtonText   string `json:"button_text"`
}

func NewSessionView(s session.Session, d config.Deployment) SessionView {
	if !s.Connected {
		return SessionView{ButtonText: "Connect Wallet"}
	}

	addr := s.Address.Hex()
	short := addr[:6] + "..." + addr[38:]
	return SessionView{
		Connected:    true,
		Address:      addr,
		ShortAddress: short,
		ChainID:      s.ChainID,
		Network:      d.Network.Name,
		ButtonText:   short,
	}
}

type FieldView struct {
	Value     string     `json:"value"`
	Display   string     `json:"display"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func newFieldView(f balance.Field, decimals, places int) FieldView {
	v := FieldView{
		Value:   utils.FormatUnits(f.Value, decimals),
		Display: utils.FormatEther(f.Value, places),
		Status:  f.Status.String(),
	}
	if f.Err != nil {
		v.Error = f.Err.Error()
	}
	if !f.UpdatedAt.IsZero() {
		at := f.UpdatedAt
		v.UpdatedAt = &at
	}
	return v
}

type BalancesView struct {
	Native       FieldView `json:"native"`
	Token        FieldView `json:"token"`
	Staked       FieldView `json:"staked"`
	Rewards      FieldView `json:"rewards"`
	NativeSymbol string    `json:"native_symbol"`
	TokenSymbol  string    `json:"token_symbol"`
}

// NewBalancesView renders balances with two display decimals, rewards with
// four.
func NewBalancesView(s balance.Snapshot, d config.Deployment) BalancesView {
	return BalancesView{
		Native:       newFieldView(s.Native, d.Network.CurrencyDecimals, 2),
		Token:        newFieldView(s.Token, d.TokenDecimals, 2),
		Staked:       newFieldView(s.Staked, d.TokenDecimals, 2),
		Rewards:      newFieldView(s.Rewards, d.TokenDecimals, 4),
		NativeSymbol: d.Network.CurrencySymbol,
		TokenSymbol:  d.TokenSymbol,
	}
}

// ButtonLabel is the text of an action button for the given step.
func ButtonLabel(action orchestrator.Action, step orchestrator.Step, busy bool) string {
	if busy {
		switch step {
		case orchestrator.StepCheckingAllowance:
			return "Checking Allowance..."
		case orchestrator.StepApproving:
			return "Approving..."
		case orchestrator.StepStaking:
			return "Staking..."
		case orchestrator.StepUnstaking:
			return "Unstaking..."
		case orchestrator.StepClaiming:
			return "Claiming..."
		}
	}

	switch action {
	case orchestrator.ActionStake:
		return "Stake"
	case orchestrator.ActionUnstake:
		return "Unstake"
	case orchestrator.ActionClaim:
		return "Claim Rewards"
	default:
		return string(action)
	}
}

type ActionView struct {
	Action string `json:"action"`
	Label  string `json:"label"`
	Busy   bool   `json:"busy"`
	State  string `json:"state"`
	Step   string `json:"step,omitempty"`
}

func NewActionView(s orchestrator.Status) ActionView {
	return ActionView{
		Action: string(s.Action),
		Label:  ButtonLabel(s.Action, s.Step, s.Busy()),
		Busy:   s.Busy(),
		State:  string(s.State),
		Step:   string(s.Step),
	}
}

// ActionEvent is pushed for every action transition.
type ActionEvent struct {
	ActionView
	ID          string `json:"id"`
	TxHash      string `json:"tx_hash,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

func NewActionEvent(t orchestrator.Transition, d config.Deployment) ActionEvent {
	ev := ActionEvent{
		ActionView: NewActionView(orchestrator.Status{Action: t.Action, State: t.State, Step: t.Step}),
		ID:         t.ID,
	}
	if t.TxHash != (common.Hash{}) {
		ev.TxHash = t.TxHash.Hex()
		ev.ExplorerURL = d.Network.ExplorerURL + "/tx/" + ev.TxHash
	}
	if t.Err != nil {
		ev.Error = t.Err.Error()
	}
	return ev
}

// Toast is a short notification the page shows until ExpiresAt.
type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
	ExpiresAt time.Time `json:"expires_at"`
}
