package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/theblitlabs/vecstake/internal/api/middleware"
	"github.com/theblitlabs/vecstake/internal/balance"
	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/orchestrator"
	"github.com/theblitlabs/vecstake/internal/session"
	"github.com/theblitlabs/vecstake/internal/utils"
	"github.com/theblitlabs/vecstake/internal/wallet"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

// Dashboard is the session controller as seen by the HTTP layer.
type Dashboard interface {
	Session() session.Session
	Connect(ctx context.Context) (session.Session, error)
	Disconnect()
	Balances() balance.Snapshot
	Refresh(ctx context.Context) (balance.Snapshot, error)
	Stake(ctx context.Context, amount string) error
	Unstake(ctx context.Context, amount string) error
	Claim(ctx context.Context) error
	Actions() []orchestrator.Status
	MaxStake() (string, error)
	MaxUnstake() (string, error)
	Deployment() config.Deployment
}

type AmountRequest struct {
	Amount string `json:"amount"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type AcceptedResponse struct {
	Action string `json:"action"`
	Status string `json:"status"`
}

type MaxResponse struct {
	Action string `json:"action"`
	Amount string `json:"amount"`
}

type DashboardHandler struct {
	dashboard  Dashboard
	notifier   *Notifier
	deployment config.Deployment
	log        zerolog.Logger
}

func NewDashboardHandler(dashboard Dashboard, notifier *Notifier) *DashboardHandler {
	return &DashboardHandler{
		dashboard:  dashboard,
		notifier:   notifier,
		deployment: dashboard.Deployment(),
		log:        logger.WithComponent("dashboard"),
	}
}

// ConnectMessage is the toast shown after a connect attempt.
func ConnectMessage(err error) string {
	var (
		switchRejected *wallet.NetworkSwitchRejectedError
		unavailable    *wallet.NetworkUnavailableError
		mismatch       *wallet.NetworkMismatchError
	)
	switch {
	case err == nil:
		return "Wallet Connected Successfully!"
	case errors.Is(err, wallet.ErrNoProvider):
		return "Wallet not found! Please configure one."
	case errors.As(err, &unavailable):
		return "Could not add network"
	case errors.As(err, &switchRejected), errors.As(err, &mismatch):
		return "Please switch to " + config.ChainName
	default:
		return "Connection Failed"
	}
}

// StatusCode maps a dashboard error to an HTTP status.
func StatusCode(err error) int {
	var (
		readFailure    *balance.ReadFailure
		switchRejected *wallet.NetworkSwitchRejectedError
		unavailable    *wallet.NetworkUnavailableError
		mismatch       *wallet.NetworkMismatchError
	)
	switch {
	case errors.Is(err, utils.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, wallet.ErrNoProvider):
		return http.StatusServiceUnavailable
	case errors.Is(err, wallet.ErrNotConnected), errors.Is(err, orchestrator.ErrActionInFlight):
		return http.StatusConflict
	case wallet.IsUserRejected(err):
		return http.StatusForbidden
	case errors.As(err, &switchRejected), errors.As(err, &mismatch):
		return http.StatusConflict
	case errors.As(err, &unavailable), errors.As(err, &readFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *DashboardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewSessionView(h.dashboard.Session(), h.deployment))
}

func (h *DashboardHandler) Connect(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r)

	sess, err := h.dashboard.Connect(r.Context())
	message := ConnectMessage(err)
	if err != nil {
		log.Error().Err(err).Msg("Connect failed")
		h.toast(message, string(orchestrator.LevelError))
		writeError(w, StatusCode(err), message)
		return
	}

	h.toast(message, string(orchestrator.LevelSuccess))
	writeJSON(w, http.StatusOK, NewSessionView(sess, h.deployment))
}

func (h *DashboardHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.dashboard.Disconnect()
	writeJSON(w, http.StatusOK, NewSessionView(session.Session{}, h.deployment))
}

func (h *DashboardHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewBalancesView(h.dashboard.Balances(), h.deployment))
}

func (h *DashboardHandler) RefreshBalances(w http.ResponseWriter, r *http.Request) {
	snap, err := h.dashboard.Refresh(r.Context())
	if err != nil {
		log := h.requestLog(r)
		log.Warn().Err(err).Msg("Balance refresh failed")
		writeError(w, StatusCode(err), "Could not refresh balances")
		return
	}
	writeJSON(w, http.StatusOK, NewBalancesView(snap, h.deployment))
}

func (h *DashboardHandler) Stake(w http.ResponseWriter, r *http.Request) {
	h.dispatchAmount(w, r, orchestrator.ActionStake, h.dashboard.Stake)
}

func (h *DashboardHandler) Unstake(w http.ResponseWriter, r *http.Request) {
	h.dispatchAmount(w, r, orchestrator.ActionUnstake, h.dashboard.Unstake)
}

func (h *DashboardHandler) Claim(w http.ResponseWriter, r *http.Request) {
	if !h.precheck(w, orchestrator.ActionClaim) {
		return
	}
	h.dispatch(w, r, orchestrator.ActionClaim, h.dashboard.Claim)
}

func (h *DashboardHandler) GetActions(w http.ResponseWriter, r *http.Request) {
	statuses := h.dashboard.Actions()
	views := make([]ActionView, 0, len(statuses))
	for _, s := range statuses {
		views = append(views, NewActionView(s))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *DashboardHandler) GetMax(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]

	var (
		amount string
		err    error
	)
	switch orchestrator.Action(action) {
	case orchestrator.ActionStake:
		amount, err = h.dashboard.MaxStake()
	case orchestrator.ActionUnstake:
		amount, err = h.dashboard.MaxUnstake()
	default:
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}
	if err != nil {
		writeError(w, StatusCode(err), "Connect wallet first")
		return
	}
	writeJSON(w, http.StatusOK, MaxResponse{Action: action, Amount: amount})
}

func (h *DashboardHandler) dispatchAmount(w http.ResponseWriter, r *http.Request, action orchestrator.Action, fn func(context.Context, string) error) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.precheck(w, action) {
		return
	}
	if _, err := utils.ParsePositiveUnits(req.Amount, h.deployment.TokenDecimals); err != nil {
		h.fail(w, action, err)
		return
	}

	h.dispatch(w, r, action, func(ctx context.Context) error {
		return fn(ctx, req.Amount)
	})
}

// precheck rejects an action before it reaches the chain when there is no
// session or the same action is still running.
func (h *DashboardHandler) precheck(w http.ResponseWriter, action orchestrator.Action) bool {
	if !h.dashboard.Session().Connected {
		h.fail(w, action, wallet.ErrNotConnected)
		return false
	}
	for _, s := range h.dashboard.Actions() {
		if s.Action == action && s.Busy() {
			h.fail(w, action, orchestrator.ErrActionInFlight)
			return false
		}
	}
	return true
}

// dispatch runs the action in the background. Progress reaches clients over
// the websocket as action and toast messages.
func (h *DashboardHandler) dispatch(w http.ResponseWriter, r *http.Request, action orchestrator.Action, fn func(context.Context) error) {
	log := h.requestLog(r).With().Str("action", string(action)).Logger()
	ctx := context.WithoutCancel(r.Context())

	go func() {
		if err := fn(ctx); err != nil {
			log.Debug().Err(err).Msg("Action ended with error")
		}
	}()

	writeJSON(w, http.StatusAccepted, AcceptedResponse{Action: string(action), Status: "accepted"})
}

func (h *DashboardHandler) fail(w http.ResponseWriter, action orchestrator.Action, err error) {
	message := orchestrator.UserMessage(action, err)
	h.toast(message, string(orchestrator.LevelError))
	writeError(w, StatusCode(err), message)
}

func (h *DashboardHandler) toast(message, level string) {
	if h.notifier != nil {
		h.notifier.Toast(message, level)
	}
}

func (h *DashboardHandler) requestLog(r *http.Request) zerolog.Logger {
	ctx := h.log.With().Str("request_id", middleware.RequestID(r.Context()))
	if claims, ok := middleware.Claims(r.Context()); ok {
		ctx = ctx.Str("token_address", claims.Address)
	}
	return ctx.Logger()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.WithComponent("dashboard")
		log.Debug().Err(err).Msg("Response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
