package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/theblitlabs/vecstake/internal/api/handlers"
	"github.com/theblitlabs/vecstake/internal/api/middleware"
	"github.com/theblitlabs/vecstake/internal/telemetry"
)

// Router wraps mux.Router with the dashboard routes and middleware.
type Router struct {
	*mux.Router
	middleware []mux.MiddlewareFunc
	endpoint   string
	authSecret string
}

func NewRouter(
	dashboard *handlers.DashboardHandler,
	notifier *handlers.Notifier,
	endpoint string,
	authSecret string,
) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		middleware: []mux.MiddlewareFunc{
			middleware.Logging,
			telemetry.MetricsMiddleware,
		},
		endpoint:   endpoint,
		authSecret: authSecret,
	}

	r.setup()
	r.registerRoutes(dashboard, notifier)

	return r
}

func (r *Router) setup() {
	for _, m := range r.middleware {
		r.Use(m)
	}
}

func (r *Router) registerRoutes(
	dashboard *handlers.DashboardHandler,
	notifier *handlers.Notifier,
) {
	api := r.PathPrefix(r.endpoint).Subrouter()

	// Reads
	api.HandleFunc("/session", dashboard.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/balances", dashboard.GetBalances).Methods(http.MethodGet)
	api.HandleFunc("/actions", dashboard.GetActions).Methods(http.MethodGet)
	api.HandleFunc("/max/{action:stake|unstake}", dashboard.GetMax).Methods(http.MethodGet)
	api.HandleFunc("/ws", notifier.ServeWS).Methods(http.MethodGet)

	// Mutations
	mutating := api.NewRoute().Subrouter()
	mutating.Use(middleware.Auth(r.authSecret))
	mutating.HandleFunc("/session/connect", dashboard.Connect).Methods(http.MethodPost)
	mutating.HandleFunc("/session/disconnect", dashboard.Disconnect).Methods(http.MethodPost)
	mutating.HandleFunc("/balances/refresh", dashboard.RefreshBalances).Methods(http.MethodPost)
	mutating.HandleFunc("/stake", dashboard.Stake).Methods(http.MethodPost)
	mutating.HandleFunc("/unstake", dashboard.Unstake).Methods(http.MethodPost)
	mutating.HandleFunc("/claim", dashboard.Claim).Methods(http.MethodPost)
}
