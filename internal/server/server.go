package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/telemetry"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	cfg        *config.Config
}

// NewServer serves api under its endpoint plus /health and /metrics at the
// root. A nil health handler answers a static ok.
func NewServer(cfg *config.Config, api http.Handler, health http.Handler) *Server {
	if health == nil {
		health = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"OK"}`))
		})
	}

	mux := http.NewServeMux()
	mux.Handle("/", api)
	mux.Handle("/health", health)
	mux.Handle("/metrics", telemetry.MetricsHandler())

	return &Server{
		mux: mux,
		httpServer: &http.Server{
			Addr:        cfg.Server.Addr(),
			Handler:     mux,
			ReadTimeout: 15 * time.Second,
			// Writes are unbounded so websocket connections stay open.
			IdleTimeout: 60 * time.Second,
		},
		cfg: cfg,
	}
}

func (s *Server) Start() error {
	log := logger.WithComponent("server")

	log.Info().Str("addr", s.httpServer.Addr).Str("endpoint", s.cfg.Server.Endpoint).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	log := logger.WithComponent("server")
	log.Info().Msg("Shutting down HTTP server...")

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}
