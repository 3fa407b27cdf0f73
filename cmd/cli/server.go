package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/theblitlabs/vecstake/internal/api"
	"github.com/theblitlabs/vecstake/internal/api/handlers"
	"github.com/theblitlabs/vecstake/internal/monitoring/health"
	"github.com/theblitlabs/vecstake/internal/server"
	"github.com/theblitlabs/vecstake/internal/telemetry"
	"github.com/theblitlabs/vecstake/internal/utils/cliutil"
	"github.com/theblitlabs/vecstake/internal/utils/configutil"
	"github.com/theblitlabs/vecstake/internal/utils/contextutil"
	"github.com/theblitlabs/vecstake/internal/utils/errorutil"
	"github.com/theblitlabs/vecstake/internal/utils/walletutil"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

func NewServerCommand() *cobra.Command {
	log := logger.WithComponent("server")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "server",
		Short: "Serve the dashboard API and websocket",
		RunFunc: func(cmd *cobra.Command, args []string) error {
			cfg, err := configutil.GetConfig()
			if err != nil {
				return err
			}

			ctx, cancel := contextutil.WithSignal(cmd.Context())
			defer cancel()

			shutdownTelemetry, err := telemetry.InitTelemetry(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to init telemetry: %w", err)
			}

			w, err := walletutil.Open(cfg)
			if err != nil {
				return err
			}
			defer w.Close()

			ctrl := w.Controller()
			defer ctrl.Close()

			notifier := handlers.NewNotifier(ctrl, cfg.Server)
			go notifier.Run(ctx, ctrl)

			checker := health.NewHealthChecker(30 * time.Second)
			checker.Register("rpc", func(ctx context.Context) error {
				var block hexutil.Uint64
				return w.Local.CallContext(ctx, &block, "eth_blockNumber")
			})
			checker.Register("session", func(ctx context.Context) error {
				if !ctrl.Session().Connected {
					return &health.Warning{Message: "wallet not connected"}
				}
				return nil
			})
			checker.Start()
			defer checker.Stop()

			router := api.NewRouter(handlers.NewDashboardHandler(ctrl, notifier), notifier, cfg.Server.Endpoint, cfg.Server.AuthSecret)
			srv := server.NewServer(cfg, router, checker.Handler())

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancelShutdown := contextutil.WithShutdownTimeout()
			defer cancelShutdown()

			errorutil.HandleContextError(log, shutdownCtx, srv.Stop(shutdownCtx), "Server shutdown timed out", "Server shutdown failed")
			errorutil.HandleError(log, shutdownTelemetry(shutdownCtx), "Telemetry shutdown failed")
			log.Info().Msg("Server stopped")
			return nil
		},
	}, log)
}
