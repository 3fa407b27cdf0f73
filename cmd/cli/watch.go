package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/theblitlabs/vecstake/internal/api/client"
	"github.com/theblitlabs/vecstake/internal/api/handlers"
	"github.com/theblitlabs/vecstake/internal/utils/cliutil"
	"github.com/theblitlabs/vecstake/internal/utils/configutil"
	"github.com/theblitlabs/vecstake/internal/utils/contextutil"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

func NewWatchCommand() *cobra.Command {
	log := logger.WithComponent("watch")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "watch",
		Short: "Follow a running dashboard server",
		Flags: map[string]cliutil.Flag{
			"token": {
				Type:        cliutil.FlagTypeString,
				Description: "Bearer token from 'vecstake token'",
			},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			token, err := cmd.Flags().GetString("token")
			if err != nil {
				return err
			}

			cfg, err := configutil.GetConfig()
			if err != nil {
				return err
			}

			url := fmt.Sprintf("ws://%s%s/ws", cfg.Server.Addr(), cfg.Server.Endpoint)
			out := cmd.OutOrStdout()
			ws := client.NewWebSocketClient(url, token, client.HandlerFunc(func(msg client.Message) {
				if err := printMessage(out, msg); err != nil {
					log.Debug().Err(err).Str("type", msg.Type).Msg("Message decode failed")
				}
			}))
			if err := ws.Connect(); err != nil {
				return err
			}
			defer ws.Stop()
			ws.Start()

			ctx, cancel := contextutil.WithSignal(cmd.Context())
			defer cancel()

			select {
			case <-ctx.Done():
			case <-ws.Done():
				log.Info().Msg("Server closed the connection")
			}
			return nil
		},
	}, log)
}

func printMessage(out io.Writer, msg client.Message) error {
	switch msg.Type {
	case handlers.MessageSession:
		var s handlers.SessionView
		if err := json.Unmarshal(msg.Payload, &s); err != nil {
			return err
		}
		if !s.Connected {
			fmt.Fprintln(out, color.HiBlackString("[session] disconnected"))
			return nil
		}
		fmt.Fprintf(out, "[session] %s on %s\n", s.ShortAddress, s.Network)
	case handlers.MessageBalances:
		var b handlers.BalancesView
		if err := json.Unmarshal(msg.Payload, &b); err != nil {
			return err
		}
		fmt.Fprintf(out, "[balances] %s %s | %s %s | staked %s | rewards %s\n",
			b.Native.Display, b.NativeSymbol, b.Token.Display, b.TokenSymbol, b.Staked.Display, b.Rewards.Display)
	case handlers.MessageAction:
		var a handlers.ActionEvent
		if err := json.Unmarshal(msg.Payload, &a); err != nil {
			return err
		}
		fmt.Fprintf(out, "[%s] %s (%s)\n", a.Action, a.Label, a.State)
	case handlers.MessageToast:
		var t handlers.Toast
		if err := json.Unmarshal(msg.Payload, &t); err != nil {
			return err
		}
		paint := color.CyanString
		switch t.Level {
		case "success":
			paint = color.GreenString
		case "error":
			paint = color.RedString
		}
		fmt.Fprintln(out, paint("%s", t.Message))
	}
	return nil
}
