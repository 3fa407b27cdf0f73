package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/vecstake/internal/utils/cliutil"
	"github.com/theblitlabs/vecstake/internal/utils/configutil"
	"github.com/theblitlabs/vecstake/internal/utils/errorutil"
	"github.com/theblitlabs/vecstake/internal/utils/walletutil"
	"github.com/theblitlabs/vecstake/pkg/auth"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

func NewAuthCommand() *cobra.Command {
	log := logger.WithComponent("auth")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "auth",
		Short: "Store the wallet private key",
		Flags: map[string]cliutil.Flag{
			"private-key": {
				Type:        cliutil.FlagTypeString,
				Shorthand:   "k",
				Description: "Private key in hex format",
				Required:    true,
			},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			privateKey, err := cmd.Flags().GetString("private-key")
			if err != nil {
				return fmt.Errorf("failed to get private key flag: %w", err)
			}
			return ExecuteAuth(privateKey)
		},
	}, log)
}

func ExecuteAuth(privateKey string) error {
	log := logger.WithComponent("auth")

	privateKey = strings.TrimPrefix(privateKey, "0x")
	if len(privateKey) != 64 {
		return fmt.Errorf("invalid private key - must be 64 hex characters")
	}

	cfg, err := configutil.GetConfig()
	if err != nil {
		return err
	}

	store, err := walletutil.OpenStore(cfg)
	if err != nil {
		return err
	}

	address, err := store.SavePrivateKey(privateKey)
	if err != nil {
		return errorutil.WrapError(err, "invalid private key")
	}

	log.Info().
		Str("address", address.Hex()).
		Str("keystore", store.Dir()).
		Msg("Wallet key stored")
	return nil
}

func NewTokenCommand() *cobra.Command {
	log := logger.WithComponent("token")

	return cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "token",
		Short: "Issue a bearer token for the dashboard API",
		Flags: map[string]cliutil.Flag{
			"ttl": {
				Type:          cliutil.FlagTypeString,
				Description:   "Token lifetime",
				DefaultString: "24h",
			},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			raw, err := cmd.Flags().GetString("ttl")
			if err != nil {
				return err
			}
			ttl, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid ttl %q: %w", raw, err)
			}

			cfg, err := configutil.GetConfig()
			if err != nil {
				return err
			}
			if cfg.Server.AuthSecret == "" {
				return fmt.Errorf("server.auth_secret is not set; the API accepts requests without a token")
			}

			store, err := walletutil.OpenStore(cfg)
			if err != nil {
				return err
			}
			key, err := store.LoadPrivateKey()
			if err != nil {
				return errorutil.WrapError(err, "no private key found - please authenticate first using 'vecstake auth'")
			}

			token, err := auth.GenerateToken(cfg.Server.AuthSecret, addressOf(key), ttl)
			if err != nil {
				return err
			}

			log.Debug().Dur("ttl", ttl).Msg("Token issued")
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}, log)
}
