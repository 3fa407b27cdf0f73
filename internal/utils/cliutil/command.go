package cliutil

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CommandConfig describes a subcommand.
type CommandConfig struct {
	Use     string
	Short   string
	Long    string
	Example string
	Args    cobra.PositionalArgs

	// RunFunc is invoked with the command's context. Errors are returned to
	// cobra and logged by ExecuteCommand.
	RunFunc func(cmd *cobra.Command, args []string) error

	Flags map[string]Flag
}

// Flag represents a command line flag
type Flag struct {
	Type        FlagType
	Shorthand   string
	Description string
	Required    bool

	DefaultString string
	DefaultBool   bool
}

type FlagType int

const (
	FlagTypeString FlagType = iota
	FlagTypeBool
)

// CreateCommand builds a cobra command from config. Errors are not printed by
// cobra itself so they are logged exactly once.
func CreateCommand(config CommandConfig, log zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           config.Use,
		Short:         config.Short,
		Long:          config.Long,
		Example:       config.Example,
		Args:          config.Args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.RunFunc != nil {
				return config.RunFunc(cmd, args)
			}
			return nil
		},
	}

	for name, flag := range config.Flags {
		switch flag.Type {
		case FlagTypeString:
			cmd.Flags().StringP(name, flag.Shorthand, flag.DefaultString, flag.Description)
		case FlagTypeBool:
			cmd.Flags().BoolP(name, flag.Shorthand, flag.DefaultBool, flag.Description)
		}

		if flag.Required {
			if err := cmd.MarkFlagRequired(name); err != nil {
				log.Error().Err(err).Str("flag", name).Msg("Failed to mark flag as required")
			}
		}
	}

	return cmd
}

// ExecuteCommand runs the root command and reports whether it succeeded.
func ExecuteCommand(cmd *cobra.Command, log zerolog.Logger) bool {
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		return false
	}
	return true
}
