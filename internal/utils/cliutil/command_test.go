package cliutil

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommand(t *testing.T) {
	var got string
	cmd := CreateCommand(CommandConfig{
		Use: "stake",
		Flags: map[string]Flag{
			"amount": {Type: FlagTypeString, Shorthand: "a", Required: true},
			"yes":    {Type: FlagTypeBool},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			var err error
			got, err = cmd.Flags().GetString("amount")
			return err
		},
	}, zerolog.Nop())

	cmd.SetArgs([]string{"-a", "1.5"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "1.5", got)

	yes, err := cmd.Flags().GetBool("yes")
	require.NoError(t, err)
	assert.False(t, yes)
}

func TestCreateCommandRequiredFlag(t *testing.T) {
	cmd := CreateCommand(CommandConfig{
		Use:   "unstake",
		Flags: map[string]Flag{"amount": {Type: FlagTypeString, Required: true}},
	}, zerolog.Nop())

	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}

func TestExecuteCommand(t *testing.T) {
	ok := CreateCommand(CommandConfig{Use: "ok"}, zerolog.Nop())
	ok.SetArgs([]string{})
	assert.True(t, ExecuteCommand(ok, zerolog.Nop()))

	failing := CreateCommand(CommandConfig{
		Use:     "fail",
		RunFunc: func(*cobra.Command, []string) error { return errors.New("boom") },
	}, zerolog.Nop())
	failing.SetArgs([]string{})
	assert.False(t, ExecuteCommand(failing, zerolog.Nop()))
}
