package main

import (
	"os"

	"github.com/theblitlabs/vecstake/cmd/cli"
	"github.com/theblitlabs/vecstake/internal/utils/cliutil"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

func main() {
	if !cliutil.ExecuteCommand(cli.NewRootCommand(), logger.WithComponent("cli")) {
		os.Exit(1)
	}
}
