package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap/zapcore"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/cmd"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/errs"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/logging"
)

func main() {
	app := cli.NewApp()
	app.Name = "dto"
	app.Usage = "deployment test orchestrator"
	app.Commands = []cli.Command{
		cmd.DiscoverCommand,
		cmd.InventoryCommand,
		cmd.DeployCommand,
		cmd.PurgeCommand,
		cmd.HealthcheckCommand,
	}
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "v", Usage: "verbose (debug) logging"},
		cli.BoolFlag{Name: "vv", Usage: "more verbose (debug) logging"},
	}
	// Disable the built-in -v flag (version), to avoid collisions with the
	// verbosity flags.
	app.HideVersion = true
	app.Before = func(c *cli.Context) error {
		configureLogging(c)
		return nil
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(errs.ExitCode(err))
	}
}

func configureLogging(c *cli.Context) {
	// The LOG_LEVEL environment variable takes precedence.
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(level)); err != nil {
			panic(err)
		}
		logging.SetLevel(l)
		return
	}

	switch {
	case c.Bool("v"), c.Bool("vv"):
		logging.SetLevel(zapcore.DebugLevel)
	default:
		// Do nothing; level remains at default (INFO).
	}
}
