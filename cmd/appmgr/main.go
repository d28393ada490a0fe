// Command appmgr runs the application manager daemon.
//
//	appmgr [--config startup.yaml] [--launcher-fd N] [mojo:app [args...]]
//
// A positional application is started with the arguments that follow it.
// Commands arrive on the launcher fd when one is given, and otherwise over
// HTTP, WebSocket and gRPC control.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/fx"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/daemon"
)

func main() {
	app := cli.NewApp()
	app.Name = "appmgr"
	app.Usage = "Start and connect applications"
	app.ArgsUsage = "[mojo:app [args...]]"
	app.Flags = daemon.Flags()
	app.Action = func(c *cli.Context) error {
		opts, err := daemon.OptionsFrom(c)
		if err != nil {
			return cli.NewExitError(err.Error(), 2)
		}
		fxApp := fx.New(daemon.Module(opts))
		if err := fxApp.Err(); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		fxApp.Run()
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
