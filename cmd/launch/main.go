// Command launch starts one application and exits when it does.
//
//	launch [--config startup.yaml] mojo:app [args...]
//
// The exit status is 1 when the application cannot be started. The HTTP
// and gRPC surfaces stay off unless the environment turns them on.
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
	app.Name = "launch"
	app.Usage = "Run one application under the manager"
	app.ArgsUsage = "mojo:app [args...]"
	app.Flags = daemon.Flags()
	app.Action = func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.NewExitError("launch: no application named", 2)
		}
		opts, err := daemon.OptionsFrom(c)
		if err != nil {
			return cli.NewExitError(err.Error(), 2)
		}
		if os.Getenv("HTTP_ENABLED") == "" {
			opts.Config.Server.Enabled = false
		}
		opts.ExitWhenDone = true

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
