// Command appsh is an interactive client for the appmgr control service.
//
//	appsh [--addr host:port] [command...]
//
// With arguments it runs them as one command and exits.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/urfave/cli"
	"google.golang.org/grpc"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/grpc/control"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/tracing"
)

func main() {
	app := cli.NewApp()
	app.Name = "appsh"
	app.Usage = "Talk to a running appmgr"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "addr",
			Value:  "127.0.0.1:50310",
			Usage:  "control service address",
			EnvVar: "CONTROL_GRPC_ADDR",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Value: 5 * time.Second,
			Usage: "per-command deadline",
		},
	}
	app.Action = func(c *cli.Context) error {
		logger := logging.NewDefault()
		defer logger.Sync()
		tracer := tracing.New("appsh", logger.Named("trace"))
		defer tracer.Close()

		client, err := control.Dial(c.String("addr"),
			grpc.WithChainUnaryInterceptor(tracing.GRPCClientInterceptor(tracer)))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		defer client.Close()

		sh := &shell{client: client, out: os.Stdout, timeout: c.Duration("timeout")}
		if c.NArg() > 0 {
			if err := sh.run(strings.Join(c.Args(), " ")); err != nil && !errors.Is(err, errQuit) {
				return cli.NewExitError(err.Error(), 1)
			}
			return nil
		}
		return interactive(sh)
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func interactive(sh *shell) error {
	items := make([]readline.PrefixCompleterInterface, len(builtins))
	for i, name := range builtins {
		items[i] = readline.PcItem(name)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "appsh> ",
		HistoryFile:     os.ExpandEnv("$HOME/.appsh_history"),
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := sh.run(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}
