package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/grpc/control"
)

// errQuit ends the REPL.
var errQuit = errors.New("quit")

type controlClient interface {
	Execute(ctx context.Context, command string) (*control.ExecuteResponse, error)
	ListInstances(ctx context.Context) ([]app.Info, error)
}

type shell struct {
	client  controlClient
	out     io.Writer
	timeout time.Duration
}

var builtins = []string{"ls", "help", "exit", "quit"}

// run executes one input line.
func (s *shell) run(line string) error {
	line = strings.TrimSpace(line)
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	switch line {
	case "":
		return nil
	case "exit", "quit":
		return errQuit
	case "help":
		fmt.Fprintln(s.out, "ls                    list running instances")
		fmt.Fprintln(s.out, "mojo:app [args...]    start or reuse an application")
		fmt.Fprintln(s.out, "exit                  leave the shell")
		return nil
	case "ls":
		infos, err := s.client.ListInstances(ctx)
		if err != nil {
			return err
		}
		s.printInstances(infos)
		return nil
	}

	resp, err := s.client.Execute(ctx, line)
	if err != nil {
		return err
	}
	if resp.Accepted {
		fmt.Fprintf(s.out, "accepted: %s\n", resp.Command)
	}
	return nil
}

func (s *shell) printInstances(infos []app.Info) {
	if len(infos) == 0 {
		fmt.Fprintln(s.out, "no instances")
		return
	}
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tPID\tARGS")
	for _, info := range infos {
		pid := "-"
		if !info.Delegated {
			pid = fmt.Sprint(info.Pid)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Name, info.ID, pid, strings.Join(info.Args, " "))
	}
	w.Flush()
}
