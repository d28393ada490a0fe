package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/fx"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/appmanager/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/command"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/launcher"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/startup"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/grpc/control"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/server"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
)

type loopDeps struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Options    Options
	Config     *config.Config
	Loop       *loop.Loop
	Manager    *app.Manager
	Listener   *command.Listener
	Control    *ControlPipe
	Startup    *startup.Config
	Logger     *zap.Logger
}

// registerLoop runs the loop for the lifetime of the app, starts the
// listener and the initial applications on it, and shuts the manager down
// on stop. Applications get the configured grace period to honor
// RequestQuit before they are killed.
func registerLoop(d loopDeps) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	if d.Options.ExitWhenDone {
		d.Manager.OnTerminated(func(app.InstanceTerminated) {
			if d.Manager.Table().Len() == 0 {
				d.Logger.Info("Last application exited")
				d.Shutdowner.Shutdown()
			}
		})
	}

	stop := func(ctx context.Context) error {
		err := d.Loop.Invoke(ctx, d.Listener.Stop)
		if err == nil {
			err = d.Manager.Shutdown(ctx, d.Config.Shutdown.Grace)
		}
		if err != nil && !errors.Is(err, loop.ErrStopped) {
			d.Logger.Warn("Shutdown did not run on the loop", zap.Error(err))
		}
		if d.Control.Feed != nil {
			d.Control.Feed.Close()
		}
		cancel()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	d.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(done)
				if err := d.Loop.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					d.Logger.Error("Loop stopped", zap.Error(err))
				}
			}()

			var failed []string
			err := d.Loop.Invoke(ctx, func() {
				d.Listener.StartListening(d.Control.Listen)
				for _, name := range d.Startup.InitialApps {
					if !d.Manager.StartInitialApplication(name) {
						failed = append(failed, name)
					}
				}
			})
			if err != nil {
				cancel()
				return err
			}
			if len(failed) > 0 {
				if d.Options.ExitWhenDone {
					err := fmt.Errorf("cannot start %v", failed)
					return errors.Join(err, stop(ctx))
				}
				d.Logger.Warn("Some initial applications did not start", zap.Strings("names", failed))
			}
			return nil
		},
		OnStop: stop,
	})
}

type surfaceDeps struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Manager   *app.Manager
	Launcher  *launcher.Launcher
	Control   *ControlPipe
	Metrics   *monitoring.Metrics
	Tracer    *tracing.Tracer
	Logger    *zap.Logger
}

func registerHTTP(d surfaceDeps) {
	if !d.Config.Server.Enabled {
		return
	}
	var commands apihttp.Commands
	if d.Control.Feed != nil {
		commands = d.Control.Feed
	}
	srv := server.New(d.Config, server.Deps{
		Instances: d.Manager,
		Catalog:   d.Launcher,
		Commands:  commands,
		Metrics:   d.Metrics,
		Tracer:    d.Tracer,
		Logger:    d.Logger.Named("server"),
	})

	d.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			lis, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return fmt.Errorf("listen %s: %w", srv.Addr(), err)
			}
			go func() {
				if err := srv.Serve(lis); err != nil {
					d.Logger.Error("HTTP server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: srv.Shutdown,
	})
}

func registerGRPC(d surfaceDeps) {
	if !d.Config.Control.Enabled {
		return
	}
	if d.Control.Feed == nil {
		d.Logger.Warn("gRPC control disabled: commands come from the launcher fd")
		return
	}
	logger := d.Logger.Named("control")
	srv := control.NewServer(control.NewService(d.Control.Feed, d.Manager, logger), d.Tracer, logger)

	d.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			lis, err := net.Listen("tcp", d.Config.Control.Address)
			if err != nil {
				return fmt.Errorf("listen %s: %w", d.Config.Control.Address, err)
			}
			logger.Info("Starting control service", zap.String("addr", lis.Addr().String()))
			go func() {
				if err := srv.Serve(lis); err != nil {
					logger.Error("Control service failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			srv.GracefulStop()
			return nil
		},
	})
}
