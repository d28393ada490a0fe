package daemon

import (
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/command"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/launcher"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/startup"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/loop"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/transport"
)

// Options are the command line inputs.
type Options struct {
	Config *config.Config

	// Positional names an initial application followed by its arguments.
	Positional []string

	// LauncherFD, when >= 0, is an inherited socket carrying control
	// commands from a parent launcher. The in-process feeds are disabled
	// then.
	LauncherFD int

	// ExitWhenDone stops the daemon once no instance is left, and fails
	// startup when an initial application cannot be started.
	ExitWhenDone bool
}

// ControlPipe is the command listener's pipe and, when the manager owns
// the other end, the feed writing into it.
type ControlPipe struct {
	Listen system.Handle
	Feed   *command.Feed
}

// Module returns the fx graph for opts.
func Module(opts Options) fx.Option {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	return fx.Options(
		fx.Supply(opts, opts.Config),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		fx.Provide(
			provideLogger,
			system.NewCore,
			provideLoop,
			monitoring.NewMetrics,
			provideTracer,
			provideStartup,
			provideSpawner,
			provideLauncher,
			provideManager,
			provideControlPipe,
			provideListener,
		),
		fx.Invoke(registerLoop, registerHTTP, registerGRPC),
	)
}

func provideLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	logCfg.File = cfg.Logging.File

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() { _ = logger.Sync() }))
	return logger.Logger, nil
}

func provideLoop(lc fx.Lifecycle, core *system.Core, logger *zap.Logger) (*loop.Loop, error) {
	lp, err := loop.New(core, logger.Named("loop"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(lp.Close))
	return lp, nil
}

func provideTracer(lc fx.Lifecycle, logger *zap.Logger) *tracing.Tracer {
	tracer := tracing.New("appmgr", logger.Named("trace"))
	lc.Append(fx.StopHook(tracer.Close))
	return tracer
}

func provideStartup(opts Options, cfg *config.Config) (*startup.Config, error) {
	sc := &startup.Config{}
	if path := cfg.Startup.Path; path != "" {
		loaded, err := startup.Load(path)
		if err != nil {
			return nil, err
		}
		sc = loaded
	}
	return sc.WithCommandLine(opts.Positional), nil
}

func provideSpawner(cfg *config.Config, core *system.Core, logger *zap.Logger) launcher.Spawner {
	breaker := launcher.NewSpawnBreaker(cfg.Spawn.MaxFailures, cfg.Spawn.Cooldown, logger.Named("spawn"))
	return launcher.NewExecSpawner(core, breaker, logger.Named("spawner"))
}

func provideLauncher(cfg *config.Config, core *system.Core, spawner launcher.Spawner, logger *zap.Logger, metrics *monitoring.Metrics) *launcher.Launcher {
	resolver := launcher.NewResolver(cfg.Launcher.Scheme, cfg.Launcher.Root)
	return launcher.New(core, resolver, spawner, logger.Named("launcher"), metrics)
}

func provideManager(core *system.Core, lp *loop.Loop, l *launcher.Launcher, sc *startup.Config, logger *zap.Logger, metrics *monitoring.Metrics) *app.Manager {
	return app.NewManager(core, lp, l, sc.ArgsFor, logger.Named("manager")).WithMetrics(metrics)
}

func provideControlPipe(opts Options, cfg *config.Config, core *system.Core, logger *zap.Logger) (*ControlPipe, error) {
	if opts.LauncherFD >= 0 {
		f := os.NewFile(uintptr(opts.LauncherFD), "launcher")
		h, err := transport.Import(core, f, logger.Named("transport"))
		if err != nil {
			return nil, fmt.Errorf("adopt launcher fd %d: %w", opts.LauncherFD, err)
		}
		return &ControlPipe{Listen: h}, nil
	}

	listen, write, err := core.CreateMessagePipe(nil)
	if err != nil {
		return nil, err
	}
	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}
	return &ControlPipe{Listen: listen, Feed: command.NewFeed(core, write, limiter)}, nil
}

func provideListener(core *system.Core, lp *loop.Loop, m *app.Manager, logger *zap.Logger, metrics *monitoring.Metrics) *command.Listener {
	return command.NewListener(core, lp, m, logger.Named("command")).WithMetrics(metrics)
}
