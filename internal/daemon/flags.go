package daemon

import (
	"github.com/urfave/cli"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/config"
)

// Flags are shared by the binaries that run the manager.
func Flags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "startup document (JSON, YAML or TOML) with initial apps and args-for",
			EnvVar: "APPMGR_CONFIG",
		},
		cli.IntFlag{
			Name:  "launcher-fd",
			Value: -1,
			Usage: "inherited socket carrying commands from a parent launcher",
		},
		cli.StringFlag{
			Name:  "app-root",
			Usage: "directory application names resolve into",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		cli.BoolFlag{
			Name:  "dev",
			Usage: "development logging",
		},
	}
}

// OptionsFrom layers the command line over the environment configuration.
func OptionsFrom(c *cli.Context) (Options, error) {
	cfg, err := config.Load()
	if err != nil {
		return Options{}, err
	}
	if path := c.String("config"); path != "" {
		cfg.Startup.Path = path
	}
	if root := c.String("app-root"); root != "" {
		cfg.Launcher.Root = root
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if c.Bool("dev") {
		cfg.Logging.Development = true
	}
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	return Options{
		Config:     cfg,
		Positional: c.Args(),
		LauncherFD: c.Int("launcher-fd"),
	}, nil
}
