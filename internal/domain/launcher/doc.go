// Package launcher turns application names into running applications.
//
// A name such as "mojo:hello" resolves to a path under the application
// root. If the file at that path starts with a "#!mojo <handler>" line, the
// launch is delegated to the named content handler application together
// with a response whose body streams the file. Otherwise the file is
// executed as a new process that receives the application request pipe at
// file descriptor 3.
//
// Key Components:
//   - Resolver: scheme and root based name resolution
//   - Launcher: content handler detection and process launch
//   - ExecSpawner: os/exec based Spawner behind a circuit breaker
//   - Catalog: listing of launchable names under the root
//
// Example Usage:
//
//	spawner := launcher.NewExecSpawner(core, breaker, logger)
//	l := launcher.New(core, launcher.DefaultResolver(), spawner, logger, metrics)
//	ok, proc := l.Launch(manager, "mojo:hello", request)
package launcher
