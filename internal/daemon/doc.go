// Package daemon assembles the application manager with fx.
//
// Key Components:
//   - Module: the fx graph (kernel core, loop, launcher, manager, command
//     listener, HTTP and gRPC surfaces)
//   - Options: command line inputs layered over the environment config
//
// The loop goroutine is started in an OnStart hook; everything that
// touches the manager afterwards goes through loop.Invoke or Manager.Post.
//
// Example Usage:
//
//	app := fx.New(daemon.Module(daemon.Options{
//		Config:     config.LoadOrDefault(),
//		Positional: []string{"mojo:hello", "--greeting=hi"},
//		LauncherFD: -1,
//	}))
//	app.Run()
package daemon
