// Package command turns datagrams on a control pipe into application
// launches.
//
// Each message is a UTF-8 command line: the first whitespace separated
// token names the application and the remaining tokens become its
// arguments. Nothing is sent back on the pipe.
//
// Key Components:
//   - Listener: reads commands on the manager loop
//   - Feed: writes commands from other goroutines, optionally rate limited
//
// Example Usage:
//
//	listener := command.NewListener(core, lp, manager, logger)
//	lp.PostTask(func() { listener.StartListening(controlPipe) })
//
//	feed := command.NewFeed(core, controlWriter, rate.NewLimiter(50, 100))
//	err := feed.Submit("mojo:hello --verbose")
package command
