// Package app tracks running applications and brokers connections between
// them.
//
// Key Components:
//   - Table: at most one Instance per application name
//   - Instance: the manager's side of one running application
//   - Manager: initialization, connections and content handler delegation
//   - Shell: the per-instance service applications use to reach others
//
// Everything in this package runs on the manager's loop goroutine. Other
// goroutines reach the manager through loop.Invoke or Manager.Post.
//
// Example Usage:
//
//	manager := app.NewManager(core, lp, l, argsFor, logger).WithMetrics(metrics)
//	lp.PostTask(func() {
//		if !manager.StartInitialApplication("mojo:hello") {
//			logger.Error("Unable to start initial application")
//		}
//	})
package app
