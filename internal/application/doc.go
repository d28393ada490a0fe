// Package application is the runtime linked into launched applications.
//
// A launched process finds its application request pipe at file descriptor
// 3. Run adopts it, waits for Application.Initialize and dispatches
// connections to a Handler on a loop until the manager asks the
// application to quit or closes the pipe.
//
// Key Components:
//   - App: the Application side of the request pipe
//   - Shell: client for the manager's Shell service
//   - Serve, ServeServices, ServeContentHandler: message pumps for the
//     pipes an application is handed
//
// Example Usage:
//
//	type hello struct{}
//
//	func (hello) Initialize(app *application.App) {
//		fmt.Println("hello from", app.URL(), app.Args())
//	}
//
//	func (hello) AcceptConnection(app *application.App, conn application.Connection) {
//		app.Core.Close(conn.Services)
//	}
//
//	func main() {
//		if err := application.Run(context.Background(), hello{}, logger); err != nil {
//			os.Exit(1)
//		}
//	}
package application
