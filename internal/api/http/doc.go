// Package http serves the application manager's introspection API.
//
// Routes:
//   - GET /health: liveness and instance count
//   - GET /apps: running instances
//   - GET /apps/available?match=: launchable applications under the root
//   - POST /commands: submit a control command
package http
