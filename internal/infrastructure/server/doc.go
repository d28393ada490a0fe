// Package server assembles the gin router for the application manager:
// tracing, metrics, CORS and rate limiting middleware in front of the
// introspection handlers, the websocket control feed and /metrics.
package server
