// Package middleware provides gin middleware shared by the HTTP
// introspection server and the websocket control feed: CORS and per-client
// rate limiting.
package middleware
