package middleware

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig lets any origin read the introspection endpoints and post
// commands; the server binds to loopback unless told otherwise. exposed
// names response headers scripts may read, such as the trace ids.
func CORSConfig(exposed ...string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AddAllowHeaders("Accept", "Cache-Control", "X-Requested-With")
	cfg.ExposeHeaders = exposed
	return cfg
}

// CORS is the middleware for CORSConfig(exposed...).
func CORS(exposed ...string) gin.HandlerFunc {
	return cors.New(CORSConfig(exposed...))
}
