package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func serve(router *gin.Engine, method, remote, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/apps", nil)
	req.RemoteAddr = remote
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	router := setupTestRouter()
	router.Use(CORS("X-Trace-ID"))
	router.GET("/apps", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"apps": []string{}})
	})

	tests := []struct {
		name           string
		method         string
		origin         string
		wantStatus     int
		wantCORSHeader bool
	}{
		{
			name:           "simple GET request with origin",
			method:         "GET",
			origin:         "http://localhost:3000",
			wantStatus:     http.StatusOK,
			wantCORSHeader: true,
		},
		{
			name:           "preflight OPTIONS request",
			method:         "OPTIONS",
			origin:         "http://localhost:3000",
			wantStatus:     http.StatusNoContent,
			wantCORSHeader: true,
		},
		{
			name:       "no origin header",
			method:     "GET",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.method, "127.0.0.1:1234", tt.origin)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCORSHeader {
				assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 2, Burst: 2}))
	router.GET("/apps", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := serve(router, "GET", "192.168.1.1:1234", "")
		assert.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i+1)
	}

	w := serve(router, "GET", "192.168.1.1:1234", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimitDifferentClients(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))
	router.GET("/apps", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, "GET", "192.168.1.1:1234", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, "GET", "192.168.1.2:1234", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, "GET", "192.168.1.1:1234", "").Code)
}

func TestRateLimitForgetsIdleClients(t *testing.T) {
	l := newLimiters(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.Equal(t, 2, l.size())

	now = now.Add(2 * time.Minute)
	assert.True(t, l.allow("10.0.0.3"))
	assert.Equal(t, 1, l.size())
}

func TestGlobalRateLimit(t *testing.T) {
	router := setupTestRouter()
	router.Use(GlobalRateLimit(RateLimitConfig{RequestsPerSecond: 2, Burst: 2}))
	router.GET("/apps", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, "GET", "192.168.1.1:1234", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, "GET", "192.168.1.2:1234", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, "GET", "192.168.1.3:1234", "").Code)
}

func TestDefaultConfigs(t *testing.T) {
	cors := CORSConfig("X-Trace-ID")
	assert.True(t, cors.AllowAllOrigins)
	assert.Contains(t, cors.AllowMethods, "POST")
	assert.NotContains(t, cors.AllowMethods, "DELETE")
	assert.Contains(t, cors.AllowHeaders, "Content-Type")
	assert.Contains(t, cors.AllowHeaders, "Accept")
	assert.Equal(t, []string{"X-Trace-ID"}, cors.ExposeHeaders)
	assert.False(t, cors.AllowCredentials)
	assert.Equal(t, 12*time.Hour, cors.MaxAge)
	assert.NoError(t, cors.Validate())

	rl := DefaultRateLimitConfig()
	assert.Equal(t, 50, rl.RequestsPerSecond)
	assert.Equal(t, 100, rl.Burst)
}
