package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsInert(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordLaunch(StrategyProcess, ResultSuccess)
		m.SetInstancesActive(3)
		m.IncTerminations()
		m.RecordConnection(ResultFailure)
		m.IncCommands()
		m.IncControlSessions()
		m.DecControlSessions()
	})
}

func TestRecordLaunch(t *testing.T) {
	m := NewMetrics()
	m.RecordLaunch(StrategyContentHandler, ResultSuccess)
	m.RecordLaunch(StrategyContentHandler, ResultSuccess)
	m.RecordLaunch(StrategyProcess, ResultFailure)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Launches.WithLabelValues(StrategyContentHandler, ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Launches.WithLabelValues(StrategyProcess, ResultFailure)))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.IncCommands()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Commands))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Commands))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `appmgr_http_requests_total{method="GET",path="/health",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "appmgr_uptime_seconds")
}
