package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Launch strategies and results used as label values.
const (
	StrategyProcess        = "process"
	StrategyContentHandler = "content_handler"
	StrategyUnresolved     = "unresolved"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// Application metrics
	InstancesActive prometheus.Gauge
	Launches        *prometheus.CounterVec
	Terminations    prometheus.Counter
	Connections     *prometheus.CounterVec

	// Control metrics
	Commands        prometheus.Counter
	ControlSessions prometheus.Gauge

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	m := &Metrics{
		Registry:  reg,
		startTime: time.Now(),

		InstancesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "appmgr_instances_active",
			Help: "Number of application instances in the table",
		}),
		Launches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "appmgr_launches_total",
			Help: "Launch attempts by strategy and result",
		}, []string{"strategy", "result"}),
		Terminations: factory.NewCounter(prometheus.CounterOpts{
			Name: "appmgr_terminations_total",
			Help: "Instances removed after their application pipe closed",
		}),
		Connections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "appmgr_connections_total",
			Help: "ConnectToApplication requests by result",
		}, []string{"result"}),
		Commands: factory.NewCounter(prometheus.CounterOpts{
			Name: "appmgr_commands_total",
			Help: "Commands received on control pipes",
		}),
		ControlSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "appmgr_control_sessions",
			Help: "Open websocket control sessions",
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "appmgr_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "appmgr_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method", "path"}),
	}

	m.Uptime = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "appmgr_uptime_seconds",
		Help: "Seconds since the manager started",
	}, func() float64 {
		return time.Since(m.startTime).Seconds()
	})

	return m
}

// RecordLaunch counts one launch attempt.
func (m *Metrics) RecordLaunch(strategy, result string) {
	if m == nil {
		return
	}
	m.Launches.WithLabelValues(strategy, result).Inc()
}

// SetInstancesActive records the current table size.
func (m *Metrics) SetInstancesActive(count int) {
	if m == nil {
		return
	}
	m.InstancesActive.Set(float64(count))
}

// IncTerminations counts an instance removed on peer closure.
func (m *Metrics) IncTerminations() {
	if m == nil {
		return
	}
	m.Terminations.Inc()
}

// RecordConnection counts a ConnectToApplication request.
func (m *Metrics) RecordConnection(result string) {
	if m == nil {
		return
	}
	m.Connections.WithLabelValues(result).Inc()
}

// IncCommands counts a command read from a control pipe.
func (m *Metrics) IncCommands() {
	if m == nil {
		return
	}
	m.Commands.Inc()
}

// IncControlSessions and DecControlSessions track websocket sessions.
func (m *Metrics) IncControlSessions() {
	if m == nil {
		return
	}
	m.ControlSessions.Inc()
}

func (m *Metrics) DecControlSessions() {
	if m == nil {
		return
	}
	m.ControlSessions.Dec()
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
