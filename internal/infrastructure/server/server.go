package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/appmanager/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/tracing"
)

// Deps are the domain objects the HTTP surface reads from and writes to.
// Commands may be nil, which disables POST /commands and /control.
type Deps struct {
	Instances apihttp.Instances
	Catalog   apihttp.Catalog
	Commands  apihttp.Commands
	Metrics   *monitoring.Metrics
	Tracer    *tracing.Tracer
	Logger    *zap.Logger
}

// Server is the HTTP introspection and control server
type Server struct {
	router *gin.Engine
	http   *http.Server
	addr   string
	logger *zap.Logger
}

// New builds the router
func New(cfg *config.Config, deps Deps) *Server {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	if deps.Tracer != nil {
		router.Use(tracing.HTTPMiddleware(deps.Tracer))
	}
	router.Use(monitoring.Middleware(deps.Metrics))
	router.Use(middleware.CORS(tracing.TraceHeader, tracing.SpanHeader))
	if cfg.RateLimit.Enabled {
		deps.Logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	apihttp.NewHandlers(deps.Instances, deps.Catalog, deps.Commands, deps.Logger.Named("http")).Register(router)
	if deps.Commands != nil {
		router.GET("/control", ws.NewHandler(deps.Commands, deps.Metrics, deps.Logger.Named("ws")).HandleConnection)
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	return &Server{
		router: router,
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		addr:   addr,
		logger: deps.Logger,
	}
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the configured listen address
func (s *Server) Addr() string {
	return s.addr
}

// Serve accepts connections on lis until Shutdown.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", lis.Addr().String()))
	if err := s.http.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}
