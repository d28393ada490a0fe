package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/command"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/launcher"
)

// requestTimeout bounds loop round trips made on behalf of a request.
const requestTimeout = 5 * time.Second

// Instances snapshots the running instances. *app.Manager implements it.
type Instances interface {
	Snapshot(ctx context.Context) ([]app.Info, error)
}

// Catalog lists launchable applications. *launcher.Launcher implements it.
type Catalog interface {
	Catalog(ctx context.Context, pattern string) ([]launcher.Entry, error)
}

// Commands accepts control commands. *command.Feed implements it.
type Commands interface {
	Submit(command string) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	instances Instances
	catalog   Catalog
	commands  Commands
	started   time.Time
	logger    *zap.Logger
}

// NewHandlers creates a new handler set. commands may be nil, which
// disables POST /commands.
func NewHandlers(instances Instances, catalog Catalog, commands Commands, logger *zap.Logger) *Handlers {
	return &Handlers{
		instances: instances,
		catalog:   catalog,
		commands:  commands,
		started:   time.Now(),
		logger:    logger,
	}
}

// Register mounts the handlers on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/apps", h.ListApps)
	r.GET("/apps/available", h.ListAvailable)
	r.POST("/commands", h.SubmitCommand)
}

// Root identifies the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "application manager",
	})
}

// Health reports liveness and the instance count. It fails when the loop
// no longer answers.
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	infos, err := h.instances.Snapshot(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"instances": len(infos),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

// ListApps lists running instances
func (h *Handlers) ListApps(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	infos, err := h.instances.Snapshot(ctx)
	if err != nil {
		h.logger.Warn("Snapshot failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"apps":  infos,
		"count": len(infos),
	})
}

// ListAvailable lists launchable applications, filtered by ?match=
func (h *Handlers) ListAvailable(c *gin.Context) {
	pattern := c.Query("match")
	entries, err := h.catalog.Catalog(c.Request.Context(), pattern)
	if errors.Is(err, doublestar.ErrBadPattern) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Warn("Catalog failed", zap.String("match", pattern), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"apps":  entries,
		"count": len(entries),
	})
}

// CommandRequest is the body of POST /commands.
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// SubmitCommand writes one command into the control pipe. The command
// runs asynchronously; the response only acknowledges it.
func (h *Handlers) SubmitCommand(c *gin.Context) {
	if h.commands == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "control feed disabled"})
		return
	}
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch err := h.commands.Submit(req.Command); {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "command": req.Command})
	case errors.Is(err, command.ErrEmptyCommand):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, command.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Command not delivered", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
}
