package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/domain/command"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appmanager/internal/shared/id"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Commands accepts control commands. *command.Feed implements it.
type Commands interface {
	Submit(command string) error
}

// Message is a client frame.
type Message struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
}

// Reply is a server frame.
type Reply struct {
	Type      string `json:"type"`
	Session   string `json:"session,omitempty"`
	Command   string `json:"command,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Handler serves the /control websocket. Each connection is a session
// whose command frames are written into the control pipe.
type Handler struct {
	commands Commands
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a new control feed handler.
func NewHandler(commands Commands, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	return &Handler{commands: commands, metrics: metrics, logger: logger}
}

// HandleConnection upgrades the request and serves one session.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session := id.NewSessionID()
	logger := h.logger.With(zap.String("session", session.String()))
	h.metrics.IncControlSessions()
	defer h.metrics.DecControlSessions()
	logger.Info("Control session opened", zap.String("remote", c.ClientIP()))

	if err := h.send(conn, Reply{Type: "system", Session: session.String()}); err != nil {
		return
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Control session read failed", zap.Error(err))
			}
			break
		}

		var reply Reply
		switch msg.Type {
		case "command":
			reply = h.submit(logger, msg.Command)
		case "ping":
			reply = Reply{Type: "pong"}
		default:
			reply = Reply{Type: "error", Message: "unknown message type"}
		}
		if err := h.send(conn, reply); err != nil {
			break
		}
	}
	logger.Info("Control session closed")
}

func (h *Handler) submit(logger *zap.Logger, cmd string) Reply {
	err := h.commands.Submit(cmd)
	if err == nil {
		logger.Debug("Command accepted", zap.String("command", cmd))
		return Reply{Type: "accepted", Command: cmd}
	}
	if !errors.Is(err, command.ErrEmptyCommand) && !errors.Is(err, command.ErrRateLimited) {
		logger.Error("Command not delivered", zap.String("command", cmd), zap.Error(err))
	}
	return Reply{Type: "error", Command: cmd, Message: err.Error()}
}

func (h *Handler) send(conn *websocket.Conn, reply Reply) error {
	reply.Timestamp = time.Now().Unix()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(reply)
}
