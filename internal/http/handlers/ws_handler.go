package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/infrastructure/realtime"
	"go.uber.org/zap"
)

// WSHandler upgrades authenticated callers onto the realtime hub
type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewWSHandler creates a websocket handler. An empty origin list accepts any origin.
func NewWSHandler(hub *realtime.Hub, allowedOrigins []string, logger *logger.Logger) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return len(allowed) == 0 || allowed[r.Header.Get("Origin")]
			},
		},
		logger: logger,
	}
}

// Connect subscribes the caller to its user channel and, with ?game_id=, to a game room
// @Summary Realtime events
// @Description Websocket stream of ball-drawn, bingo-winner, balance and request status events
// @Tags realtime
// @Security BearerAuth
// @Param token query string false "JWT when headers cannot be set"
// @Param game_id query int false "Game to watch"
// @Router /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	rooms := []string{realtime.UserRoom(userID)}
	if raw := c.Query("game_id"); raw != "" {
		gameID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || gameID <= 0 {
			_ = c.Error(domain.NewValidationError("game_id", "must be a positive integer"))
			return
		}
		rooms = append(rooms, realtime.GameRoom(gameID))
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Int64("userID", userID), zap.Error(err))
		return
	}

	client := realtime.NewClient(userID, conn)
	h.hub.Register(client, rooms...)
	h.logger.Debug("Websocket connected", zap.Int64("userID", userID), zap.Strings("rooms", rooms))

	go client.WritePump()
	client.ReadPump(func() { h.hub.Unregister(client) })
}
