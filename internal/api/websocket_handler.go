package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	ws "github.com/wfunc/floran-server/internal/websocket"
)

// WebSocketHandler WebSocket处理器，连接升级后认证走 auth/hello 消息
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, readBufferSize, writeBufferSize int, logger *zap.Logger) *WebSocketHandler {
	if readBufferSize <= 0 {
		readBufferSize = 1024
	}
	if writeBufferSize <= 0 {
		writeBufferSize = 1024
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				// 在生产环境中应该检查Origin
				return true
			},
		},
		logger: logger,
	}
}

// Serve 升级连接并挂入Hub，身份在第一条 auth/hello 消息中校验
func (h *WebSocketHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败",
			zap.String("ip", c.ClientIP()),
			zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.String("ip", c.ClientIP()))
}

// OnlineCount 获取在线人数
func (h *WebSocketHandler) OnlineCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"online_count": h.hub.OnlineCount(),
		"online_users": h.hub.OnlineUsers(),
	})
}
