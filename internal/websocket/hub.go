package websocket

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MessageHandler 上行消息与连接事件的处理器，由网关实现
type MessageHandler interface {
	HandleClientMessage(c *Client, data []byte)
	HandleDisconnect(c *Client)
}

// Hub WebSocket连接管理中心
// 维护连接池与用户索引，并定期巡检空闲连接下发应用层心跳。
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 用户ID到客户端的映射，认证成功后才建立
	userClients map[uint][]*Client
	userMu      sync.RWMutex

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	handler MessageHandler

	logger *zap.Logger
}

// NewHub 创建Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		userClients: make(map[uint][]*Client),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		logger:      logger,
	}
}

// SetHandler 设置消息处理器，必须在Run之前调用
func (h *Hub) SetHandler(handler MessageHandler) {
	h.handler = handler
}

// Run 运行Hub事件循环
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(heartbeatIdle)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case now := <-ticker.C:
			h.sweep(now)

		case <-ctx.Done():
			h.logger.Info("Hub停止运行")
			h.closeAll()
			return
		}
	}
}

// Register 注册新连接
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// registerClient 处理客户端注册，此时尚未认证，不进用户索引
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("客户端已连接",
		zap.String("client_id", client.ID),
		zap.Int("total_clients", h.OnlineCount()))
}

// BindUser 认证成功后将连接挂入用户索引
func (h *Hub) BindUser(client *Client) {
	h.userMu.Lock()
	h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
	h.userMu.Unlock()

	h.logger.Info("用户连接已绑定",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", client.UserID),
		zap.String("session_id", client.SessionID))
}

// unregisterClient 处理客户端注销
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	h.clientsMu.Unlock()

	if client.UserID != 0 {
		h.userMu.Lock()
		conns := h.userClients[client.UserID]
		for i, c := range conns {
			if c.ID == client.ID {
				h.userClients[client.UserID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.userClients[client.UserID]) == 0 {
			delete(h.userClients, client.UserID)
		}
		h.userMu.Unlock()
	}

	client.setState(StateClosed)
	close(client.Send)

	if h.handler != nil {
		h.handler.HandleDisconnect(client)
	}

	h.logger.Info("客户端已断开",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", client.UserID),
		zap.Int("total_clients", h.OnlineCount()))
}

// sweep 空闲巡检：READY连接空闲超阈值下发心跳，超时连接直接断开
func (h *Hub) sweep(now time.Time) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		idle := c.IdleFor(now)
		switch {
		case idle >= idleTimeout:
			h.logger.Info("连接空闲超时，断开",
				zap.String("client_id", c.ID),
				zap.Uint("user_id", c.UserID),
				zap.Duration("idle", idle))
			c.Close()
		case idle >= heartbeatIdle && c.State() == StateReady:
			c.SendEnvelope(MsgSystemPing, nil)
		}
	}
}

// closeAll 停机时关闭全部连接
func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for id, c := range h.clients {
		c.setState(StateClosed)
		close(c.Send)
		delete(h.clients, id)
	}
	h.userMu.Lock()
	h.userClients = make(map[uint][]*Client)
	h.userMu.Unlock()
}

// SendToUser 向某用户的全部连接投递消息
func (h *Hub) SendToUser(userID uint, msgType string, payload interface{}) error {
	h.userMu.RLock()
	conns := make([]*Client, len(h.userClients[userID]))
	copy(conns, h.userClients[userID])
	h.userMu.RUnlock()

	if len(conns) == 0 {
		return ErrUserNotConnected
	}
	for _, c := range conns {
		c.SendEnvelope(msgType, payload)
	}
	return nil
}

// IsUserOnline 用户是否有在线连接
func (h *Hub) IsUserOnline(userID uint) bool {
	h.userMu.RLock()
	defer h.userMu.RUnlock()
	return len(h.userClients[userID]) > 0
}

// OnlineCount 当前连接数
func (h *Hub) OnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// OnlineUsers 当前在线用户ID列表
func (h *Hub) OnlineUsers() []uint {
	h.userMu.RLock()
	defer h.userMu.RUnlock()
	users := make([]uint, 0, len(h.userClients))
	for id := range h.userClients {
		users = append(users, id)
	}
	return users
}
