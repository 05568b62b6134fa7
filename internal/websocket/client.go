package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "github.com/wfunc/floran-server/internal/errors"
)

// 错误定义
var (
	ErrClientNotFound   = errors.New("客户端未找到")
	ErrUserNotConnected = errors.New("用户未连接")
	ErrSendBufferFull   = errors.New("发送缓冲区已满")
	ErrClientClosed     = errors.New("客户端已关闭")
)

// WebSocket配置
const (
	// 写超时
	writeWait = 10 * time.Second

	// 空闲超时：超过此时长未收到任何消息则断开
	idleTimeout = 120 * time.Second

	// 空闲心跳阈值：READY连接空闲超过此时长时下发system/ping
	heartbeatIdle = 30 * time.Second

	// 最大上行消息大小
	maxMessageSize = 64 * 1024 // 64KB

	// 出站缓冲上限，超出即断开（慢消费者保护）
	maxOutboundBytes = 1 << 20 // 1MB

	// 限流：滚动1秒窗口内的消息上限
	rateLimitPerSecond = 50

	// 触发限流后的恢复时间
	throttleDuration = 5 * time.Second
)

// Client 单个WebSocket连接
// 认证前只记录连接本身，认证成功后由网关填充用户信息并绑定到Hub的用户索引。
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	UserID    uint
	Username  string
	SessionID string
	Role      string

	state    int32 // ConnState
	lastSeen int64 // UnixNano
	outBytes int64

	// sendMu 保证序号分配与入队的原子性，下行seq严格按入队顺序递增
	sendMu sync.Mutex
	seq    uint64

	rateMu         sync.Mutex
	windowStart    time.Time
	windowCount    int
	throttledUntil time.Time

	matchMu sync.Mutex
	matchID string

	closeOnce sync.Once
}

// NewClient 创建新客户端，初始状态为AUTHENTICATING
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		ID:    uuid.New().String(),
		Hub:   hub,
		Conn:  conn,
		Send:  make(chan []byte, 256),
		state: int32(StateAuthenticating),
	}
	c.touch()
	return c
}

// State 当前连接状态
func (c *Client) State() ConnState {
	return ConnState(atomic.LoadInt32(&c.state))
}

func (c *Client) setState(s ConnState) {
	atomic.StoreInt32(&c.state, int32(s))
}

// touch 刷新最后活跃时间
func (c *Client) touch() {
	atomic.StoreInt64(&c.lastSeen, time.Now().UnixNano())
}

// IdleFor 距最后一次收到消息的时长
func (c *Client) IdleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, atomic.LoadInt64(&c.lastSeen)))
}

// MatchID 当前绑定的对局ID，空串表示不在对局中
func (c *Client) MatchID() string {
	c.matchMu.Lock()
	defer c.matchMu.Unlock()
	return c.matchID
}

// SetMatchID 绑定/解绑对局
func (c *Client) SetMatchID(id string) {
	c.matchMu.Lock()
	c.matchID = id
	c.matchMu.Unlock()
}

// allowMessage 限流检查：滚动1秒窗口内超过上限进入THROTTLED，
// 期间丢弃非心跳消息，窗口到期自动恢复READY。
// 返回值：(是否放行, 是否刚刚触发限流)
func (c *Client) allowMessage(now time.Time, msgType string) (bool, bool) {
	if msgType == MsgSystemPong {
		return true, false
	}

	c.rateMu.Lock()
	defer c.rateMu.Unlock()

	if !c.throttledUntil.IsZero() {
		if now.Before(c.throttledUntil) {
			return false, false
		}
		// 限流期结束，恢复READY
		c.throttledUntil = time.Time{}
		c.windowStart = now
		c.windowCount = 0
		if c.State() == StateThrottled {
			c.setState(StateReady)
		}
	}

	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	c.windowCount++
	if c.windowCount > rateLimitPerSecond {
		c.throttledUntil = now.Add(throttleDuration)
		if c.State() == StateReady {
			c.setState(StateThrottled)
		}
		return false, true
	}
	return true, false
}

// SendEnvelope 封装并投递一条下行消息
// 出站缓冲超过上限视为慢消费者，直接断开连接。
func (c *Client) SendEnvelope(msgType string, payload interface{}) error {
	if c.State() == StateClosed || c.State() == StateClosing {
		return ErrClientClosed
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = data
	}

	// 序号分配到入队须原子，否则并发发送方可能乱序入队
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.seq++
	env := Envelope{
		ID:      uuid.New().String(),
		Seq:     c.seq,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Type:    msgType,
		Payload: raw,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	if atomic.AddInt64(&c.outBytes, int64(len(data))) > maxOutboundBytes {
		c.Hub.logger.Warn("出站缓冲超限，断开慢消费者",
			zap.String("client_id", c.ID),
			zap.Uint("user_id", c.UserID))
		c.Close()
		return ErrSendBufferFull
	}

	select {
	case c.Send <- data:
		return nil
	default:
		c.Hub.logger.Warn("发送通道已满，断开连接",
			zap.String("client_id", c.ID),
			zap.Uint("user_id", c.UserID))
		c.Close()
		return ErrSendBufferFull
	}
}

// SendError 发送业务错误
func (c *Client) SendError(code apperrors.ErrorCode, message string) {
	c.SendEnvelope(MsgError, &ErrorPayload{Code: int(code), Message: message})
}

// ReadPump 读取消息，连接生命周期内独占一个协程
func (c *Client) ReadPump() {
	defer func() {
		c.Close()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(idleTimeout))

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Error("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			break
		}

		c.touch()
		c.Conn.SetReadDeadline(time.Now().Add(idleTimeout))

		if c.Hub.handler != nil {
			c.Hub.handler.HandleClientMessage(c, message)
		}
	}
}

// WritePump 写入消息，批量冲刷Send通道
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		written := int64(len(message))

		// 批量发送队列中的消息
		n := len(c.Send)
		for i := 0; i < n; i++ {
			next := <-c.Send
			w.Write([]byte{'\n'})
			w.Write(next)
			written += int64(len(next))
		}
		atomic.AddInt64(&c.outBytes, -written)

		if err := w.Close(); err != nil {
			return
		}
	}

	// Hub关闭了通道
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.setState(StateClosing)
		c.Hub.unregister <- c
	})
}
