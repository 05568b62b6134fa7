package chat

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wfunc/floran-server/internal/errors"
)

// 频道约束
const (
	LobbyChannel     = "lobby" // 认证成功后自动加入
	MaxMessageLength = 500
)

// Message 频道消息
type Message struct {
	Channel  string    `json:"channel"`
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	Text     string    `json:"message"`
	At       time.Time `json:"at"`
}

// Manager 聊天频道管理器
// 只维护成员关系与消息校验，投递由网关完成。
type Manager struct {
	mu       sync.RWMutex
	channels map[string]map[uint]bool
	logger   *zap.Logger
}

// NewManager 创建聊天管理器
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		channels: map[string]map[uint]bool{
			LobbyChannel: {},
		},
		logger: logger,
	}
}

// Join 加入频道，频道不存在时创建
func (m *Manager) Join(channel string, userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.channels[channel]
	if !ok {
		members = make(map[uint]bool)
		m.channels[channel] = members
	}
	members[userID] = true
}

// Leave 离开频道，幂等
func (m *Manager) Leave(channel string, userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.channels[channel]
	if !ok {
		return
	}
	delete(members, userID)
	// 大厅频道常驻，其余空频道回收
	if len(members) == 0 && channel != LobbyChannel {
		delete(m.channels, channel)
	}
}

// LeaveAll 断线清理：从全部频道移除
func (m *Manager) LeaveAll(userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for channel, members := range m.channels {
		delete(members, userID)
		if len(members) == 0 && channel != LobbyChannel {
			delete(m.channels, channel)
		}
	}
}

// IsMember 用户是否在频道中
func (m *Manager) IsMember(channel string, userID uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members, ok := m.channels[channel]
	return ok && members[userID]
}

// Members 频道成员快照
func (m *Manager) Members(channel string) []uint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members, ok := m.channels[channel]
	if !ok {
		return nil
	}
	out := make([]uint, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// Send 校验并构造频道消息，返回消息与应投递的成员列表
// 发送者必须是频道成员；空消息与超长消息被拒绝。
func (m *Manager) Send(channel string, userID uint, username, text string) (*Message, []uint, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, errors.New(errors.ErrInvalidParam, "消息不能为空")
	}
	// 按字符数而非字节数计长，CJK消息同样允许500字
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, nil, errors.Newf(errors.ErrInvalidParam, "消息长度超过%d", MaxMessageLength)
	}
	if !m.IsMember(channel, userID) {
		return nil, nil, errors.New(errors.ErrPermissionDenied, "不是该频道的成员")
	}

	msg := &Message{
		Channel:  channel,
		UserID:   userID,
		Username: username,
		Text:     text,
		At:       time.Now(),
	}

	m.logger.Debug("频道消息",
		zap.String("channel", channel),
		zap.Uint("user_id", userID))

	return msg, m.Members(channel), nil
}
