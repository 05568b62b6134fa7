package websocket

import (
	"encoding/json"
	"time"

	"github.com/wfunc/floran-server/internal/battle"
	"github.com/wfunc/floran-server/internal/rewards"
)

// ConnState 连接状态机
// AUTHENTICATING → READY ↔ THROTTLED → CLOSING → CLOSED
type ConnState int32

const (
	StateAuthenticating ConnState = iota
	StateReady
	StateThrottled
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateReady:
		return "READY"
	case StateThrottled:
		return "THROTTLED"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// 客户端→服务端消息类型
const (
	MsgAuthHello        = "auth/hello"
	MsgMatchQueue       = "match/queue"
	MsgMatchCancelQueue = "match/cancelQueue"
	MsgMatchCommand     = "match/command"
	MsgChatSend         = "chat/send"
	MsgSystemPong       = "system/pong"
)

// 服务端→客户端消息类型
const (
	MsgAuthOK      = "auth/ok"
	MsgAuthError   = "auth/error"
	MsgMatchQueued = "match/queued"
	MsgMatchFound  = "match/found"
	MsgMatchState  = "match/state"
	MsgMatchResult = "match/result"
	MsgChatMessage = "chat/message"
	MsgError       = "error"
	MsgSystemPing  = "system/ping"
)

// Envelope 统一消息信封
// 服务端下行消息的seq按连接严格递增，ts为ISO-8601时间戳。
type Envelope struct {
	ID      string          `json:"id"`
	Seq     uint64          `json:"seq,omitempty"`
	TS      string          `json:"ts,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HelloPayload 认证请求，sessionId用于断线重连
type HelloPayload struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId,omitempty"`
}

// AuthOKPayload 认证成功
type AuthOKPayload struct {
	UserID    uint   `json:"userId"`
	SessionID string `json:"sessionId"`
}

// QueuePayload 入队请求
type QueuePayload struct {
	Mode       string `json:"mode"`
	SpeciesID  string `json:"speciesId,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// CancelQueuePayload 取消排队
type CancelQueuePayload struct {
	Mode string `json:"mode"`
}

// QueuedPayload 入队确认
type QueuedPayload struct {
	Mode string `json:"mode"`
}

// FoundPayload 配对成功，PVE对局无对手ID
type FoundPayload struct {
	MatchID  string `json:"matchId"`
	Mode     string `json:"mode"`
	Opponent uint   `json:"opponent,omitempty"`
}

// WireCommand 回合指令
type WireCommand struct {
	Type        string `json:"type"`
	TargetIndex int    `json:"targetIndex,omitempty"`
	ItemID      string `json:"itemId,omitempty"`
	SkillID     string `json:"skillId,omitempty"`
}

// CommandPayload 提交回合指令
type CommandPayload struct {
	MatchID string      `json:"matchId"`
	Command WireCommand `json:"command"`
}

// StatePayload 对局状态快照
type StatePayload struct {
	MatchID string           `json:"matchId"`
	State   battle.MatchView `json:"state"`
}

// ResultPayload 终局结果，对局内最后一条消息
type ResultPayload struct {
	MatchID string                 `json:"matchId"`
	State   battle.MatchView       `json:"state"`
	Rewards []rewards.PlayerReward `json:"rewards,omitempty"`
}

// ChatSendPayload 发送聊天
type ChatSendPayload struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

// ChatMessagePayload 聊天消息广播
type ChatMessagePayload struct {
	Channel  string    `json:"channel"`
	UserID   uint      `json:"userId"`
	Username string    `json:"username"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// ErrorPayload 错误下行
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
