package telemetry

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// 事件名
const (
	EventMatchEnded    = "MatchEnded"
	EventMatchStarted  = "MatchStarted"
	EventPlayerQueued  = "PlayerQueued"
	EventRewardGranted = "RewardGranted"
)

// Event 遥测事件
type Event struct {
	Name   string                 `json:"name"`
	At     time.Time              `json:"at"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// Sink 进程内遥测缓冲：有界事件环 + 单调递增计数器
type Sink struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	counters map[string]int64
	logger   *zap.Logger
}

// NewSink 创建遥测缓冲，capacity<=0时取默认1000
func NewSink(capacity int, logger *zap.Logger) *Sink {
	if capacity <= 0 {
		capacity = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{
		capacity: capacity,
		counters: make(map[string]int64),
		logger:   logger,
	}
}

// Emit 记录事件，超出容量时淘汰最旧的事件
func (s *Sink) Emit(name string, fields map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, Event{
		Name:   name,
		At:     time.Now(),
		Fields: fields,
	})
	if len(s.events) > s.capacity {
		s.events = s.events[len(s.events)-s.capacity:]
	}

	s.logger.Debug("遥测事件", zap.String("name", name))
}

// Inc 命名计数器自增
func (s *Sink) Inc(counter string) {
	s.IncBy(counter, 1)
}

// IncBy 命名计数器增加指定值
func (s *Sink) IncBy(counter string, delta int64) {
	if delta <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counter] += delta
}

// Counter 读取计数器当前值
func (s *Sink) Counter(counter string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[counter]
}

// Counters 返回全部计数器的快照
func (s *Sink) Counters() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}

// Events 返回事件快照（最旧在前）
func (s *Sink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
