package liveops

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event 运营活动，激活期内对指定模式生效倍率
type Event struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Modes        []string  `json:"modes"` // 为空表示全模式生效
	XPMultiplier float64   `json:"xp_multiplier"`
	BCMultiplier float64   `json:"bc_multiplier"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
}

// active 活动当前是否生效
func (e *Event) active(now time.Time) bool {
	return !now.Before(e.StartsAt) && now.Before(e.EndsAt)
}

// appliesTo 活动是否覆盖指定模式
func (e *Event) appliesTo(mode string) bool {
	if len(e.Modes) == 0 {
		return true
	}
	for _, m := range e.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Service 运营活动服务，奖励结算只读取倍率
type Service struct {
	mu     sync.RWMutex
	events []Event
	logger *zap.Logger
}

// NewService 创建运营活动服务
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// SetEvents 替换活动表
func (s *Service) SetEvents(events []Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make([]Event, len(events))
	copy(s.events, events)
	s.logger.Info("更新运营活动表", zap.Int("count", len(events)))
}

// ActiveEvents 返回当前生效的活动
func (s *Service) ActiveEvents() []Event {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.events {
		if e.active(now) {
			out = append(out, e)
		}
	}
	return out
}

// XPMultiplier 指定模式的当前经验倍率，无活动时为1.0
// 多个活动同时生效时取乘积。
func (s *Service) XPMultiplier(mode string) float64 {
	return s.multiplier(mode, func(e *Event) float64 { return e.XPMultiplier })
}

// BCMultiplier 指定模式的当前生物币倍率，无活动时为1.0
func (s *Service) BCMultiplier(mode string) float64 {
	return s.multiplier(mode, func(e *Event) float64 { return e.BCMultiplier })
}

func (s *Service) multiplier(mode string, pick func(*Event) float64) float64 {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	mult := 1.0
	for i := range s.events {
		e := &s.events[i]
		if !e.active(now) || !e.appliesTo(mode) {
			continue
		}
		if v := pick(e); v > 0 {
			mult *= v
		}
	}
	return mult
}
