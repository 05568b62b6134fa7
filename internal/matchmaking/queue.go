package matchmaking

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mode 匹配模式
type Mode string

const (
	ModeRanked Mode = "ranked" // 排位赛，使用Elo积分
	ModeCasual Mode = "casual" // 休闲赛，容差放宽
)

// ValidMode 判断匹配模式是否合法
func ValidMode(m Mode) bool {
	return m == ModeRanked || m == ModeCasual
}

// 匹配参数
const (
	defaultPassInterval  = 500 * time.Millisecond // 匹配轮询间隔
	baseTolerance        = 50.0                   // 入队即刻的积分容差
	tolerancePerSecond   = 10.0                   // 容差随等待每秒扩张量
	maxToleranceRanked   = 250.0                  // 排位容差上限
	maxToleranceCasual   = 400.0                  // 休闲容差上限
	waitBiasCoefficient  = 0.1                    // 配对评分中的等待时长偏置
)

// Ticket 匹配票据，入队时创建
type Ticket struct {
	ID         string
	UserID     uint
	Username   string
	Mode       Mode
	Region     string
	Rating     int
	SpeciesID  string
	EnqueuedAt time.Time
}

// waitSeconds 当前等待秒数
func (t *Ticket) waitSeconds(now time.Time) float64 {
	return now.Sub(t.EnqueuedAt).Seconds()
}

// tolerance 当前积分容差，随等待时长线性扩张，封顶由模式决定
func (t *Ticket) tolerance(now time.Time) float64 {
	maxTol := maxToleranceRanked
	if t.Mode == ModeCasual {
		maxTol = maxToleranceCasual
	}
	return math.Min(maxTol, baseTolerance+t.waitSeconds(now)*tolerancePerSecond)
}

// Pair 一次成功的配对
type Pair struct {
	MatchID string
	Seed    uint32
	A       *Ticket
	B       *Ticket
}

// PairHandler 配对成功回调，在匹配协程中调用，不得长时间阻塞
type PairHandler func(pair Pair)

// queueKey 按（模式, 大区）维护独立队列
type queueKey struct {
	mode   Mode
	region string
}

// Service 匹配服务
// 所有队列操作都在内部互斥锁下进行，配对回调在锁外调用。
type Service struct {
	mu      sync.Mutex
	queues  map[queueKey][]*Ticket
	byUser  map[uint]*Ticket
	handler PairHandler
	logger  *zap.Logger

	passInterval time.Duration
}

// NewService 创建匹配服务
func NewService(handler PairHandler, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		queues:       make(map[queueKey][]*Ticket),
		byUser:       make(map[uint]*Ticket),
		handler:      handler,
		logger:       logger,
		passInterval: defaultPassInterval,
	}
}

// SetPassInterval 调整匹配轮询间隔，需在Start前调用
func (s *Service) SetPassInterval(d time.Duration) {
	if d > 0 {
		s.passInterval = d
	}
}

// Start 启动匹配轮询，ctx取消时停止
func (s *Service) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.passInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("停止匹配轮询")
				return
			case <-ticker.C:
				s.runPass(time.Now())
			}
		}
	}()
}

// Enqueue 入队，同一用户同时只持有一张票据，重复入队替换旧票据
func (s *Service) Enqueue(userID uint, username string, mode Mode, region, speciesID string, rating int) (*Ticket, error) {
	if !ValidMode(mode) {
		return nil, fmt.Errorf("未知匹配模式: %s", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byUser[userID]; ok {
		s.removeLocked(existing)
		s.logger.Info("替换旧匹配票据",
			zap.Uint("user_id", userID),
			zap.String("old_ticket_id", existing.ID))
	}

	ticket := &Ticket{
		ID:         uuid.New().String(),
		UserID:     userID,
		Username:   username,
		Mode:       mode,
		Region:     region,
		Rating:     rating,
		SpeciesID:  speciesID,
		EnqueuedAt: time.Now(),
	}

	key := queueKey{mode: mode, region: region}
	s.queues[key] = append(s.queues[key], ticket)
	s.byUser[userID] = ticket

	s.logger.Info("玩家入队",
		zap.Uint("user_id", userID),
		zap.String("ticket_id", ticket.ID),
		zap.String("mode", string(mode)),
		zap.String("region", region),
		zap.Int("rating", rating))

	return ticket, nil
}

// Cancel 取消排队，返回是否移除了票据
// 票据已被配对消费时返回false，调用方据此区分“取消成功”与“比赛已开始”。
func (s *Service) Cancel(userID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.byUser[userID]
	if !ok {
		return false
	}

	s.removeLocked(ticket)
	s.logger.Info("玩家取消排队",
		zap.Uint("user_id", userID),
		zap.String("ticket_id", ticket.ID))
	return true
}

// RemoveUser 断线清理：移除用户的全部排队状态，幂等
func (s *Service) RemoveUser(userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.byUser[userID]
	if !ok {
		return
	}
	s.removeLocked(ticket)
	s.logger.Info("断线移除排队票据",
		zap.Uint("user_id", userID),
		zap.String("ticket_id", ticket.ID))
}

// InQueue 用户是否在队列中
func (s *Service) InQueue(userID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byUser[userID]
	return ok
}

// QueueDepth 指定队列当前长度
func (s *Service) QueueDepth(mode Mode, region string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues[queueKey{mode: mode, region: region}])
}

// removeLocked 从队列与用户索引移除票据，须持锁调用
func (s *Service) removeLocked(ticket *Ticket) {
	key := queueKey{mode: ticket.Mode, region: ticket.Region}
	queue := s.queues[key]
	for i, t := range queue {
		if t.ID == ticket.ID {
			s.queues[key] = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	if len(s.queues[key]) == 0 {
		delete(s.queues, key)
	}
	delete(s.byUser, ticket.UserID)
}

// runPass 执行一轮配对
// 每个队列按入队时间升序扫描：为最早的票据寻找双方容差都满足的
// 候选，按“积分差 - 0.1×候选等待秒数”取最小者，倾向照顾久等玩家。
func (s *Service) runPass(now time.Time) {
	var pairs []Pair

	s.mu.Lock()
	for _, queue := range s.queues {
		pairs = append(pairs, s.pairQueueLocked(queue, now)...)
	}
	for _, p := range pairs {
		s.removeLocked(p.A)
		s.removeLocked(p.B)
	}
	s.mu.Unlock()

	for _, p := range pairs {
		s.logger.Info("配对成功",
			zap.String("match_id", p.MatchID),
			zap.Uint("user_a", p.A.UserID),
			zap.Uint("user_b", p.B.UserID),
			zap.Int("rating_a", p.A.Rating),
			zap.Int("rating_b", p.B.Rating),
			zap.Float64("wait_a", p.A.waitSeconds(now)),
			zap.Float64("wait_b", p.B.waitSeconds(now)))
		if s.handler != nil {
			s.handler(p)
		}
	}
}

// pairQueueLocked 对单个队列做一轮贪心配对，须持锁调用
func (s *Service) pairQueueLocked(queue []*Ticket, now time.Time) []Pair {
	sorted := make([]*Ticket, len(queue))
	copy(sorted, queue)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EnqueuedAt.Before(sorted[j].EnqueuedAt)
	})

	used := make(map[string]bool)
	var pairs []Pair

	for i, a := range sorted {
		if used[a.ID] {
			continue
		}

		bestIdx := -1
		bestScore := math.MaxFloat64
		for j := i + 1; j < len(sorted); j++ {
			b := sorted[j]
			if used[b.ID] {
				continue
			}
			// 容差只看等待更久一方(a)，新入队者不会拖住老票
			diff := math.Abs(float64(a.Rating - b.Rating))
			if diff > a.tolerance(now) {
				continue
			}
			score := diff - waitBiasCoefficient*b.waitSeconds(now)
			if score < bestScore {
				bestScore = score
				bestIdx = j
			}
		}

		if bestIdx >= 0 {
			b := sorted[bestIdx]
			used[a.ID] = true
			used[b.ID] = true
			pairs = append(pairs, Pair{
				MatchID: uuid.New().String(),
				Seed:    newMatchSeed(),
				A:       a,
				B:       b,
			})
		}
	}

	return pairs
}

// newMatchSeed 生成对战种子，取UUID前4字节
func newMatchSeed() uint32 {
	id := uuid.New()
	return binary.BigEndian.Uint32(id[:4])
}
