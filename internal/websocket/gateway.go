package websocket

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wfunc/floran-server/internal/battle"
	"github.com/wfunc/floran-server/internal/chat"
	apperrors "github.com/wfunc/floran-server/internal/errors"
	"github.com/wfunc/floran-server/internal/matchmaking"
	"github.com/wfunc/floran-server/internal/models"
	"github.com/wfunc/floran-server/internal/repository"
	"github.com/wfunc/floran-server/internal/rewards"
	"github.com/wfunc/floran-server/internal/telemetry"
)

// 对局时限
const (
	// PVP双方指令收集窗口，超时方按默认攻击处理
	commandBarrierTimeout = 30 * time.Second

	// 断线重连宽限期
	disconnectGrace = 30 * time.Second

	// PVE机器人默认植物
	defaultSpeciesID = "sunflower"
)

// Identity 认证通过后的用户身份
type Identity struct {
	UserID    uint
	Username  string
	SessionID string
	Role      string
}

// TokenValidator 令牌校验，由认证服务实现
// 被封禁/冻结的账号返回对应的业务错误。
type TokenValidator interface {
	Validate(ctx context.Context, token, sessionID string) (*Identity, error)
}

// matchParticipant 对局参与者
type matchParticipant struct {
	UserID    uint
	Username  string
	SpeciesID string
	IsBot     bool
}

// matchRecord 一场进行中的对局
// 所有引擎访问都在mu保护下串行执行。
type matchRecord struct {
	ID           string
	Mode         string
	Engine       *battle.Match
	Participants [2]matchParticipant
	Difficulty   battle.AIDifficulty
	CreatedAt    time.Time

	mu      sync.Mutex
	pending map[int]battle.Command
	barrier *time.Timer
	grace   map[uint]*time.Timer
	done    bool
}

// channelName 对局聊天频道
func (r *matchRecord) channelName() string {
	return "match:" + r.ID
}

// participantIndex 用户在对局中的下标，不在局中返回-1
func (r *matchRecord) participantIndex(userID uint) int {
	for i, p := range r.Participants {
		if !p.IsBot && p.UserID == userID {
			return i
		}
	}
	return -1
}

// Gateway WebSocket会话网关
// 负责认证、限流、对局指令路由、聊天投递与断线处理。
type Gateway struct {
	hub        *Hub
	matchmaker *matchmaking.Service
	dispatcher *rewards.Dispatcher
	chat       *chat.Manager
	repos      *repository.Manager
	tokens     TokenValidator
	sink       *telemetry.Sink
	logger     *zap.Logger

	matchesMu sync.RWMutex
	matches   map[string]*matchRecord
	userMatch map[uint]string
}

// NewGateway 创建网关并注册为Hub的消息处理器
// 匹配服务因回调依赖网关自身，需在构造后通过AttachMatchmaker注入。
func NewGateway(hub *Hub, dispatcher *rewards.Dispatcher, chatMgr *chat.Manager, repos *repository.Manager, tokens TokenValidator, sink *telemetry.Sink, logger *zap.Logger) *Gateway {
	g := &Gateway{
		hub:        hub,
		dispatcher: dispatcher,
		chat:       chatMgr,
		repos:      repos,
		tokens:     tokens,
		sink:       sink,
		logger:     logger,
		matches:    make(map[string]*matchRecord),
		userMatch:  make(map[uint]string),
	}
	hub.SetHandler(g)
	return g
}

// AttachMatchmaker 注入匹配服务
func (g *Gateway) AttachMatchmaker(mm *matchmaking.Service) {
	g.matchmaker = mm
}

// HandleClientMessage 处理上行消息
func (g *Gateway) HandleClientMessage(c *Client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		c.SendError(apperrors.ErrMessageFormat, "消息格式错误")
		return
	}

	allowed, justThrottled := c.allowMessage(time.Now(), env.Type)
	if !allowed {
		if justThrottled {
			g.logger.Warn("连接触发限流",
				zap.String("client_id", c.ID),
				zap.Uint("user_id", c.UserID))
			c.SendError(apperrors.ErrThrottled, "消息频率超限，请稍后重试")
		}
		return
	}

	if env.Type == MsgSystemPong {
		return
	}

	if env.Type == MsgAuthHello {
		g.handleHello(c, env.Payload)
		return
	}

	if c.State() != StateReady || c.UserID == 0 {
		c.SendError(apperrors.ErrNotReady, "连接未就绪，请先认证")
		return
	}

	switch env.Type {
	case MsgMatchQueue:
		g.handleQueue(c, env.Payload)
	case MsgMatchCancelQueue:
		g.handleCancelQueue(c, env.Payload)
	case MsgMatchCommand:
		g.handleCommand(c, env.Payload)
	case MsgChatSend:
		g.handleChat(c, env.Payload)
	default:
		c.SendError(apperrors.ErrUnknownType, "不支持的消息类型: "+env.Type)
	}
}

// handleHello 认证握手，成功后进入READY并加入大厅频道
func (g *Gateway) handleHello(c *Client, raw json.RawMessage) {
	if c.State() != StateAuthenticating {
		c.SendError(apperrors.ErrAlreadyExists, "连接已认证")
		return
	}

	var payload HelloPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Token == "" {
		c.SendEnvelope(MsgAuthError, &ErrorPayload{
			Code:    int(apperrors.ErrTokenInvalid),
			Message: "缺少有效令牌",
		})
		c.Close()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	identity, err := g.tokens.Validate(ctx, payload.Token, payload.SessionID)
	if err != nil {
		// 认证失败一律断开：无效令牌、封禁、冻结均不保留连接
		c.SendEnvelope(MsgAuthError, &ErrorPayload{
			Code:    int(apperrors.GetCode(err)),
			Message: err.Error(),
		})
		c.Close()
		return
	}

	c.UserID = identity.UserID
	c.Username = identity.Username
	c.SessionID = identity.SessionID
	c.Role = identity.Role
	c.setState(StateReady)
	g.hub.BindUser(c)
	g.chat.Join(chat.LobbyChannel, c.UserID)

	c.SendEnvelope(MsgAuthOK, &AuthOKPayload{
		UserID:    identity.UserID,
		SessionID: identity.SessionID,
	})

	g.resumeMatch(c)
}

// resumeMatch 断线重连：取消宽限定时器并补发当前对局快照
func (g *Gateway) resumeMatch(c *Client) {
	g.matchesMu.RLock()
	matchID, ok := g.userMatch[c.UserID]
	record := g.matches[matchID]
	g.matchesMu.RUnlock()
	if !ok || record == nil {
		return
	}

	record.mu.Lock()
	if timer, exists := record.grace[c.UserID]; exists {
		timer.Stop()
		delete(record.grace, c.UserID)
	}
	done := record.done
	snapshot := record.Engine.Snapshot()
	record.mu.Unlock()
	if done {
		return
	}

	c.SetMatchID(record.ID)
	g.chat.Join(record.channelName(), c.UserID)
	c.SendEnvelope(MsgMatchFound, g.foundPayload(record, c.UserID))
	c.SendEnvelope(MsgMatchState, &StatePayload{MatchID: record.ID, State: snapshot})

	g.logger.Info("用户重连回到对局",
		zap.Uint("user_id", c.UserID),
		zap.String("match_id", record.ID))
}

// handleQueue 入队：PVE直接开局，PVP进入匹配队列
func (g *Gateway) handleQueue(c *Client, raw json.RawMessage) {
	var payload QueuePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.SendError(apperrors.ErrMessageFormat, "消息格式错误")
		return
	}

	speciesID := payload.SpeciesID
	if speciesID == "" {
		speciesID = defaultSpeciesID
	}
	if !battle.SpeciesExists(speciesID) {
		c.SendError(apperrors.ErrUnknownSpecies, "未知的植物: "+speciesID)
		return
	}

	if g.userMatchID(c.UserID) != "" {
		c.SendError(apperrors.ErrAlreadyExists, "已在对局中")
		return
	}

	switch payload.Mode {
	case models.ModePVEBot:
		difficulty := battle.AIDifficulty(payload.Difficulty)
		if difficulty == "" {
			difficulty = battle.AINormal
		}
		if !battle.ValidDifficulty(difficulty) {
			c.SendError(apperrors.ErrUnknownDifficulty, "未知的难度: "+payload.Difficulty)
			return
		}
		g.startPVEMatch(c, speciesID, difficulty)

	case models.ModePVPCasual, models.ModePVPRanked:
		mmMode := matchmaking.ModeCasual
		if payload.Mode == models.ModePVPRanked {
			mmMode = matchmaking.ModeRanked
		}

		rating := 0
		if payload.Mode == models.ModePVPRanked {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			r, err := g.repos.Rating().GetOrCreate(ctx, c.UserID, payload.Mode)
			cancel()
			if err != nil {
				g.logger.Error("读取积分失败", zap.Uint("user_id", c.UserID), zap.Error(err))
				c.SendError(apperrors.ErrQueueUnavailable, "匹配服务暂不可用")
				return
			}
			rating = r.Value
		}

		if _, err := g.matchmaker.Enqueue(c.UserID, c.Username, mmMode, "", speciesID, rating); err != nil {
			c.SendError(apperrors.ErrQueueUnavailable, "入队失败")
			return
		}
		g.sink.Emit(telemetry.EventPlayerQueued, map[string]interface{}{
			"user_id": c.UserID,
			"mode":    payload.Mode,
		})
		c.SendEnvelope(MsgMatchQueued, &QueuedPayload{Mode: payload.Mode})

	default:
		c.SendError(apperrors.ErrUnknownMode, "未知的对战模式: "+payload.Mode)
	}
}

// handleCancelQueue 取消排队，幂等
func (g *Gateway) handleCancelQueue(c *Client, raw json.RawMessage) {
	var payload CancelQueuePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.SendError(apperrors.ErrMessageFormat, "消息格式错误")
		return
	}
	g.matchmaker.Cancel(c.UserID)
}

// startPVEMatch 创建人机对局并立即下发首个快照
func (g *Gateway) startPVEMatch(c *Client, speciesID string, difficulty battle.AIDifficulty) {
	seed := newMatchSeed()
	species := battle.AllSpecies()
	botSpecies := species[int(seed)%len(species)].ID

	record := &matchRecord{
		ID:     uuid.New().String(),
		Mode:   models.ModePVEBot,
		Engine: battle.NewMatch(battle.NewFloran(speciesID), battle.NewFloran(botSpecies), seed, g.logger),
		Participants: [2]matchParticipant{
			{UserID: c.UserID, Username: c.Username, SpeciesID: speciesID},
			{Username: "野生植物", SpeciesID: botSpecies, IsBot: true},
		},
		Difficulty: difficulty,
		CreatedAt:  time.Now(),
		pending:    make(map[int]battle.Command),
		grace:      make(map[uint]*time.Timer),
	}

	g.matchesMu.Lock()
	g.matches[record.ID] = record
	g.userMatch[c.UserID] = record.ID
	g.matchesMu.Unlock()

	c.SetMatchID(record.ID)
	g.chat.Join(record.channelName(), c.UserID)

	g.sink.Emit(telemetry.EventMatchStarted, map[string]interface{}{
		"match_id": record.ID,
		"mode":     record.Mode,
	})
	g.logger.Info("人机对局开始",
		zap.String("match_id", record.ID),
		zap.Uint("user_id", c.UserID),
		zap.String("species", speciesID),
		zap.String("bot_species", botSpecies),
		zap.String("difficulty", string(difficulty)))

	c.SendEnvelope(MsgMatchFound, &FoundPayload{MatchID: record.ID, Mode: record.Mode})
	c.SendEnvelope(MsgMatchState, &StatePayload{MatchID: record.ID, State: record.Engine.Snapshot()})
}

// HandlePair 匹配成功回调，创建PVP对局
func (g *Gateway) HandlePair(pair matchmaking.Pair) {
	mode := models.ModePVPCasual
	if pair.A.Mode == matchmaking.ModeRanked {
		mode = models.ModePVPRanked
	}

	record := &matchRecord{
		ID:     pair.MatchID,
		Mode:   mode,
		Engine: battle.NewMatch(battle.NewFloran(pair.A.SpeciesID), battle.NewFloran(pair.B.SpeciesID), pair.Seed, g.logger),
		Participants: [2]matchParticipant{
			{UserID: pair.A.UserID, Username: pair.A.Username, SpeciesID: pair.A.SpeciesID},
			{UserID: pair.B.UserID, Username: pair.B.Username, SpeciesID: pair.B.SpeciesID},
		},
		CreatedAt: time.Now(),
		pending:   make(map[int]battle.Command),
		grace:     make(map[uint]*time.Timer),
	}

	g.matchesMu.Lock()
	g.matches[record.ID] = record
	g.userMatch[pair.A.UserID] = record.ID
	g.userMatch[pair.B.UserID] = record.ID
	g.matchesMu.Unlock()

	snapshot := record.Engine.Snapshot()
	for _, p := range record.Participants {
		g.chat.Join(record.channelName(), p.UserID)
		g.hub.SendToUser(p.UserID, MsgMatchFound, g.foundPayload(record, p.UserID))
		g.hub.SendToUser(p.UserID, MsgMatchState, &StatePayload{MatchID: record.ID, State: snapshot})
	}

	g.sink.Emit(telemetry.EventMatchStarted, map[string]interface{}{
		"match_id": record.ID,
		"mode":     record.Mode,
	})
	g.logger.Info("PVP对局开始",
		zap.String("match_id", record.ID),
		zap.String("mode", mode),
		zap.Uint("user_a", pair.A.UserID),
		zap.Uint("user_b", pair.B.UserID))
}

// foundPayload 构造match/found，对手为对局中的另一名真人玩家
func (g *Gateway) foundPayload(record *matchRecord, userID uint) *FoundPayload {
	payload := &FoundPayload{MatchID: record.ID, Mode: record.Mode}
	for _, p := range record.Participants {
		if !p.IsBot && p.UserID != userID {
			payload.Opponent = p.UserID
		}
	}
	return payload
}

// handleCommand 提交回合指令
// PVE立即合成机器人指令推进；PVP等待双方指令，超时按默认攻击。
func (g *Gateway) handleCommand(c *Client, raw json.RawMessage) {
	var payload CommandPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.SendError(apperrors.ErrMessageFormat, "消息格式错误")
		return
	}

	record := g.findMatch(payload.MatchID)
	if record == nil {
		c.SendError(apperrors.ErrMatchNotFound, "对局不存在")
		return
	}
	idx := record.participantIndex(c.UserID)
	if idx < 0 {
		c.SendError(apperrors.ErrNotParticipant, "不是该对局的参与者")
		return
	}

	cmd := battle.Command{
		Type:        battle.CommandType(payload.Command.Type),
		TargetIndex: payload.Command.TargetIndex,
		ItemID:      payload.Command.ItemID,
		SkillID:     payload.Command.SkillID,
	}
	switch cmd.Type {
	case battle.CommandAttack, battle.CommandSkill, battle.CommandItem, battle.CommandSwitch:
	default:
		c.SendError(apperrors.ErrInvalidCommand, "未知的指令类型: "+payload.Command.Type)
		return
	}

	record.mu.Lock()
	defer record.mu.Unlock()

	if record.done || record.Engine.IsFinished() {
		c.SendError(apperrors.ErrMatchFinished, "对局已结束")
		return
	}

	if record.Participants[1].IsBot {
		botCmd := battle.ChooseBotCommand(record.Engine.Snapshot(), record.Difficulty)
		g.advanceLocked(record, [2]battle.Command{cmd, botCmd})
		return
	}

	if _, dup := record.pending[idx]; dup {
		c.SendError(apperrors.ErrCommandPending, "本回合指令已提交")
		return
	}
	record.pending[idx] = cmd

	if len(record.pending) == 2 {
		if record.barrier != nil {
			record.barrier.Stop()
			record.barrier = nil
		}
		commands := [2]battle.Command{record.pending[0], record.pending[1]}
		record.pending = make(map[int]battle.Command)
		g.advanceLocked(record, commands)
		return
	}

	if record.barrier == nil {
		record.barrier = time.AfterFunc(commandBarrierTimeout, func() {
			g.forceAdvance(record)
		})
	}
}

// forceAdvance 指令收集超时，缺席方按默认攻击推进回合
func (g *Gateway) forceAdvance(record *matchRecord) {
	record.mu.Lock()
	defer record.mu.Unlock()

	if record.done || record.Engine.IsFinished() || len(record.pending) == 0 {
		return
	}
	record.barrier = nil

	var commands [2]battle.Command
	for i := 0; i < 2; i++ {
		if cmd, ok := record.pending[i]; ok {
			commands[i] = cmd
		} else {
			commands[i] = battle.Command{Type: battle.CommandAttack}
			g.logger.Info("指令超时，按默认攻击处理",
				zap.String("match_id", record.ID),
				zap.Uint("user_id", record.Participants[i].UserID))
		}
	}
	record.pending = make(map[int]battle.Command)
	g.advanceLocked(record, commands)
}

// advanceLocked 推进一回合并广播快照，调用方必须持有record.mu
func (g *Gateway) advanceLocked(record *matchRecord, commands [2]battle.Command) {
	record.Engine.NextRound(commands)
	snapshot := record.Engine.Snapshot()

	if record.Engine.IsFinished() {
		g.finalizeLocked(record, snapshot)
		return
	}
	for _, p := range record.Participants {
		if !p.IsBot {
			g.hub.SendToUser(p.UserID, MsgMatchState, &StatePayload{MatchID: record.ID, State: snapshot})
		}
	}
}

// finalizeLocked 终局结算：派发奖励、广播match/result、清理对局
// 调用方必须持有record.mu。
func (g *Gateway) finalizeLocked(record *matchRecord, snapshot battle.MatchView) {
	record.done = true
	if record.barrier != nil {
		record.barrier.Stop()
		record.barrier = nil
	}
	for _, timer := range record.grace {
		timer.Stop()
	}

	outcome := rewards.Outcome{
		MatchID:         record.ID,
		Mode:            record.Mode,
		WinnerIndex:     snapshot.WinnerIndex,
		KOReason:        string(snapshot.KOReason),
		Rounds:          snapshot.Round,
		DurationSeconds: int(time.Since(record.CreatedAt).Seconds()),
		PlayedAt:        time.Now(),
	}
	for i, p := range record.Participants {
		outcome.Participants[i] = rewards.Participant{
			UserID:    p.UserID,
			Username:  p.Username,
			SpeciesID: p.SpeciesID,
			IsBot:     p.IsBot,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	playerRewards := g.dispatcher.Dispatch(ctx, outcome)
	cancel()

	result := &ResultPayload{MatchID: record.ID, State: snapshot, Rewards: playerRewards}
	for _, p := range record.Participants {
		if !p.IsBot {
			g.hub.SendToUser(p.UserID, MsgMatchResult, result)
		}
	}

	g.cleanupMatch(record)
	g.logger.Info("对局结束",
		zap.String("match_id", record.ID),
		zap.String("mode", record.Mode),
		zap.Int("rounds", snapshot.Round),
		zap.String("ko_reason", string(snapshot.KOReason)))
}

// cleanupMatch 移除对局索引并解散对局频道
func (g *Gateway) cleanupMatch(record *matchRecord) {
	g.matchesMu.Lock()
	delete(g.matches, record.ID)
	for _, p := range record.Participants {
		if !p.IsBot && g.userMatch[p.UserID] == record.ID {
			delete(g.userMatch, p.UserID)
		}
	}
	g.matchesMu.Unlock()

	for _, p := range record.Participants {
		if !p.IsBot {
			g.chat.Leave(record.channelName(), p.UserID)
		}
	}
}

// handleChat 聊天投递，由频道管理器校验成员与消息长度
func (g *Gateway) handleChat(c *Client, raw json.RawMessage) {
	var payload ChatSendPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.SendError(apperrors.ErrMessageFormat, "消息格式错误")
		return
	}

	msg, recipients, err := g.chat.Send(payload.Channel, c.UserID, c.Username, payload.Message)
	if err != nil {
		c.SendError(apperrors.GetCode(err), err.Error())
		return
	}

	out := &ChatMessagePayload{
		Channel:  msg.Channel,
		UserID:   msg.UserID,
		Username: msg.Username,
		Message:  msg.Text,
		At:       msg.At,
	}
	for _, userID := range recipients {
		g.hub.SendToUser(userID, MsgChatMessage, out)
	}
}

// HandleDisconnect 连接断开：清理队列与频道，对局进入重连宽限期
func (g *Gateway) HandleDisconnect(c *Client) {
	if c.UserID == 0 {
		return
	}

	if g.matchmaker != nil {
		g.matchmaker.RemoveUser(c.UserID)
	}
	g.chat.LeaveAll(c.UserID)

	matchID := g.userMatchID(c.UserID)
	if matchID == "" {
		return
	}
	record := g.findMatch(matchID)
	if record == nil {
		return
	}

	record.mu.Lock()
	defer record.mu.Unlock()
	if record.done {
		return
	}
	if _, exists := record.grace[c.UserID]; exists {
		return
	}
	userID := c.UserID
	record.grace[userID] = time.AfterFunc(disconnectGrace, func() {
		g.abandonAfterGrace(record, userID)
	})

	g.logger.Info("玩家断线，进入重连宽限期",
		zap.Uint("user_id", userID),
		zap.String("match_id", record.ID),
		zap.Duration("grace", disconnectGrace))
}

// abandonAfterGrace 宽限期结束仍未重连：
// PVE对局直接销毁不结算，PVP对局判负并给在线方发放胜利结算。
func (g *Gateway) abandonAfterGrace(record *matchRecord, userID uint) {
	if g.hub.IsUserOnline(userID) {
		return
	}

	record.mu.Lock()
	defer record.mu.Unlock()
	if record.done {
		return
	}
	delete(record.grace, userID)

	if record.Participants[1].IsBot {
		record.done = true
		if record.barrier != nil {
			record.barrier.Stop()
		}
		g.cleanupMatch(record)
		g.logger.Info("人机对局因断线销毁",
			zap.String("match_id", record.ID),
			zap.Uint("user_id", userID))
		return
	}

	idx := record.participantIndex(userID)
	if idx < 0 {
		return
	}
	record.Engine.Forfeit(idx)
	g.finalizeLocked(record, record.Engine.Snapshot())
}

// findMatch 查找进行中的对局
func (g *Gateway) findMatch(matchID string) *matchRecord {
	g.matchesMu.RLock()
	defer g.matchesMu.RUnlock()
	return g.matches[matchID]
}

// userMatchID 用户当前对局ID
func (g *Gateway) userMatchID(userID uint) string {
	g.matchesMu.RLock()
	defer g.matchesMu.RUnlock()
	return g.userMatch[userID]
}

// MatchCount 进行中的对局数
func (g *Gateway) MatchCount() int {
	g.matchesMu.RLock()
	defer g.matchesMu.RUnlock()
	return len(g.matches)
}

// newMatchSeed 生成对战种子，取UUID前4字节
func newMatchSeed() uint32 {
	id := uuid.New()
	return binary.BigEndian.Uint32(id[:4])
}
