package rewards

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wfunc/floran-server/internal/liveops"
	"github.com/wfunc/floran-server/internal/matchmaking"
	"github.com/wfunc/floran-server/internal/models"
	"github.com/wfunc/floran-server/internal/repository"
	"github.com/wfunc/floran-server/internal/telemetry"
	"go.uber.org/zap"
)

// 经验计算参数
const (
	xpBasePVE = 40.0
	xpBasePVP = 50.0

	winBonusWinner = 1.2
	winBonusLoser  = 0.7

	durationPivotSeconds = 300.0
	durationFactorMin    = 0.5
	durationFactorMax    = 1.5
)

// 生物币基数
const (
	bcPVEWin  = 30.0
	bcPVELoss = 15.0
	bcPVPWin  = 40.0
	bcPVPLoss = 20.0
)

// Participant 对战参与者
type Participant struct {
	UserID    uint
	Username  string
	SpeciesID string
	IsBot     bool
}

// Outcome 终局结算输入
type Outcome struct {
	MatchID         string
	Mode            string
	WinnerIndex     *int // nil表示平局
	KOReason        string
	Rounds          int
	DurationSeconds int
	Participants    [2]Participant
	PlayedAt        time.Time
}

// PlayerReward 单个玩家的结算结果
type PlayerReward struct {
	UserID       uint   `json:"user_id"`
	XP           int    `json:"xp"`
	BC           int64  `json:"bc"`
	Level        int    `json:"level"`
	LevelsGained int    `json:"levels_gained"`
	RatingBefore int    `json:"rating_before,omitempty"`
	RatingAfter  int    `json:"rating_after,omitempty"`
	BioCredits   int64  `json:"bio_credits"`
	Reason       string `json:"reason"`
}

// Dispatcher 奖励调度器：终局时计算经验/生物币，落库并发遥测
type Dispatcher struct {
	repos   *repository.Manager
	liveops *liveops.Service
	sink    *telemetry.Sink
	logger  *zap.Logger
}

// NewDispatcher 创建奖励调度器
func NewDispatcher(repos *repository.Manager, lo *liveops.Service, sink *telemetry.Sink, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		repos:   repos,
		liveops: lo,
		sink:    sink,
		logger:  logger,
	}
}

// durationFactor 时长系数：clamp(秒/300, 0.5, 1.5)
func durationFactor(durationSeconds int) float64 {
	f := float64(durationSeconds) / durationPivotSeconds
	if f < durationFactorMin {
		return durationFactorMin
	}
	if f > durationFactorMax {
		return durationFactorMax
	}
	return f
}

// XPFor 计算经验：base·winBonus·durFactor·活动倍率，永不为负
func XPFor(mode string, won bool, durationSeconds int, multiplier float64) int {
	base := xpBasePVP
	if mode == models.ModePVEBot {
		base = xpBasePVE
	}
	bonus := winBonusLoser
	if won {
		bonus = winBonusWinner
	}
	xp := int(math.Round(base * bonus * durationFactor(durationSeconds) * multiplier))
	if xp < 0 {
		return 0
	}
	return xp
}

// BCFor 计算生物币：base·durFactor·活动倍率
func BCFor(mode string, won bool, durationSeconds int, multiplier float64) int64 {
	var base float64
	if mode == models.ModePVEBot {
		base = bcPVELoss
		if won {
			base = bcPVEWin
		}
	} else {
		base = bcPVPLoss
		if won {
			base = bcPVPWin
		}
	}
	return int64(math.Round(base * durationFactor(durationSeconds) * multiplier))
}

// Dispatch 终局结算：每名真实参与者计算奖励、事务落库、更新积分并发遥测。
// 单个参与者的失败只记日志，不阻断其余结算和终局广播。
func (d *Dispatcher) Dispatch(ctx context.Context, outcome Outcome) []PlayerReward {
	xpMult := d.liveops.XPMultiplier(outcome.Mode)
	bcMult := d.liveops.BCMultiplier(outcome.Mode)
	reason := fmt.Sprintf("match_%s_%s", outcome.Mode, outcome.MatchID)

	// 先算天梯积分，保证两边用同一组赛前积分
	ratings := d.rankedRatings(ctx, outcome)

	var rewardList []PlayerReward
	for idx, p := range outcome.Participants {
		if p.IsBot {
			continue
		}

		won := outcome.WinnerIndex != nil && *outcome.WinnerIndex == idx
		reward := PlayerReward{
			UserID: p.UserID,
			XP:     XPFor(outcome.Mode, won, outcome.DurationSeconds, xpMult),
			BC:     BCFor(outcome.Mode, won, outcome.DurationSeconds, bcMult),
			Reason: reason,
		}
		if r, ok := ratings[idx]; ok {
			reward.RatingBefore = r.before
			reward.RatingAfter = r.after
		}

		if err := d.persist(ctx, outcome, idx, p, won, &reward); err != nil {
			d.logger.Error("奖励结算失败",
				zap.String("match_id", outcome.MatchID),
				zap.Uint("user_id", p.UserID),
				zap.Error(err))
			continue
		}

		// 积分写入独立于钱包事务：即便统计失败也不回滚已发的奖励
		if r, ok := ratings[idx]; ok {
			if _, err := d.repos.Rating().RecordResult(ctx, p.UserID, outcome.Mode, r.after, r.outcome); err != nil {
				d.logger.Error("积分写入失败",
					zap.String("match_id", outcome.MatchID),
					zap.Uint("user_id", p.UserID),
					zap.Error(err))
			}
		}

		d.sink.Emit(telemetry.EventRewardGranted, map[string]interface{}{
			"match_id": outcome.MatchID,
			"user_id":  p.UserID,
			"xp":       reward.XP,
			"bc":       reward.BC,
		})
		rewardList = append(rewardList, reward)
	}

	d.sink.Emit(telemetry.EventMatchEnded, map[string]interface{}{
		"match_id": outcome.MatchID,
		"mode":     outcome.Mode,
		"rounds":   outcome.Rounds,
		"reason":   outcome.KOReason,
	})
	d.sink.Inc("match_ended_" + outcome.Mode)

	return rewardList
}

type ratingDelta struct {
	before  int
	after   int
	outcome string
}

// rankedRatings 天梯模式下计算双方的新积分
func (d *Dispatcher) rankedRatings(ctx context.Context, outcome Outcome) map[int]ratingDelta {
	deltas := make(map[int]ratingDelta)
	if outcome.Mode != models.ModePVPRanked {
		return deltas
	}

	a, errA := d.repos.Rating().GetOrCreate(ctx, outcome.Participants[0].UserID, outcome.Mode)
	b, errB := d.repos.Rating().GetOrCreate(ctx, outcome.Participants[1].UserID, outcome.Mode)
	if errA != nil || errB != nil {
		d.logger.Error("读取积分失败",
			zap.String("match_id", outcome.MatchID),
			zap.NamedError("a", errA), zap.NamedError("b", errB))
		return deltas
	}

	scoreA := 0.5
	outcomeA, outcomeB := repository.OutcomeDraw, repository.OutcomeDraw
	if outcome.WinnerIndex != nil {
		if *outcome.WinnerIndex == 0 {
			scoreA = 1
			outcomeA, outcomeB = repository.OutcomeWin, repository.OutcomeLoss
		} else {
			scoreA = 0
			outcomeA, outcomeB = repository.OutcomeLoss, repository.OutcomeWin
		}
	}

	newA, newB := matchmaking.UpdatedRatings(a.Value, b.Value, scoreA)
	deltas[0] = ratingDelta{before: a.Value, after: newA, outcome: outcomeA}
	deltas[1] = ratingDelta{before: b.Value, after: newB, outcome: outcomeB}
	return deltas
}

// persist 事务内入账、加经验并写结果行；天梯模式额外落积分
func (d *Dispatcher) persist(ctx context.Context, outcome Outcome, idx int, p Participant, won bool, reward *PlayerReward) error {
	err := d.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		if _, err := tx.Wallet().GetOrCreate(ctx, p.UserID); err != nil {
			return err
		}
		wallet, err := tx.Wallet().Credit(ctx, p.UserID, reward.BC, reward.Reason, outcome.MatchID)
		if err != nil {
			return err
		}
		reward.BioCredits = wallet.BioCredits

		progression, gained, err := tx.Progression().AddXP(ctx, p.UserID, reward.XP)
		if err != nil {
			return err
		}
		reward.Level = progression.Level
		reward.LevelsGained = gained

		var opponentID uint
		opponent := outcome.Participants[1-idx]
		if !opponent.IsBot {
			opponentID = opponent.UserID
		}

		result := &models.MatchResult{
			MatchID:         outcome.MatchID,
			UserID:          p.UserID,
			Mode:            outcome.Mode,
			SpeciesID:       p.SpeciesID,
			OpponentID:      opponentID,
			Won:             won,
			Draw:            outcome.WinnerIndex == nil,
			KOReason:        outcome.KOReason,
			Rounds:          outcome.Rounds,
			DurationSeconds: outcome.DurationSeconds,
			XPEarned:        reward.XP,
			BCEarned:        reward.BC,
			RatingBefore:    reward.RatingBefore,
			RatingAfter:     reward.RatingAfter,
			PlayedAt:        outcome.PlayedAt,
		}
		return tx.MatchResult().Create(ctx, result)
	})
	return err
}
