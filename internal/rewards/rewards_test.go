package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/floran-server/internal/liveops"
	"github.com/wfunc/floran-server/internal/models"
	"github.com/wfunc/floran-server/internal/repository"
	"github.com/wfunc/floran-server/internal/telemetry"
	"go.uber.org/zap"
)

// 奖励公式用例
func TestXPFor(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		won        bool
		duration   int
		multiplier float64
		want       int
	}{
		{"PVE获胜标准时长", models.ModePVEBot, true, 300, 1.0, 48},
		{"PVE失败标准时长", models.ModePVEBot, false, 300, 1.0, 28},
		{"PVP获胜240秒", models.ModePVPCasual, true, 240, 1.0, 48},
		{"PVP失败240秒", models.ModePVPCasual, false, 240, 1.0, 28},
		{"时长系数下限", models.ModePVPRanked, true, 60, 1.0, 30},
		{"时长系数上限", models.ModePVPRanked, true, 600, 1.0, 90},
		{"活动双倍经验", models.ModePVEBot, true, 300, 2.0, 96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := XPFor(tt.mode, tt.won, tt.duration, tt.multiplier)
			if got != tt.want {
				t.Errorf("XPFor() = %d, 期望 %d", got, tt.want)
			}
		})
	}
}

func TestBCFor(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		won        bool
		duration   int
		multiplier float64
		want       int64
	}{
		{"PVE获胜", models.ModePVEBot, true, 300, 1.0, 30},
		{"PVE失败", models.ModePVEBot, false, 300, 1.0, 15},
		{"PVP获胜240秒", models.ModePVPRanked, true, 240, 1.0, 32},
		{"PVP失败240秒", models.ModePVPRanked, false, 240, 1.0, 16},
		{"活动1.5倍", models.ModePVPCasual, true, 300, 1.5, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BCFor(tt.mode, tt.won, tt.duration, tt.multiplier)
			if got != tt.want {
				t.Errorf("BCFor() = %d, 期望 %d", got, tt.want)
			}
		})
	}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *repository.Manager, *telemetry.Sink) {
	db := repository.SetupTestDB()
	t.Cleanup(func() { repository.CleanupTestDB(db) })

	repos := repository.NewManager(db)
	sink := telemetry.NewSink(100, zap.NewNop())
	dispatcher := NewDispatcher(repos, liveops.NewService(zap.NewNop()), sink, zap.NewNop())
	return dispatcher, repos, sink
}

func createUser(t *testing.T, repos *repository.Manager, username string) *models.User {
	user := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, repos.User().Create(context.Background(), user))
	return user
}

// TestDispatch_PVE 机器人对战只结算真实玩家
func TestDispatch_PVE(t *testing.T) {
	dispatcher, repos, sink := newTestDispatcher(t)
	ctx := context.Background()
	user := createUser(t, repos, "pveplayer")

	winner := 0
	rewards := dispatcher.Dispatch(ctx, Outcome{
		MatchID:         "pve-match-1",
		Mode:            models.ModePVEBot,
		WinnerIndex:     &winner,
		KOReason:        "HP",
		Rounds:          12,
		DurationSeconds: 300,
		Participants: [2]Participant{
			{UserID: user.ID, Username: "pveplayer", SpeciesID: "sunflower"},
			{IsBot: true, Username: "训练机器人", SpeciesID: "cactus"},
		},
		PlayedAt: time.Now(),
	})

	require.Len(t, rewards, 1)
	assert.Equal(t, 48, rewards[0].XP)
	assert.Equal(t, int64(30), rewards[0].BC)
	assert.Equal(t, int64(30), rewards[0].BioCredits)
	assert.Equal(t, "match_PVE_BOT_pve-match-1", rewards[0].Reason)

	// 钱包与结果行都应落库
	wallet, err := repos.Wallet().FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), wallet.BioCredits)

	results, err := repos.MatchResult().FindByMatchID(ctx, "pve-match-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Won)
	assert.Equal(t, uint(0), results[0].OpponentID)

	assert.Equal(t, int64(1), sink.Counter("match_ended_"+models.ModePVEBot))
}

// TestDispatch_RankedElo 天梯对战双方都结算并更新积分
func TestDispatch_RankedElo(t *testing.T) {
	dispatcher, repos, _ := newTestDispatcher(t)
	ctx := context.Background()
	userA := createUser(t, repos, "rankeda")
	userB := createUser(t, repos, "rankedb")

	winner := 0
	rewards := dispatcher.Dispatch(ctx, Outcome{
		MatchID:         "ranked-match-1",
		Mode:            models.ModePVPRanked,
		WinnerIndex:     &winner,
		KOReason:        "Dehydration",
		Rounds:          20,
		DurationSeconds: 300,
		Participants: [2]Participant{
			{UserID: userA.ID, Username: "rankeda", SpeciesID: "sunflower"},
			{UserID: userB.ID, Username: "rankedb", SpeciesID: "cactus"},
		},
		PlayedAt: time.Now(),
	})

	require.Len(t, rewards, 2)

	// 胜者：50·1.2=60经验，40生物币，积分1200→1212
	assert.Equal(t, 60, rewards[0].XP)
	assert.Equal(t, int64(40), rewards[0].BC)
	assert.Equal(t, 1200, rewards[0].RatingBefore)
	assert.Equal(t, 1212, rewards[0].RatingAfter)

	// 败者：50·0.7=35经验，20生物币，积分1200→1188
	assert.Equal(t, 35, rewards[1].XP)
	assert.Equal(t, int64(20), rewards[1].BC)
	assert.Equal(t, 1188, rewards[1].RatingAfter)

	ratingA, err := repos.Rating().FindByUserAndMode(ctx, userA.ID, models.ModePVPRanked)
	require.NoError(t, err)
	assert.Equal(t, 1212, ratingA.Value)
	assert.Equal(t, 1, ratingA.Wins)

	ratingB, err := repos.Rating().FindByUserAndMode(ctx, userB.ID, models.ModePVPRanked)
	require.NoError(t, err)
	assert.Equal(t, 1188, ratingB.Value)
	assert.Equal(t, 1, ratingB.Losses)

	// 一场对战两条结果行
	results, err := repos.MatchResult().FindByMatchID(ctx, "ranked-match-1")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

// TestDispatch_Draw 平局双方都按失败系数结算，积分不变
func TestDispatch_Draw(t *testing.T) {
	dispatcher, repos, _ := newTestDispatcher(t)
	ctx := context.Background()
	userA := createUser(t, repos, "drawa")
	userB := createUser(t, repos, "drawb")

	rewards := dispatcher.Dispatch(ctx, Outcome{
		MatchID:         "draw-match-1",
		Mode:            models.ModePVPRanked,
		WinnerIndex:     nil,
		KOReason:        "HP",
		Rounds:          30,
		DurationSeconds: 300,
		Participants: [2]Participant{
			{UserID: userA.ID, Username: "drawa", SpeciesID: "sunflower"},
			{UserID: userB.ID, Username: "drawb", SpeciesID: "water_lily"},
		},
		PlayedAt: time.Now(),
	})

	require.Len(t, rewards, 2)
	for _, r := range rewards {
		assert.Equal(t, 35, r.XP)
		assert.Equal(t, int64(20), r.BC)
		assert.Equal(t, 1200, r.RatingAfter)
	}

	ratingA, err := repos.Rating().FindByUserAndMode(ctx, userA.ID, models.ModePVPRanked)
	require.NoError(t, err)
	assert.Equal(t, 1, ratingA.Draws)

	results, err := repos.MatchResult().FindByMatchID(ctx, "draw-match-1")
	require.NoError(t, err)
	for _, res := range results {
		assert.True(t, res.Draw)
		assert.False(t, res.Won)
	}
}

// TestDispatch_LiveopsMultiplier 活动倍率放大奖励
func TestDispatch_LiveopsMultiplier(t *testing.T) {
	db := repository.SetupTestDB()
	t.Cleanup(func() { repository.CleanupTestDB(db) })

	repos := repository.NewManager(db)
	lo := liveops.NewService(zap.NewNop())
	lo.SetEvents([]liveops.Event{{
		ID:           "harvest-fest",
		Name:         "丰收节",
		XPMultiplier: 2.0,
		BCMultiplier: 1.5,
		StartsAt:     time.Now().Add(-time.Hour),
		EndsAt:       time.Now().Add(time.Hour),
	}})
	dispatcher := NewDispatcher(repos, lo, telemetry.NewSink(10, zap.NewNop()), zap.NewNop())

	ctx := context.Background()
	user := createUser(t, repos, "festplayer")

	winner := 0
	rewards := dispatcher.Dispatch(ctx, Outcome{
		MatchID:         "fest-match-1",
		Mode:            models.ModePVEBot,
		WinnerIndex:     &winner,
		KOReason:        "HP",
		Rounds:          10,
		DurationSeconds: 300,
		Participants: [2]Participant{
			{UserID: user.ID, Username: "festplayer", SpeciesID: "sunflower"},
			{IsBot: true, SpeciesID: "cactus"},
		},
		PlayedAt: time.Now(),
	})

	require.Len(t, rewards, 1)
	assert.Equal(t, 96, rewards[0].XP)      // 48·2.0
	assert.Equal(t, int64(45), rewards[0].BC) // 30·1.5
}
