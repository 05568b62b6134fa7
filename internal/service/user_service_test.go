package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wfunc/floran-server/internal/models"
)

// UserServiceTestSuite 用户服务测试套件
type UserServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	db          *gorm.DB
	authService AuthService
	userService UserService
}

// SetupSuite 设置测试套件
func (suite *UserServiceTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(suite.T(), err)

	err = db.AutoMigrate(
		&models.User{},
		&models.UserAuth{},
		&models.UserSession{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.Progression{},
		&models.Rating{},
		&models.MatchResult{},
	)
	assert.NoError(suite.T(), err)

	suite.ctx = context.Background()
	suite.db = db

	log, _ := zap.NewDevelopment()
	services := NewServices(db, DefaultConfig(), log)
	suite.authService = services.Auth
	suite.userService = services.User
}

// SetupTest 每个测试前执行
func (suite *UserServiceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM user_sessions")
	suite.db.Exec("DELETE FROM user_auths")
	suite.db.Exec("DELETE FROM wallet_transactions")
	suite.db.Exec("DELETE FROM wallets")
	suite.db.Exec("DELETE FROM progressions")
	suite.db.Exec("DELETE FROM ratings")
	suite.db.Exec("DELETE FROM match_results")
	suite.db.Exec("DELETE FROM users")
}

func (suite *UserServiceTestSuite) register(username string) *AuthResponse {
	resp, err := suite.authService.Register(suite.ctx, &RegisterRequest{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	assert.NoError(suite.T(), err)
	return resp
}

// TestGetUserByID 测试按ID获取用户
func (suite *UserServiceTestSuite) TestGetUserByID() {
	resp := suite.register("alice")

	user, err := suite.userService.GetUserByID(suite.ctx, resp.User.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "alice", user.Username)

	_, err = suite.userService.GetUserByID(suite.ctx, 99999)
	assert.Error(suite.T(), err)
}

// TestGetProfile 测试档案聚合
func (suite *UserServiceTestSuite) TestGetProfile() {
	resp := suite.register("alice")
	userID := resp.User.ID

	// 写入进度、积分与战绩
	suite.db.Model(&models.Progression{}).Where("user_id = ?", userID).
		Updates(map[string]interface{}{"level": 3, "xp": 50, "perk_points": 2})
	suite.db.Create(&models.Rating{UserID: userID, Mode: models.ModePVPRanked, Value: 1250, Wins: 2, Losses: 1})
	suite.db.Create(&models.MatchResult{
		MatchID: "m1", UserID: userID, Mode: models.ModePVEBot,
		SpeciesID: "sunflower", Won: true, PlayedAt: time.Now(),
	})
	suite.db.Create(&models.MatchResult{
		MatchID: "m2", UserID: userID, Mode: models.ModePVPRanked,
		SpeciesID: "cactus", Won: false, PlayedAt: time.Now(),
	})

	profile, err := suite.userService.GetProfile(suite.ctx, userID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "alice", profile.User.Username)
	assert.Equal(suite.T(), 3, profile.Level)
	assert.Equal(suite.T(), 50, profile.XP)
	assert.Equal(suite.T(), models.XPForLevel(4), profile.NextLevelXP)
	assert.Equal(suite.T(), 2, profile.PerkPoints)
	assert.Equal(suite.T(), int64(100), profile.BioCredits)
	assert.Equal(suite.T(), 1250, profile.Ratings[models.ModePVPRanked])
	assert.NotContains(suite.T(), profile.Ratings, models.ModePVPCasual)
	assert.Equal(suite.T(), int64(2), profile.Matches)
	assert.Equal(suite.T(), int64(1), profile.Wins)
}

// TestUpdatePassword 测试改密
func (suite *UserServiceTestSuite) TestUpdatePassword() {
	resp := suite.register("alice")
	userID := resp.User.ID

	// 旧密码错误
	err := suite.userService.UpdatePassword(suite.ctx, userID, "wrongpassword", "newpassword1")
	assert.Error(suite.T(), err)

	// 新密码太短
	err = suite.userService.UpdatePassword(suite.ctx, userID, "password123", "123")
	assert.Error(suite.T(), err)

	// 正常改密
	err = suite.userService.UpdatePassword(suite.ctx, userID, "password123", "newpassword1")
	assert.NoError(suite.T(), err)

	// 所有会话被撤销
	var count int64
	suite.db.Model(&models.UserSession{}).Where("user_id = ?", userID).Count(&count)
	assert.Equal(suite.T(), int64(0), count)

	// 新密码可登录
	_, err = suite.authService.Login(suite.ctx, &LoginRequest{
		Account:  "alice",
		Password: "newpassword1",
	})
	assert.NoError(suite.T(), err)
}

// TestUpdateUserStatus 测试状态变更
func (suite *UserServiceTestSuite) TestUpdateUserStatus() {
	resp := suite.register("alice")
	userID := resp.User.ID

	err := suite.userService.UpdateUserStatus(suite.ctx, userID, "invalid")
	assert.Error(suite.T(), err)

	err = suite.userService.UpdateUserStatus(suite.ctx, userID, models.UserStatusBanned)
	assert.NoError(suite.T(), err)

	user, err := suite.userService.GetUserByID(suite.ctx, userID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.UserStatusBanned, user.Status)

	// 封禁后会话被清除
	var count int64
	suite.db.Model(&models.UserSession{}).Where("user_id = ?", userID).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
