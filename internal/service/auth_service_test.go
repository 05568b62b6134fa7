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

	apperrors "github.com/wfunc/floran-server/internal/errors"
	"github.com/wfunc/floran-server/internal/models"
	"github.com/wfunc/floran-server/internal/utils"
)

// AuthServiceTestSuite 认证服务测试套件
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService AuthService
	userService UserService
	jwtManager  *utils.JWTManager
}

// SetupSuite 设置测试套件
func (suite *AuthServiceTestSuite) SetupSuite() {
	// 创建内存数据库
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(suite.T(), err)

	// 自动迁移
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

	suite.db = db

	// 创建服务
	config := DefaultConfig()
	log, _ := zap.NewDevelopment()

	services := NewServices(db, config, log)
	suite.authService = services.Auth
	suite.userService = services.User
	suite.jwtManager = services.JWT
}

// SetupTest 每个测试前执行
func (suite *AuthServiceTestSuite) SetupTest() {
	// 清理数据
	suite.db.Exec("DELETE FROM user_sessions")
	suite.db.Exec("DELETE FROM user_auths")
	suite.db.Exec("DELETE FROM wallet_transactions")
	suite.db.Exec("DELETE FROM wallets")
	suite.db.Exec("DELETE FROM progressions")
	suite.db.Exec("DELETE FROM users")
}

func (suite *AuthServiceTestSuite) register(username, email, password string) *AuthResponse {
	resp, err := suite.authService.Register(context.Background(), &RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
		IP:              "127.0.0.1",
	})
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), resp)
	return resp
}

// TestRegister 测试注册
func (suite *AuthServiceTestSuite) TestRegister() {
	ctx := context.Background()

	resp := suite.register("testuser", "test@example.com", "password123")

	assert.Equal(suite.T(), "testuser", resp.User.Username)
	assert.Equal(suite.T(), "testuser", resp.User.Nickname)
	assert.Equal(suite.T(), models.UserStatusActive, resp.User.Status)
	assert.NotEmpty(suite.T(), resp.AccessToken)
	assert.NotEmpty(suite.T(), resp.RefreshToken)
	assert.Equal(suite.T(), "Bearer", resp.TokenType)

	// 钱包带注册奖励
	var wallet models.Wallet
	err := suite.db.Where("user_id = ?", resp.User.ID).First(&wallet).Error
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(100), wallet.BioCredits)

	var txCount int64
	suite.db.Model(&models.WalletTransaction{}).
		Where("user_id = ? AND reason = ?", resp.User.ID, "register_bonus").
		Count(&txCount)
	assert.Equal(suite.T(), int64(1), txCount)

	// 玩家进度从1级开始
	var prog models.Progression
	err = suite.db.Where("user_id = ?", resp.User.ID).First(&prog).Error
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, prog.Level)
	assert.Equal(suite.T(), 0, prog.XP)

	// 令牌可用
	claims, err := suite.authService.ValidateToken(ctx, resp.AccessToken)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), resp.User.ID, claims.UserID)
}

// TestRegisterDuplicate 测试重复注册
func (suite *AuthServiceTestSuite) TestRegisterDuplicate() {
	suite.register("testuser", "test@example.com", "password123")

	// 用户名重复
	_, err := suite.authService.Register(context.Background(), &RegisterRequest{
		Username:        "testuser",
		Email:           "other@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	assert.Error(suite.T(), err)

	// 邮箱重复
	_, err = suite.authService.Register(context.Background(), &RegisterRequest{
		Username:        "otheruser",
		Email:           "test@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	assert.Error(suite.T(), err)
}

// TestRegisterValidation 测试注册参数校验
func (suite *AuthServiceTestSuite) TestRegisterValidation() {
	ctx := context.Background()

	cases := []*RegisterRequest{
		{Username: "ab", Email: "a@b.com", Password: "password123", ConfirmPassword: "password123"},
		{Username: "has space", Email: "a@b.com", Password: "password123", ConfirmPassword: "password123"},
		{Username: "gooduser", Email: "not-an-email", Password: "password123", ConfirmPassword: "password123"},
		{Username: "gooduser", Email: "a@b.com", Password: "123", ConfirmPassword: "123"},
		{Username: "gooduser", Email: "a@b.com", Password: "password123", ConfirmPassword: "password456"},
	}
	for _, req := range cases {
		_, err := suite.authService.Register(ctx, req)
		assert.Error(suite.T(), err)
	}
}

// TestLogin 测试用户名与邮箱登录
func (suite *AuthServiceTestSuite) TestLogin() {
	ctx := context.Background()
	suite.register("testuser", "test@example.com", "password123")

	resp, err := suite.authService.Login(ctx, &LoginRequest{
		Account:  "testuser",
		Password: "password123",
		IP:       "127.0.0.1",
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "testuser", resp.User.Username)

	resp, err = suite.authService.Login(ctx, &LoginRequest{
		Account:  "test@example.com",
		Password: "password123",
	})
	assert.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), resp.AccessToken)

	_, err = suite.authService.Login(ctx, &LoginRequest{
		Account:  "testuser",
		Password: "wrongpassword",
	})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

// TestLoginBannedAndFrozen 测试封禁/冻结账号禁止登录
func (suite *AuthServiceTestSuite) TestLoginBannedAndFrozen() {
	ctx := context.Background()
	resp := suite.register("testuser", "test@example.com", "password123")

	suite.db.Model(&models.User{}).Where("id = ?", resp.User.ID).
		Update("status", models.UserStatusBanned)
	_, err := suite.authService.Login(ctx, &LoginRequest{Account: "testuser", Password: "password123"})
	assert.Equal(suite.T(), apperrors.ErrAccountBanned, apperrors.GetCode(err))

	suite.db.Model(&models.User{}).Where("id = ?", resp.User.ID).
		Update("status", models.UserStatusFrozen)
	_, err = suite.authService.Login(ctx, &LoginRequest{Account: "testuser", Password: "password123"})
	assert.Equal(suite.T(), apperrors.ErrAccountFrozen, apperrors.GetCode(err))
}

// TestLoginLockout 测试连续失败锁定
func (suite *AuthServiceTestSuite) TestLoginLockout() {
	ctx := context.Background()
	suite.register("testuser", "test@example.com", "password123")

	for i := 0; i < 5; i++ {
		_, err := suite.authService.Login(ctx, &LoginRequest{
			Account:  "testuser",
			Password: "wrongpassword",
		})
		assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
	}

	// 第5次失败后账号锁定，正确密码也被拒绝
	_, err := suite.authService.Login(ctx, &LoginRequest{
		Account:  "testuser",
		Password: "password123",
	})
	assert.ErrorIs(suite.T(), err, ErrAccountLocked)
}

// TestRefreshToken 测试令牌刷新
func (suite *AuthServiceTestSuite) TestRefreshToken() {
	ctx := context.Background()
	resp := suite.register("testuser", "test@example.com", "password123")

	refreshed, err := suite.authService.RefreshToken(ctx, resp.RefreshToken)
	assert.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), refreshed.AccessToken)
	assert.Equal(suite.T(), resp.User.ID, refreshed.User.ID)

	// 访问令牌不能用于刷新
	_, err = suite.authService.RefreshToken(ctx, resp.AccessToken)
	assert.Error(suite.T(), err)
}

// TestLogout 测试登出后会话失效
func (suite *AuthServiceTestSuite) TestLogout() {
	ctx := context.Background()
	resp := suite.register("testuser", "test@example.com", "password123")

	err := suite.authService.Logout(ctx, resp.User.ID, resp.AccessToken)
	assert.NoError(suite.T(), err)

	_, err = suite.authService.ValidateToken(ctx, resp.AccessToken)
	assert.Error(suite.T(), err)
}

// TestValidateSession 测试会话校验
func (suite *AuthServiceTestSuite) TestValidateSession() {
	ctx := context.Background()
	resp := suite.register("testuser", "test@example.com", "password123")

	claims, err := suite.jwtManager.ValidateToken(resp.AccessToken)
	assert.NoError(suite.T(), err)

	session, err := suite.authService.ValidateSession(ctx, claims.SessionID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), resp.User.ID, session.UserID)
	assert.True(suite.T(), session.ExpireAt.After(time.Now()))

	_, err = suite.authService.ValidateSession(ctx, "no-such-session")
	assert.Error(suite.T(), err)
}

// TestRevokeAllSessions 测试批量撤销会话
func (suite *AuthServiceTestSuite) TestRevokeAllSessions() {
	ctx := context.Background()
	resp := suite.register("testuser", "test@example.com", "password123")

	// 额外登录一次，制造两个会话
	_, err := suite.authService.Login(ctx, &LoginRequest{Account: "testuser", Password: "password123"})
	assert.NoError(suite.T(), err)

	var count int64
	suite.db.Model(&models.UserSession{}).Where("user_id = ?", resp.User.ID).Count(&count)
	assert.Equal(suite.T(), int64(2), count)

	err = suite.authService.RevokeAllSessions(ctx, resp.User.ID)
	assert.NoError(suite.T(), err)

	suite.db.Model(&models.UserSession{}).Where("user_id = ?", resp.User.ID).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
