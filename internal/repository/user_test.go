package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/floran-server/internal/models"
	"gorm.io/gorm"
)

// UserRepositoryTestSuite 用户仓储测试套件
type UserRepositoryTestSuite struct {
	suite.Suite
	db          *gorm.DB
	userRepo    UserRepository
	authRepo    UserAuthRepository
	sessionRepo UserSessionRepository
}

func (suite *UserRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.userRepo = NewUserRepository(suite.db)
	suite.authRepo = NewUserAuthRepository(suite.db)
	suite.sessionRepo = NewUserSessionRepository(suite.db)
}

func (suite *UserRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// TestUserRepository_Create 测试创建用户
func (suite *UserRepositoryTestSuite) TestUserRepository_Create() {
	ctx := context.Background()

	user := &models.User{
		Username: "sprout",
		Email:    "sprout@example.com",
		Region:   "eu",
	}
	err := suite.userRepo.Create(ctx, user)
	assert.NoError(suite.T(), err)
	assert.NotZero(suite.T(), user.ID)

	// BeforeCreate钩子应填充默认值
	assert.Equal(suite.T(), "sprout", user.Nickname)
	assert.Equal(suite.T(), models.UserStatusActive, user.Status)
	assert.Equal(suite.T(), models.RoleUser, user.Role)
}

// TestUserRepository_FindByUsername 测试根据用户名查找
func (suite *UserRepositoryTestSuite) TestUserRepository_FindByUsername() {
	ctx := context.Background()

	user := &models.User{Username: "fern", Email: "fern@example.com"}
	suite.Require().NoError(suite.userRepo.Create(ctx, user))

	found, err := suite.userRepo.FindByUsername(ctx, "fern")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID, found.ID)

	_, err = suite.userRepo.FindByUsername(ctx, "nobody")
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "用户不存在")
}

// TestUserRepository_UpdateStatus 测试更新用户状态
func (suite *UserRepositoryTestSuite) TestUserRepository_UpdateStatus() {
	ctx := context.Background()

	user := &models.User{Username: "moss", Email: "moss@example.com"}
	suite.Require().NoError(suite.userRepo.Create(ctx, user))

	err := suite.userRepo.UpdateStatus(ctx, user.ID, models.UserStatusBanned)
	assert.NoError(suite.T(), err)

	found, err := suite.userRepo.FindByID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.UserStatusBanned, found.Status)
	assert.False(suite.T(), found.CanLogin())
}

// TestUserRepository_UpdateLastLogin 测试更新最后登录信息
func (suite *UserRepositoryTestSuite) TestUserRepository_UpdateLastLogin() {
	ctx := context.Background()

	user := &models.User{Username: "ivy", Email: "ivy@example.com"}
	suite.Require().NoError(suite.userRepo.Create(ctx, user))

	err := suite.userRepo.UpdateLastLogin(ctx, user.ID, "10.0.0.8")
	assert.NoError(suite.T(), err)

	found, err := suite.userRepo.FindByID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), found.LastLoginAt)
	assert.Equal(suite.T(), "10.0.0.8", found.LastLoginIP)
}

// TestUserAuthRepository_LoginAttempts 测试登录尝试计数与锁定
func (suite *UserRepositoryTestSuite) TestUserAuthRepository_LoginAttempts() {
	ctx := context.Background()

	user := &models.User{Username: "cactus", Email: "cactus@example.com"}
	suite.Require().NoError(suite.userRepo.Create(ctx, user))

	auth := &models.UserAuth{UserID: user.ID, Password: "hashed"}
	suite.Require().NoError(suite.authRepo.Create(ctx, auth))

	// 增加尝试次数
	err := suite.authRepo.UpdateLoginAttempts(ctx, user.ID, 3)
	assert.NoError(suite.T(), err)

	found, err := suite.authRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, found.LoginAttempts)

	// 锁定账户
	until := time.Now().Add(15 * time.Minute)
	err = suite.authRepo.LockAccount(ctx, user.ID, until)
	assert.NoError(suite.T(), err)

	found, err = suite.authRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), found.LockedUntil)

	// 重置后清零
	err = suite.authRepo.ResetLoginAttempts(ctx, user.ID)
	assert.NoError(suite.T(), err)

	found, err = suite.authRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, found.LoginAttempts)
	assert.Nil(suite.T(), found.LockedUntil)
}

// TestUserSessionRepository_Lifecycle 测试会话生命周期
func (suite *UserRepositoryTestSuite) TestUserSessionRepository_Lifecycle() {
	ctx := context.Background()

	user := &models.User{Username: "willow", Email: "willow@example.com"}
	suite.Require().NoError(suite.userRepo.Create(ctx, user))

	session := &models.UserSession{
		UserID:       user.ID,
		SessionID:    "sess-001",
		Token:        "token-001",
		IP:           "10.0.0.9",
		LastActiveAt: time.Now(),
		ExpireAt:     time.Now().Add(time.Hour),
	}
	suite.Require().NoError(suite.sessionRepo.Create(ctx, session))

	found, err := suite.sessionRepo.FindByToken(ctx, "token-001")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID, found.UserID)

	// 网关断开后更新在线状态
	err = suite.sessionRepo.SetOnline(ctx, "sess-001", false)
	assert.NoError(suite.T(), err)

	sessions, err := suite.sessionRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	suite.Require().Len(sessions, 1)
	assert.False(suite.T(), sessions[0].IsOnline)

	// 删除会话
	err = suite.sessionRepo.Delete(ctx, "token-001")
	assert.NoError(suite.T(), err)

	_, err = suite.sessionRepo.FindByToken(ctx, "token-001")
	assert.Error(suite.T(), err)
}

// TestUserSessionRepository_CleanupExpired 测试清理过期会话
func (suite *UserRepositoryTestSuite) TestUserSessionRepository_CleanupExpired() {
	ctx := context.Background()

	user := &models.User{Username: "bamboo", Email: "bamboo@example.com"}
	suite.Require().NoError(suite.userRepo.Create(ctx, user))

	expired := &models.UserSession{
		UserID:       user.ID,
		SessionID:    "sess-old",
		Token:        "token-old",
		LastActiveAt: time.Now().Add(-2 * time.Hour),
		ExpireAt:     time.Now().Add(-time.Hour),
	}
	suite.Require().NoError(suite.sessionRepo.Create(ctx, expired))

	live := &models.UserSession{
		UserID:       user.ID,
		SessionID:    "sess-new",
		Token:        "token-new",
		LastActiveAt: time.Now(),
		ExpireAt:     time.Now().Add(time.Hour),
	}
	suite.Require().NoError(suite.sessionRepo.Create(ctx, live))

	err := suite.sessionRepo.CleanupExpired(ctx)
	assert.NoError(suite.T(), err)

	sessions, err := suite.sessionRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), sessions, 1)
	assert.Equal(suite.T(), "sess-new", sessions[0].SessionID)
}

func TestUserRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}
