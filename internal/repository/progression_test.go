package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/floran-server/internal/models"
	"gorm.io/gorm"
)

// ProgressionRepositoryTestSuite 玩家进度仓储测试套件
type ProgressionRepositoryTestSuite struct {
	suite.Suite
	db       *gorm.DB
	repo     ProgressionRepository
	userRepo UserRepository
}

func (suite *ProgressionRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewProgressionRepository(suite.db)
	suite.userRepo = NewUserRepository(suite.db)
}

func (suite *ProgressionRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

func (suite *ProgressionRepositoryTestSuite) createTestUser(username string) *models.User {
	user := &models.User{Username: username, Email: username + "@example.com"}
	suite.Require().NoError(suite.userRepo.Create(context.Background(), user))
	return user
}

// TestProgressionRepository_GetOrCreate 测试查找或创建进度
func (suite *ProgressionRepositoryTestSuite) TestProgressionRepository_GetOrCreate() {
	ctx := context.Background()
	user := suite.createTestUser("seedling")

	progression, err := suite.repo.GetOrCreate(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, progression.Level)
	assert.Equal(suite.T(), 0, progression.XP)

	again, err := suite.repo.GetOrCreate(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), progression.ID, again.ID)
}

// TestProgressionRepository_AddXP 测试累加经验并升级
func (suite *ProgressionRepositoryTestSuite) TestProgressionRepository_AddXP() {
	ctx := context.Background()
	user := suite.createTestUser("grower")

	// 记录不存在时应自动创建
	progression, gained, err := suite.repo.AddXP(ctx, user.ID, 50)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, gained)
	assert.Equal(suite.T(), 50, progression.XP)
	assert.Equal(suite.T(), 1, progression.Level)

	// 累计经验跨过2级阈值（106）
	progression, gained, err = suite.repo.AddXP(ctx, user.ID, 60)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, gained)
	assert.Equal(suite.T(), 110, progression.XP)
	assert.Equal(suite.T(), 2, progression.Level)
	assert.Equal(suite.T(), 1, progression.PerkPoints)

	// 落库后的记录应与返回值一致
	found, err := suite.repo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, found.Level)
	assert.Equal(suite.T(), 110, found.XP)
}

// TestProgressionRepository_SpendPerkPoint 测试消耗天赋点
func (suite *ProgressionRepositoryTestSuite) TestProgressionRepository_SpendPerkPoint() {
	ctx := context.Background()
	user := suite.createTestUser("perkuser")

	// 直接升到2级获得1点
	_, gained, err := suite.repo.AddXP(ctx, user.ID, models.XPForLevel(2))
	suite.Require().NoError(err)
	suite.Require().Equal(1, gained)

	progression, err := suite.repo.SpendPerkPoint(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, progression.PerkPoints)

	// 点数用尽后再消耗应失败
	_, err = suite.repo.SpendPerkPoint(ctx, user.ID)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "天赋点不足")
}

func TestProgressionRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ProgressionRepositoryTestSuite))
}
