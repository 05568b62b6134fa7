package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/floran-server/internal/errors"
	"github.com/wfunc/floran-server/internal/models"
	"gorm.io/gorm"
)

// WalletRepositoryTestSuite 钱包仓储测试套件
type WalletRepositoryTestSuite struct {
	suite.Suite
	db          *gorm.DB
	walletRepo  WalletRepository
	journalRepo WalletTransactionRepository
	userRepo    UserRepository
}

func (suite *WalletRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.walletRepo = NewWalletRepository(suite.db)
	suite.journalRepo = NewWalletTransactionRepository(suite.db)
	suite.userRepo = NewUserRepository(suite.db)
}

func (suite *WalletRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// 创建测试用户
func (suite *WalletRepositoryTestSuite) createTestUser(username string) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Status:   models.UserStatusActive,
	}
	err := suite.userRepo.Create(context.Background(), user)
	suite.Require().NoError(err)
	return user
}

// TestWalletRepository_Create 测试创建钱包
func (suite *WalletRepositoryTestSuite) TestWalletRepository_Create() {
	ctx := context.Background()
	user := suite.createTestUser("walletuser")

	wallet := &models.Wallet{
		UserID:     user.ID,
		BioCredits: 500,
	}

	err := suite.walletRepo.Create(ctx, wallet)
	assert.NoError(suite.T(), err)
	assert.NotZero(suite.T(), wallet.ID)

	// 验证数据
	found, err := suite.walletRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(500), found.BioCredits)
}

// TestWalletRepository_GetOrCreate 测试查找或创建钱包
func (suite *WalletRepositoryTestSuite) TestWalletRepository_GetOrCreate() {
	ctx := context.Background()
	user := suite.createTestUser("getorcreateuser")

	// 第一次调用应创建零余额钱包
	wallet, err := suite.walletRepo.GetOrCreate(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), wallet.BioCredits)

	// 第二次调用应返回同一个钱包
	again, err := suite.walletRepo.GetOrCreate(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), wallet.ID, again.ID)
}

// TestWalletRepository_Credit 测试入账并写流水
func (suite *WalletRepositoryTestSuite) TestWalletRepository_Credit() {
	ctx := context.Background()
	user := suite.createTestUser("credituser")

	_, err := suite.walletRepo.GetOrCreate(ctx, user.ID)
	suite.Require().NoError(err)

	wallet, err := suite.walletRepo.Credit(ctx, user.ID, 48, "match_PVE_BOT_abc123", "abc123")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(48), wallet.BioCredits)
	assert.Equal(suite.T(), int64(48), wallet.TotalEarned)

	// 流水记录应包含变动前后余额
	journals, err := suite.journalRepo.FindByUserID(ctx, user.ID, NewPagination(1, 10))
	assert.NoError(suite.T(), err)
	suite.Require().Len(journals, 1)
	assert.Equal(suite.T(), int64(48), journals[0].Amount)
	assert.Equal(suite.T(), int64(0), journals[0].BeforeBalance)
	assert.Equal(suite.T(), int64(48), journals[0].AfterBalance)
	assert.Equal(suite.T(), "match_PVE_BOT_abc123", journals[0].Reason)
	assert.NotEmpty(suite.T(), journals[0].OrderNo)
}

// TestWalletRepository_Debit 测试支出并写流水
func (suite *WalletRepositoryTestSuite) TestWalletRepository_Debit() {
	ctx := context.Background()
	user := suite.createTestUser("debituser")

	_, err := suite.walletRepo.GetOrCreate(ctx, user.ID)
	suite.Require().NoError(err)
	_, err = suite.walletRepo.Credit(ctx, user.ID, 100, "match_PVP_CASUAL_m1", "m1")
	suite.Require().NoError(err)

	wallet, err := suite.walletRepo.Debit(ctx, user.ID, 60, "shop_fertilizer_pack", "fertilizer_pack")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(40), wallet.BioCredits)
	assert.Equal(suite.T(), int64(60), wallet.TotalSpent)

	// 支出流水的金额为负
	journals, err := suite.journalRepo.FindByReason(ctx, "shop_fertilizer_pack", NewPagination(1, 10))
	assert.NoError(suite.T(), err)
	suite.Require().Len(journals, 1)
	assert.Equal(suite.T(), int64(-60), journals[0].Amount)
	assert.Equal(suite.T(), int64(100), journals[0].BeforeBalance)
	assert.Equal(suite.T(), int64(40), journals[0].AfterBalance)
}

// TestWalletRepository_DebitInsufficient 测试余额不足时支出失败
func (suite *WalletRepositoryTestSuite) TestWalletRepository_DebitInsufficient() {
	ctx := context.Background()
	user := suite.createTestUser("pooruser")

	_, err := suite.walletRepo.GetOrCreate(ctx, user.ID)
	suite.Require().NoError(err)
	_, err = suite.walletRepo.Credit(ctx, user.ID, 30, "match_PVE_BOT_m2", "m2")
	suite.Require().NoError(err)

	// 余额不足应返回错误码且不写流水
	_, err = suite.walletRepo.Debit(ctx, user.ID, 50, "shop_seed_box", "seed_box")
	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), apperrors.ErrInsufficientBC, apperrors.GetCode(err))

	wallet, err := suite.walletRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(30), wallet.BioCredits)

	journals, err := suite.journalRepo.FindByReason(ctx, "shop_seed_box", NewPagination(1, 10))
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), journals, 0)
}

// TestWalletRepository_FindByUserID_NotFound 测试查找不存在的钱包
func (suite *WalletRepositoryTestSuite) TestWalletRepository_FindByUserID_NotFound() {
	ctx := context.Background()

	_, err := suite.walletRepo.FindByUserID(ctx, 99999)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "钱包不存在")
}

// TestWalletTransactionRepository_FindByOrderNo 测试根据订单号查找流水
func (suite *WalletRepositoryTestSuite) TestWalletTransactionRepository_FindByOrderNo() {
	ctx := context.Background()
	user := suite.createTestUser("orderuser")

	_, err := suite.walletRepo.GetOrCreate(ctx, user.ID)
	suite.Require().NoError(err)
	_, err = suite.walletRepo.Credit(ctx, user.ID, 20, "match_PVP_RANKED_m3", "m3")
	suite.Require().NoError(err)

	journals, err := suite.journalRepo.FindByUserID(ctx, user.ID, NewPagination(1, 10))
	suite.Require().NoError(err)
	suite.Require().Len(journals, 1)

	found, err := suite.journalRepo.FindByOrderNo(ctx, journals[0].OrderNo)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), journals[0].ID, found.ID)

	// 不存在的订单号
	_, err = suite.journalRepo.FindByOrderNo(ctx, "no-such-order")
	assert.Error(suite.T(), err)
}

func TestWalletRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(WalletRepositoryTestSuite))
}
