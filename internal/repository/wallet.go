package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/floran-server/internal/errors"
	"github.com/wfunc/floran-server/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository 钱包仓储接口
type WalletRepository interface {
	BaseRepository
	Create(ctx context.Context, wallet *models.Wallet) error
	FindByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	GetOrCreate(ctx context.Context, userID uint) (*models.Wallet, error)
	LockForUpdate(ctx context.Context, userID uint) (*models.Wallet, error)
	Credit(ctx context.Context, userID uint, amount int64, reason, refID string) (*models.Wallet, error)
	Debit(ctx context.Context, userID uint, amount int64, reason, refID string) (*models.Wallet, error)
}

// walletRepo 钱包仓储实现
type walletRepo struct {
	*BaseRepo
}

// NewWalletRepository 创建钱包仓储
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建钱包
func (r *walletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

// FindByUserID 根据用户ID查找钱包
func (r *walletRepo) FindByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("钱包不存在")
		}
		return nil, err
	}
	return &wallet, nil
}

// GetOrCreate 查找钱包，不存在则创建零余额钱包
func (r *walletRepo) GetOrCreate(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	wallet = models.Wallet{UserID: userID}
	if err := r.db.WithContext(ctx).Create(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// LockForUpdate 锁定钱包用于更新（悲观锁）
func (r *walletRepo) LockForUpdate(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("钱包不存在")
		}
		return nil, err
	}
	return &wallet, nil
}

// Credit 入账生物币并写流水（同一事务内完成，余额钳制在0以上）
func (r *walletRepo) Credit(ctx context.Context, userID uint, amount int64, reason, refID string) (*models.Wallet, error) {
	return r.apply(ctx, userID, amount, reason, refID)
}

// Debit 支出生物币并写流水，余额不足返回错误且不写任何数据
func (r *walletRepo) Debit(ctx context.Context, userID uint, amount int64, reason, refID string) (*models.Wallet, error) {
	if amount < 0 {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "支出金额不能为负")
	}
	return r.apply(ctx, userID, -amount, reason, refID)
}

// apply 在事务中变更余额并记录流水
func (r *walletRepo) apply(ctx context.Context, userID uint, amount int64, reason, refID string) (*models.Wallet, error) {
	var wallet models.Wallet

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("钱包不存在")
			}
			return err
		}

		if amount < 0 && !wallet.CanSpend(-amount) {
			return apperrors.Newf(apperrors.ErrInsufficientBC,
				"生物币不足: 余额=%d 需要=%d", wallet.BioCredits, -amount)
		}

		before := wallet.BioCredits
		wallet.Apply(amount)

		if err := tx.Save(&wallet).Error; err != nil {
			return err
		}

		journal := &models.WalletTransaction{
			UserID:        userID,
			OrderNo:       uuid.NewString(),
			Amount:        amount,
			BeforeBalance: before,
			AfterBalance:  wallet.BioCredits,
			Reason:        reason,
			RefID:         refID,
		}
		return tx.Create(journal).Error
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// WithTx 使用事务
func (r *walletRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &walletRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}

// WalletTransactionRepository 生物币流水仓储接口
type WalletTransactionRepository interface {
	BaseRepository
	Create(ctx context.Context, journal *models.WalletTransaction) error
	FindByOrderNo(ctx context.Context, orderNo string) (*models.WalletTransaction, error)
	FindByUserID(ctx context.Context, userID uint, pagination *Pagination) ([]*models.WalletTransaction, error)
	FindByReason(ctx context.Context, reason string, pagination *Pagination) ([]*models.WalletTransaction, error)
}

// walletTransactionRepo 生物币流水仓储实现
type walletTransactionRepo struct {
	*BaseRepo
}

// NewWalletTransactionRepository 创建生物币流水仓储
func NewWalletTransactionRepository(db *gorm.DB) WalletTransactionRepository {
	return &walletTransactionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建流水记录
func (r *walletTransactionRepo) Create(ctx context.Context, journal *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(journal).Error
}

// FindByOrderNo 根据订单号查找流水
func (r *walletTransactionRepo) FindByOrderNo(ctx context.Context, orderNo string) (*models.WalletTransaction, error) {
	var journal models.WalletTransaction
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&journal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("流水记录不存在")
		}
		return nil, err
	}
	return &journal, nil
}

// FindByUserID 查找用户的流水记录
func (r *walletTransactionRepo) FindByUserID(ctx context.Context, userID uint, pagination *Pagination) ([]*models.WalletTransaction, error) {
	var journals []*models.WalletTransaction
	query := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("user_id = ?", userID)

	// 获取总数
	var total int64
	query.Count(&total)
	pagination.Total = total

	// 分页查询
	err := query.
		Limit(pagination.PageSize).
		Offset(pagination.Offset()).
		Order("created_at DESC").
		Find(&journals).Error

	return journals, err
}

// FindByReason 根据来源查找流水
func (r *walletTransactionRepo) FindByReason(ctx context.Context, reason string, pagination *Pagination) ([]*models.WalletTransaction, error) {
	var journals []*models.WalletTransaction
	query := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("reason = ?", reason)

	// 获取总数
	var total int64
	query.Count(&total)
	pagination.Total = total

	// 分页查询
	err := query.
		Limit(pagination.PageSize).
		Offset(pagination.Offset()).
		Order("created_at DESC").
		Find(&journals).Error

	return journals, err
}

// WithTx 使用事务
func (r *walletTransactionRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &walletTransactionRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
