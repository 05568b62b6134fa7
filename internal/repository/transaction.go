package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TransactionManager 事务管理器接口
type TransactionManager interface {
	// Begin 开始事务
	Begin(ctx context.Context) (*Transaction, error)
	// WithTransaction 在事务中执行函数
	WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error
}

// Transaction 事务包装器
type Transaction struct {
	tx         *gorm.DB
	ctx        context.Context
	committed  bool
	rolledback bool

	// 事务中的仓储实例
	user        UserRepository
	userAuth    UserAuthRepository
	userSession UserSessionRepository

	wallet            WalletRepository
	walletTransaction WalletTransactionRepository

	progression ProgressionRepository
	matchResult MatchResultRepository
	rating      RatingRepository
}

// txManager 事务管理器实现
type txManager struct {
	db *gorm.DB
}

// NewTransactionManager 创建事务管理器
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &txManager{db: db}
}

// Begin 开始事务
func (m *txManager) Begin(ctx context.Context) (*Transaction, error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Transaction{
		tx:  tx,
		ctx: ctx,
	}, nil
}

// WithTransaction 在事务中执行函数
func (m *txManager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	// 确保事务被处理
	defer func() {
		if !tx.committed && !tx.rolledback {
			tx.Rollback()
		}
	}()

	// 执行业务逻辑
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	// 提交事务
	return tx.Commit()
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if t.committed {
		return fmt.Errorf("事务已提交")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Commit().Error; err != nil {
		return err
	}

	t.committed = true
	return nil
}

// Rollback 回滚事务
func (t *Transaction) Rollback() error {
	if t.committed {
		return fmt.Errorf("事务已提交，无法回滚")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Rollback().Error; err != nil {
		return err
	}

	t.rolledback = true
	return nil
}

// GetDB 获取事务中的数据库实例
func (t *Transaction) GetDB() *gorm.DB {
	return t.tx
}

// User 获取事务中的用户仓储
func (t *Transaction) User() UserRepository {
	if t.user == nil {
		t.user = &userRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.user
}

// UserAuth 获取事务中的用户认证仓储
func (t *Transaction) UserAuth() UserAuthRepository {
	if t.userAuth == nil {
		t.userAuth = &userAuthRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.userAuth
}

// UserSession 获取事务中的用户会话仓储
func (t *Transaction) UserSession() UserSessionRepository {
	if t.userSession == nil {
		t.userSession = &userSessionRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.userSession
}

// Wallet 获取事务中的钱包仓储
func (t *Transaction) Wallet() WalletRepository {
	if t.wallet == nil {
		t.wallet = &walletRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.wallet
}

// WalletTransaction 获取事务中的生物币流水仓储
func (t *Transaction) WalletTransaction() WalletTransactionRepository {
	if t.walletTransaction == nil {
		t.walletTransaction = &walletTransactionRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.walletTransaction
}

// Progression 获取事务中的玩家进度仓储
func (t *Transaction) Progression() ProgressionRepository {
	if t.progression == nil {
		t.progression = &progressionRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.progression
}

// MatchResult 获取事务中的对战结果仓储
func (t *Transaction) MatchResult() MatchResultRepository {
	if t.matchResult == nil {
		t.matchResult = &matchResultRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.matchResult
}

// Rating 获取事务中的积分仓储
func (t *Transaction) Rating() RatingRepository {
	if t.rating == nil {
		t.rating = &ratingRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.rating
}
