package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	// 事务管理器
	txManager TransactionManager

	// 仓储实例（使用懒加载）
	userOnce sync.Once
	user     UserRepository

	userAuthOnce sync.Once
	userAuth     UserAuthRepository

	userSessionOnce sync.Once
	userSession     UserSessionRepository

	// 钱包相关
	walletOnce sync.Once
	wallet     WalletRepository

	walletTransactionOnce sync.Once
	walletTransaction     WalletTransactionRepository

	// 对战相关
	progressionOnce sync.Once
	progression     ProgressionRepository

	matchResultOnce sync.Once
	matchResult     MatchResultRepository

	ratingOnce sync.Once
	rating     RatingRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:        db,
		txManager: NewTransactionManager(db),
	}
}

// GetDB 获取数据库实例
func (m *Manager) GetDB() *gorm.DB {
	return m.db
}

// Transaction 获取事务管理器
func (m *Manager) Transaction() TransactionManager {
	return m.txManager
}

// User 获取用户仓储
func (m *Manager) User() UserRepository {
	m.userOnce.Do(func() {
		m.user = NewUserRepository(m.db)
	})
	return m.user
}

// UserAuth 获取用户认证仓储
func (m *Manager) UserAuth() UserAuthRepository {
	m.userAuthOnce.Do(func() {
		m.userAuth = NewUserAuthRepository(m.db)
	})
	return m.userAuth
}

// UserSession 获取用户会话仓储
func (m *Manager) UserSession() UserSessionRepository {
	m.userSessionOnce.Do(func() {
		m.userSession = NewUserSessionRepository(m.db)
	})
	return m.userSession
}

// Wallet 获取钱包仓储
func (m *Manager) Wallet() WalletRepository {
	m.walletOnce.Do(func() {
		m.wallet = NewWalletRepository(m.db)
	})
	return m.wallet
}

// WalletTransaction 获取生物币流水仓储
func (m *Manager) WalletTransaction() WalletTransactionRepository {
	m.walletTransactionOnce.Do(func() {
		m.walletTransaction = NewWalletTransactionRepository(m.db)
	})
	return m.walletTransaction
}

// Progression 获取玩家进度仓储
func (m *Manager) Progression() ProgressionRepository {
	m.progressionOnce.Do(func() {
		m.progression = NewProgressionRepository(m.db)
	})
	return m.progression
}

// MatchResult 获取对战结果仓储
func (m *Manager) MatchResult() MatchResultRepository {
	m.matchResultOnce.Do(func() {
		m.matchResult = NewMatchResultRepository(m.db)
	})
	return m.matchResult
}

// Rating 获取积分仓储
func (m *Manager) Rating() RatingRepository {
	m.ratingOnce.Do(func() {
		m.rating = NewRatingRepository(m.db)
	})
	return m.rating
}

// WithTransaction 在事务中执行操作
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.txManager.WithTransaction(ctx, fn)
}
