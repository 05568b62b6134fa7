package database

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wfunc/floran-server/internal/logger"
	"github.com/wfunc/floran-server/internal/models"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 清理过期锁文件
	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移
	dbPath := getDBPath()
	if dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	migrationModels := []interface{}{
		// 用户相关
		&models.User{},
		&models.UserAuth{},
		&models.UserSession{},

		// 钱包相关
		&models.Wallet{},
		&models.WalletTransaction{},

		// 对战相关
		&models.Progression{},
		&models.MatchResult{},
		&models.Rating{},
	}

	logger.Info("开始数据库迁移...")

	if DB.Dialector.Name() == "sqlite" {
		// 迁移期间关闭外键约束，避免重建表时的问题
		DB.Exec("PRAGMA foreign_keys = OFF")
		defer DB.Exec("PRAGMA foreign_keys = ON")
	}

	for _, model := range migrationModels {
		if err := DB.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	if err := createIndexes(); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建数据库索引
func createIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)",
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",

		"CREATE INDEX IF NOT EXISTS idx_wallet_transactions_user_id ON wallet_transactions(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_wallet_transactions_reason ON wallet_transactions(reason)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_wallet_transactions_order_no ON wallet_transactions(order_no)",

		"CREATE INDEX IF NOT EXISTS idx_match_results_match_id ON match_results(match_id)",
		"CREATE INDEX IF NOT EXISTS idx_match_results_user_id ON match_results(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_match_results_played_at ON match_results(played_at)",

		"CREATE UNIQUE INDEX IF NOT EXISTS idx_ratings_user_mode ON ratings(user_id, mode)",
	}

	for _, idx := range indexes {
		if err := DB.Exec(idx).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", idx), zap.Error(err))
		}
	}

	logger.Info("数据库索引创建完成")
	return nil
}

// DropAllTables 删除所有表（仅用于测试环境）
func DropAllTables() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	var tables []string
	if err := DB.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tables).Error; err != nil {
		return err
	}

	for _, table := range tables {
		if err := DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Error; err != nil {
			logger.Error("删除表失败", zap.String("table", table), zap.Error(err))
			return err
		}
	}

	logger.Info("所有表已删除")
	return nil
}
