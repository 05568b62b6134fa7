package repository

import (
	"context"
	"errors"

	"github.com/wfunc/floran-server/internal/models"
	"gorm.io/gorm"
)

// MatchResultRepository 对战结果仓储接口
type MatchResultRepository interface {
	BaseRepository
	Create(ctx context.Context, result *models.MatchResult) error
	BatchCreate(ctx context.Context, results []*models.MatchResult) error
	FindByMatchID(ctx context.Context, matchID string) ([]*models.MatchResult, error)
	FindByUserID(ctx context.Context, userID uint, pagination *Pagination) ([]*models.MatchResult, error)
	CountByUserAndMode(ctx context.Context, userID uint, mode string) (int64, error)
	CountByUser(ctx context.Context, userID uint) (total int64, wins int64, err error)
}

// matchResultRepo 对战结果仓储实现
type matchResultRepo struct {
	*BaseRepo
}

// NewMatchResultRepository 创建对战结果仓储
func NewMatchResultRepository(db *gorm.DB) MatchResultRepository {
	return &matchResultRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建对战结果
func (r *matchResultRepo) Create(ctx context.Context, result *models.MatchResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

// BatchCreate 批量创建对战结果
func (r *matchResultRepo) BatchCreate(ctx context.Context, results []*models.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&results).Error
}

// FindByMatchID 根据对战ID查找所有参与者的结果
func (r *matchResultRepo) FindByMatchID(ctx context.Context, matchID string) ([]*models.MatchResult, error) {
	var results []*models.MatchResult
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.New("对战结果不存在")
	}
	return results, nil
}

// FindByUserID 查找用户的对战历史（分页）
func (r *matchResultRepo) FindByUserID(ctx context.Context, userID uint, pagination *Pagination) ([]*models.MatchResult, error) {
	var results []*models.MatchResult
	query := r.db.WithContext(ctx).Model(&models.MatchResult{}).Where("user_id = ?", userID)

	// 获取总数
	var total int64
	query.Count(&total)
	pagination.Total = total

	// 分页查询
	err := query.
		Limit(pagination.PageSize).
		Offset(pagination.Offset()).
		Order("played_at DESC").
		Find(&results).Error

	return results, err
}

// CountByUserAndMode 统计用户在指定模式下的对战次数
func (r *matchResultRepo) CountByUserAndMode(ctx context.Context, userID uint, mode string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MatchResult{}).
		Where("user_id = ? AND mode = ?", userID, mode).
		Count(&count).Error
	return count, err
}

// CountByUser 统计用户的总对战次数与胜场
func (r *matchResultRepo) CountByUser(ctx context.Context, userID uint) (int64, int64, error) {
	var total, wins int64
	if err := r.db.WithContext(ctx).
		Model(&models.MatchResult{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.MatchResult{}).
		Where("user_id = ? AND won = ?", userID, true).
		Count(&wins).Error; err != nil {
		return 0, 0, err
	}
	return total, wins, nil
}

// WithTx 使用事务
func (r *matchResultRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &matchResultRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
