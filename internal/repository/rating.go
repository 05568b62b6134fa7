package repository

import (
	"context"
	"errors"

	"github.com/wfunc/floran-server/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 对战结果类型
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
	OutcomeDraw = "draw"
)

// 初始积分
const defaultRatingValue = 1200

// RatingRepository 积分仓储接口
type RatingRepository interface {
	BaseRepository
	FindByUserAndMode(ctx context.Context, userID uint, mode string) (*models.Rating, error)
	GetOrCreate(ctx context.Context, userID uint, mode string) (*models.Rating, error)
	RecordResult(ctx context.Context, userID uint, mode string, newValue int, outcome string) (*models.Rating, error)
	Top(ctx context.Context, mode string, limit int) ([]*models.Rating, error)
}

// ratingRepo 积分仓储实现
type ratingRepo struct {
	*BaseRepo
}

// NewRatingRepository 创建积分仓储
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// FindByUserAndMode 查找指定模式的积分记录
func (r *ratingRepo) FindByUserAndMode(ctx context.Context, userID uint, mode string) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND mode = ?", userID, mode).
		First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("积分记录不存在")
		}
		return nil, err
	}
	return &rating, nil
}

// GetOrCreate 查找积分记录，不存在则以初始积分创建
func (r *ratingRepo) GetOrCreate(ctx context.Context, userID uint, mode string) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND mode = ?", userID, mode).
		First(&rating).Error
	if err == nil {
		return &rating, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rating = models.Rating{UserID: userID, Mode: mode, Value: defaultRatingValue}
	if err := r.db.WithContext(ctx).Create(&rating).Error; err != nil {
		return nil, err
	}
	return &rating, nil
}

// RecordResult 在事务中写入新积分并更新胜负统计
func (r *ratingRepo) RecordResult(ctx context.Context, userID uint, mode string, newValue int, outcome string) (*models.Rating, error) {
	var rating models.Rating

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND mode = ?", userID, mode).
			First(&rating).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rating = models.Rating{UserID: userID, Mode: mode, Value: defaultRatingValue}
			if err := tx.Create(&rating).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		rating.Value = newValue
		switch outcome {
		case OutcomeWin:
			rating.Wins++
		case OutcomeLoss:
			rating.Losses++
		case OutcomeDraw:
			rating.Draws++
		default:
			return errors.New("未知的对战结果类型")
		}

		return tx.Save(&rating).Error
	})
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// Top 获取指定模式的积分排行
func (r *ratingRepo) Top(ctx context.Context, mode string, limit int) ([]*models.Rating, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var ratings []*models.Rating
	err := r.db.WithContext(ctx).
		Where("mode = ?", mode).
		Order("value DESC").
		Limit(limit).
		Find(&ratings).Error
	return ratings, err
}

// WithTx 使用事务
func (r *ratingRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &ratingRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
