package repository

import (
	"context"
	"errors"

	"github.com/wfunc/floran-server/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressionRepository 玩家进度仓储接口
type ProgressionRepository interface {
	BaseRepository
	Create(ctx context.Context, progression *models.Progression) error
	Update(ctx context.Context, progression *models.Progression) error
	FindByUserID(ctx context.Context, userID uint) (*models.Progression, error)
	GetOrCreate(ctx context.Context, userID uint) (*models.Progression, error)
	AddXP(ctx context.Context, userID uint, amount int) (*models.Progression, int, error)
	SpendPerkPoint(ctx context.Context, userID uint) (*models.Progression, error)
}

// progressionRepo 玩家进度仓储实现
type progressionRepo struct {
	*BaseRepo
}

// NewProgressionRepository 创建玩家进度仓储
func NewProgressionRepository(db *gorm.DB) ProgressionRepository {
	return &progressionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建进度记录
func (r *progressionRepo) Create(ctx context.Context, progression *models.Progression) error {
	return r.db.WithContext(ctx).Create(progression).Error
}

// Update 更新进度记录
func (r *progressionRepo) Update(ctx context.Context, progression *models.Progression) error {
	return r.db.WithContext(ctx).Save(progression).Error
}

// FindByUserID 根据用户ID查找进度
func (r *progressionRepo) FindByUserID(ctx context.Context, userID uint) (*models.Progression, error) {
	var progression models.Progression
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&progression).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("进度记录不存在")
		}
		return nil, err
	}
	return &progression, nil
}

// GetOrCreate 查找进度记录，不存在则创建1级记录
func (r *progressionRepo) GetOrCreate(ctx context.Context, userID uint) (*models.Progression, error) {
	var progression models.Progression
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&progression).Error
	if err == nil {
		return &progression, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progression = models.Progression{UserID: userID, Level: 1}
	if err := r.db.WithContext(ctx).Create(&progression).Error; err != nil {
		return nil, err
	}
	return &progression, nil
}

// AddXP 在事务中累加经验并结算升级，返回更新后的进度和获得的等级数
func (r *progressionRepo) AddXP(ctx context.Context, userID uint, amount int) (*models.Progression, int, error) {
	var progression models.Progression
	gained := 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&progression).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progression = models.Progression{UserID: userID, Level: 1}
			if err := tx.Create(&progression).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		gained = progression.AddXP(amount)
		return tx.Save(&progression).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return &progression, gained, nil
}

// SpendPerkPoint 消耗一个天赋点
func (r *progressionRepo) SpendPerkPoint(ctx context.Context, userID uint) (*models.Progression, error) {
	var progression models.Progression

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&progression).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("进度记录不存在")
			}
			return err
		}

		if progression.PerkPoints <= 0 {
			return errors.New("天赋点不足")
		}

		progression.PerkPoints--
		return tx.Save(&progression).Error
	})
	if err != nil {
		return nil, err
	}
	return &progression, nil
}

// WithTx 使用事务
func (r *progressionRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &progressionRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
