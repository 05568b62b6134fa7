package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/floran-server/internal/models"
	"github.com/wfunc/floran-server/internal/repository"
	"github.com/wfunc/floran-server/internal/utils"
)

// userService 用户服务实现
type userService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	authRepo    repository.UserAuthRepository
	sessionRepo repository.UserSessionRepository
	walletRepo  repository.WalletRepository
	progRepo    repository.ProgressionRepository
	ratingRepo  repository.RatingRepository
	matchRepo   repository.MatchResultRepository
	log         *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	authRepo repository.UserAuthRepository,
	sessionRepo repository.UserSessionRepository,
	walletRepo repository.WalletRepository,
	progRepo repository.ProgressionRepository,
	ratingRepo repository.RatingRepository,
	matchRepo repository.MatchResultRepository,
	log *zap.Logger,
) UserService {
	return &userService{
		db:          db,
		userRepo:    userRepo,
		authRepo:    authRepo,
		sessionRepo: sessionRepo,
		walletRepo:  walletRepo,
		progRepo:    progRepo,
		ratingRepo:  ratingRepo,
		matchRepo:   matchRepo,
		log:         log,
	}
}

// GetUserByID 根据ID获取用户
func (s *userService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("获取用户失败", zap.Error(err), zap.Uint("user_id", userID))
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}
	return user, nil
}

// GetProfile 聚合用户档案：基础信息、进度、钱包、积分与战绩
func (s *userService) GetProfile(ctx context.Context, userID uint) (*UserProfile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}

	prog, err := s.progRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取玩家进度失败: %w", err)
	}

	wallet, err := s.walletRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取钱包失败: %w", err)
	}

	ratings := make(map[string]int)
	for _, mode := range []string{models.ModePVPCasual, models.ModePVPRanked} {
		rating, err := s.ratingRepo.FindByUserAndMode(ctx, userID, mode)
		if err != nil {
			continue
		}
		ratings[mode] = rating.Value
	}

	matches, wins, err := s.matchRepo.CountByUser(ctx, userID)
	if err != nil {
		s.log.Warn("统计战绩失败", zap.Error(err), zap.Uint("user_id", userID))
	}

	return &UserProfile{
		User:        user,
		Level:       prog.Level,
		XP:          prog.XP,
		NextLevelXP: models.XPForLevel(prog.Level + 1),
		PerkPoints:  prog.PerkPoints,
		BioCredits:  wallet.BioCredits,
		Ratings:     ratings,
		Matches:     matches,
		Wins:        wins,
	}, nil
}

// UpdatePassword 更新密码，成功后撤销全部会话
func (s *userService) UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	auth, err := s.authRepo.FindByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("获取认证信息失败: %w", err)
	}

	valid, err := utils.VerifyPassword(oldPassword, auth.Password)
	if err != nil || !valid {
		return errors.New("旧密码不正确")
	}

	if len(newPassword) < 6 {
		return errors.New("新密码长度至少6个字符")
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}

	if err := s.authRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		s.log.Error("更新密码失败", zap.Error(err), zap.Uint("user_id", userID))
		return fmt.Errorf("更新密码失败: %w", err)
	}

	// 改密后强制所有设备重新登录
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		s.log.Warn("撤销会话失败", zap.Error(err), zap.Uint("user_id", userID))
	}

	s.log.Info("密码更新成功", zap.Uint("user_id", userID))
	return nil
}

// UpdateUserStatus 更新用户状态（管理操作）
func (s *userService) UpdateUserStatus(ctx context.Context, userID uint, status string) error {
	validStatuses := map[string]bool{
		models.UserStatusActive: true,
		models.UserStatusFrozen: true,
		models.UserStatusBanned: true,
	}
	if !validStatuses[status] {
		return errors.New("无效的状态")
	}

	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		s.log.Error("更新用户状态失败", zap.Error(err), zap.Uint("user_id", userID), zap.String("status", status))
		return fmt.Errorf("更新状态失败: %w", err)
	}

	// 封禁/冻结时踢掉全部在线会话
	if status != models.UserStatusActive {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			s.log.Warn("撤销会话失败", zap.Error(err), zap.Uint("user_id", userID))
		}
	}

	s.log.Info("用户状态已更新", zap.Uint("user_id", userID), zap.String("status", status))
	return nil
}
