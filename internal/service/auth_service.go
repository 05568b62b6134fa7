package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/wfunc/floran-server/internal/errors"
	"github.com/wfunc/floran-server/internal/models"
	"github.com/wfunc/floran-server/internal/repository"
	"github.com/wfunc/floran-server/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserExists         = errors.New("用户已存在")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrSessionNotFound    = errors.New("会话不存在")
	ErrInvalidToken       = errors.New("无效的令牌")
	ErrTokenExpired       = errors.New("令牌已过期")
	ErrAccountLocked      = errors.New("账号已锁定，请稍后重试")
)

const (
	// 注册赠送的生物币
	registerBonusBC = 100

	// 连续登录失败锁定阈值与时长
	maxLoginAttempts = 5
	lockDuration     = 15 * time.Minute

	sessionLifetime = 30 * 24 * time.Hour
)

// authService 认证服务实现
type authService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	authRepo    repository.UserAuthRepository
	sessionRepo repository.UserSessionRepository
	walletRepo  repository.WalletRepository
	progRepo    repository.ProgressionRepository
	jwtManager  *utils.JWTManager
	log         *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	authRepo repository.UserAuthRepository,
	sessionRepo repository.UserSessionRepository,
	walletRepo repository.WalletRepository,
	progRepo repository.ProgressionRepository,
	jwtManager *utils.JWTManager,
	log *zap.Logger,
) AuthService {
	return &authService{
		db:          db,
		userRepo:    userRepo,
		authRepo:    authRepo,
		sessionRepo: sessionRepo,
		walletRepo:  walletRepo,
		progRepo:    progRepo,
		jwtManager:  jwtManager,
		log:         log,
	}
}

// Register 用户注册
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := s.validateRegisterRequest(req); err != nil {
		return nil, err
	}

	// 检查用户是否已存在
	if user, _ := s.userRepo.FindByUsername(ctx, req.Username); user != nil {
		return nil, fmt.Errorf("用户名已存在")
	}
	if user, _ := s.userRepo.FindByEmail(ctx, req.Email); user != nil {
		return nil, fmt.Errorf("邮箱已被使用")
	}

	// 开始事务
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Nickname: req.Nickname,
		Region:   req.Region,
		Status:   models.UserStatusActive,
	}
	if user.Nickname == "" {
		user.Nickname = req.Username
	}

	if err := s.userRepo.WithTx(tx).(repository.UserRepository).Create(ctx, user); err != nil {
		tx.Rollback()
		s.log.Error("创建用户失败", zap.Error(err))
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	// 创建认证信息
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	auth := &models.UserAuth{
		UserID:   user.ID,
		Password: hashedPassword,
	}
	if err := s.authRepo.WithTx(tx).(repository.UserAuthRepository).Create(ctx, auth); err != nil {
		tx.Rollback()
		s.log.Error("创建认证信息失败", zap.Error(err))
		return nil, fmt.Errorf("创建认证信息失败: %w", err)
	}

	// 创建钱包与进度
	wallet := &models.Wallet{UserID: user.ID}
	if err := s.walletRepo.WithTx(tx).(repository.WalletRepository).Create(ctx, wallet); err != nil {
		tx.Rollback()
		s.log.Error("创建钱包失败", zap.Error(err))
		return nil, fmt.Errorf("创建钱包失败: %w", err)
	}

	prog := &models.Progression{UserID: user.ID, Level: 1}
	if err := s.progRepo.WithTx(tx).(repository.ProgressionRepository).Create(ctx, prog); err != nil {
		tx.Rollback()
		s.log.Error("创建玩家进度失败", zap.Error(err))
		return nil, fmt.Errorf("创建玩家进度失败: %w", err)
	}

	// 创建会话
	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("生成会话ID失败: %w", err)
	}

	session := &models.UserSession{
		UserID:    user.ID,
		SessionID: sessionID,
		Token:     sessionID,
		IP:        req.IP,
		ExpireAt:  time.Now().Add(sessionLifetime),
	}
	if err := s.sessionRepo.WithTx(tx).(repository.UserSessionRepository).Create(ctx, session); err != nil {
		tx.Rollback()
		s.log.Error("创建会话失败", zap.Error(err))
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	// 注册奖励（带流水，独立于注册事务）
	if _, err := s.walletRepo.Credit(ctx, user.ID, registerBonusBC, "register_bonus", ""); err != nil {
		s.log.Warn("发放注册奖励失败", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	accessToken, refreshToken, err := s.issueTokens(user, sessionID)
	if err != nil {
		return nil, err
	}

	s.log.Info("用户注册成功", zap.Uint("user_id", user.ID), zap.String("username", user.Username))

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Login 用户登录
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	// 支持用户名或邮箱登录
	var (
		user *models.User
		err  error
	)
	if strings.Contains(req.Account, "@") {
		user, err = s.userRepo.FindByEmail(ctx, req.Account)
	} else {
		user, err = s.userRepo.FindByUsername(ctx, req.Account)
	}
	if err != nil || user == nil {
		s.log.Warn("登录失败：用户不存在", zap.String("account", req.Account))
		return nil, ErrInvalidCredentials
	}

	// 检查账号状态
	switch user.Status {
	case models.UserStatusBanned:
		return nil, apperrors.New(apperrors.ErrAccountBanned)
	case models.UserStatusFrozen:
		return nil, apperrors.New(apperrors.ErrAccountFrozen)
	}

	auth, err := s.authRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		s.log.Error("读取认证信息失败", zap.Error(err), zap.Uint("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	// 检查失败锁定
	if auth.LockedUntil != nil && auth.LockedUntil.After(time.Now()) {
		return nil, ErrAccountLocked
	}

	valid, err := utils.VerifyPassword(req.Password, auth.Password)
	if err != nil || !valid {
		s.log.Warn("登录失败：密码错误", zap.Uint("user_id", user.ID))
		attempts := auth.LoginAttempts + 1
		_ = s.authRepo.UpdateLoginAttempts(ctx, user.ID, attempts)
		if attempts >= maxLoginAttempts {
			_ = s.authRepo.LockAccount(ctx, user.ID, time.Now().Add(lockDuration))
		}
		return nil, ErrInvalidCredentials
	}

	// 创建会话
	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("生成会话ID失败: %w", err)
	}

	session := &models.UserSession{
		UserID:    user.ID,
		SessionID: sessionID,
		Token:     sessionID,
		IP:        req.IP,
		UserAgent: req.Device,
		ExpireAt:  time.Now().Add(sessionLifetime),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.log.Error("创建会话失败", zap.Error(err))
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}

	_ = s.userRepo.UpdateLastLogin(ctx, user.ID, req.IP)
	_ = s.authRepo.ResetLoginAttempts(ctx, user.ID)

	accessToken, refreshToken, err := s.issueTokens(user, sessionID)
	if err != nil {
		return nil, err
	}

	s.log.Info("用户登录成功", zap.Uint("user_id", user.ID), zap.String("username", user.Username))

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Logout 用户登出
func (s *authService) Logout(ctx context.Context, userID uint, token string) error {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return ErrInvalidToken
	}

	if err := s.sessionRepo.Delete(ctx, claims.SessionID); err != nil {
		s.log.Error("删除会话失败", zap.Error(err), zap.String("session_id", claims.SessionID))
		return fmt.Errorf("删除会话失败: %w", err)
	}

	s.log.Info("用户登出成功", zap.Uint("user_id", userID))
	return nil
}

// RefreshToken 刷新令牌
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != "refresh" {
		return nil, errors.New("不是刷新令牌")
	}

	session, err := s.sessionRepo.FindByToken(ctx, claims.SessionID)
	if err != nil || session == nil {
		return nil, ErrSessionNotFound
	}
	if session.ExpireAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(
		user.ID, user.Username, user.Email, user.Role, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("生成访问令牌失败: %w", err)
	}

	s.log.Info("令牌刷新成功", zap.Uint("user_id", user.ID))

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// ValidateToken 验证令牌并检查会话有效性
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.FindByToken(ctx, claims.SessionID)
	if err != nil || session == nil {
		return nil, ErrSessionNotFound
	}
	if session.ExpireAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}

	return &TokenClaims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.SessionID,
		IssuedAt:  claims.IssuedAt.Unix(),
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

// ValidateSession 验证会话
func (s *authService) ValidateSession(ctx context.Context, sessionID string) (*models.UserSession, error) {
	session, err := s.sessionRepo.FindByToken(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.ExpireAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}
	return session, nil
}

// RevokeAllSessions 撤销用户的全部会话
func (s *authService) RevokeAllSessions(ctx context.Context, userID uint) error {
	return s.sessionRepo.DeleteByUserID(ctx, userID)
}

// issueTokens 签发访问/刷新令牌
func (s *authService) issueTokens(user *models.User, sessionID string) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(
		user.ID, user.Username, user.Email, user.Role, sessionID)
	if err != nil {
		return "", "", fmt.Errorf("生成访问令牌失败: %w", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, sessionID)
	if err != nil {
		return "", "", fmt.Errorf("生成刷新令牌失败: %w", err)
	}
	return accessToken, refreshToken, nil
}

// validateRegisterRequest 验证注册请求
func (s *authService) validateRegisterRequest(req *RegisterRequest) error {
	if len(req.Username) < 3 || len(req.Username) > 20 {
		return errors.New("用户名长度必须在3-20个字符之间")
	}
	if !regexp.MustCompile(`^[a-zA-Z0-9_]+$`).MatchString(req.Username) {
		return errors.New("用户名只能包含字母、数字和下划线")
	}
	if !regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`).MatchString(req.Email) {
		return errors.New("邮箱格式不正确")
	}
	if len(req.Password) < 6 {
		return errors.New("密码长度至少6个字符")
	}
	if req.Password != req.ConfirmPassword {
		return errors.New("两次输入的密码不一致")
	}
	return nil
}
