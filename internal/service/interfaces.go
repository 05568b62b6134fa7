package service

import (
	"context"

	"github.com/wfunc/floran-server/internal/models"
)

// AuthService 认证服务接口
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, userID uint, token string) error
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	ValidateSession(ctx context.Context, sessionID string) (*models.UserSession, error)
	RevokeAllSessions(ctx context.Context, userID uint) error
}

// UserService 用户服务接口
type UserService interface {
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	GetProfile(ctx context.Context, userID uint) (*UserProfile, error)
	UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
	UpdateUserStatus(ctx context.Context, userID uint, status string) error
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	Nickname        string `json:"nickname"`
	Region          string `json:"region"`
	IP              string `json:"-"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Account  string `json:"account" binding:"required"` // 用户名或邮箱
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
	Device   string `json:"-"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
}

// TokenClaims 令牌声明
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// UserProfile 玩家档案：账号信息 + 成长与对战统计
type UserProfile struct {
	User        *models.User   `json:"user"`
	Level       int            `json:"level"`
	XP          int            `json:"xp"`
	NextLevelXP int            `json:"next_level_xp"`
	PerkPoints  int            `json:"perk_points"`
	BioCredits  int64          `json:"bio_credits"`
	Ratings     map[string]int `json:"ratings"`
	Matches     int64          `json:"matches"`
	Wins        int64          `json:"wins"`
}
