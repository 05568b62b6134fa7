package service

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/floran-server/internal/repository"
	"github.com/wfunc/floran-server/internal/utils"
)

// Config 服务配置
type Config struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		JWTSecret:          "your-secret-key-change-in-production",
		AccessTokenExpiry:  24 * time.Hour,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// Services 服务集合
type Services struct {
	Auth AuthService
	User UserService
	JWT  *utils.JWTManager
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, config *Config, log *zap.Logger) *Services {
	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	authRepo := repository.NewUserAuthRepository(db)
	sessionRepo := repository.NewUserSessionRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	progRepo := repository.NewProgressionRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	matchRepo := repository.NewMatchResultRepository(db)

	// 初始化JWT管理器
	jwtManager := utils.NewJWTManager(
		config.JWTSecret,
		config.AccessTokenExpiry,
		config.RefreshTokenExpiry,
	)

	// 初始化服务
	authService := NewAuthService(
		db,
		userRepo,
		authRepo,
		sessionRepo,
		walletRepo,
		progRepo,
		jwtManager,
		log,
	)

	userService := NewUserService(
		db,
		userRepo,
		authRepo,
		sessionRepo,
		walletRepo,
		progRepo,
		ratingRepo,
		matchRepo,
		log,
	)

	return &Services{
		Auth: authService,
		User: userService,
		JWT:  jwtManager,
	}
}
