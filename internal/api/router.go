package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/floran-server/internal/liveops"
	"github.com/wfunc/floran-server/internal/middleware"
	"github.com/wfunc/floran-server/internal/repository"
	"github.com/wfunc/floran-server/internal/service"
	"github.com/wfunc/floran-server/internal/telemetry"
	ws "github.com/wfunc/floran-server/internal/websocket"
)

// RouterConfig 路由器依赖
type RouterConfig struct {
	DB              *gorm.DB
	Services        *service.Services
	Liveops         *liveops.Service
	Sink            *telemetry.Sink
	Hub             *ws.Hub
	WSPath          string
	CORSOrigin      string
	ReadBufferSize  int
	WriteBufferSize int
	Logger          *zap.Logger
}

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	services       *service.Services
	authHandler    *AuthHandler
	metaHandler    *MetaHandler
	shopHandler    *ShopHandler
	adminHandler   *AdminHandler
	wsHandler      *WebSocketHandler
	authMiddleware *middleware.AuthMiddleware
	wsPath         string
	log            *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(cfg *RouterConfig) *Router {
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(cors.New(corsConfig(cfg.CORSOrigin)))

	wsPath := cfg.WSPath
	if wsPath == "" {
		wsPath = "/ws"
	}

	router := &Router{
		engine:         engine,
		db:             cfg.DB,
		services:       cfg.Services,
		authHandler:    NewAuthHandler(cfg.Services.Auth, cfg.Services.User),
		metaHandler:    NewMetaHandler(cfg.Liveops),
		shopHandler:    NewShopHandler(repository.NewWalletRepository(cfg.DB), cfg.Logger),
		adminHandler:   NewAdminHandler(cfg.Sink, cfg.Services.User),
		wsHandler:      NewWebSocketHandler(cfg.Hub, cfg.ReadBufferSize, cfg.WriteBufferSize, cfg.Logger),
		authMiddleware: middleware.NewAuthMiddleware(cfg.Services.Auth),
		wsPath:         wsPath,
		log:            cfg.Logger,
	}

	router.setupRoutes()

	return router
}

// corsConfig 跨域配置，空origin或"*"表示全放行
func corsConfig(origin string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "X-Access-Token")
	if origin == "" || origin == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = []string{origin}
	}
	return c
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// API文档
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	api := r.engine.Group("/api")
	{
		// 认证相关路由
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)

			authRequired := auth.Group("")
			authRequired.Use(r.authMiddleware.RequireAuth())
			{
				authRequired.GET("/me", r.authHandler.Me)
				authRequired.POST("/logout", r.authHandler.Logout)
				authRequired.PUT("/password", r.authHandler.UpdatePassword)
			}
		}

		// 静态数据路由（无需认证）
		meta := api.Group("/meta")
		{
			meta.GET("/florans", r.metaHandler.Florans)
			meta.GET("/items", r.metaHandler.Items)
			meta.GET("/arenas", r.metaHandler.Arenas)
			meta.GET("/events", r.metaHandler.Events)
		}

		// 商店路由
		shop := api.Group("/shop")
		{
			shop.GET("/catalog", r.shopHandler.Catalog)
			shop.POST("/buy", r.authMiddleware.RequireAuth(), r.shopHandler.Buy)
		}

		// 管理员路由
		admin := api.Group("/admin")
		admin.Use(r.authMiddleware.RequireRole("admin"))
		{
			admin.GET("/telemetry", r.adminHandler.Telemetry)
			admin.GET("/online", r.wsHandler.OnlineCount)
			admin.PUT("/users/:id/status", r.adminHandler.UpdateUserStatus)
		}
	}

	// WebSocket入口，认证在连接内的 auth/hello 消息完成
	r.engine.GET(r.wsPath, r.wsHandler.Serve)

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("启动API服务", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
