package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/floran-server/internal/api"
	"github.com/wfunc/floran-server/internal/chat"
	"github.com/wfunc/floran-server/internal/config"
	"github.com/wfunc/floran-server/internal/database"
	"github.com/wfunc/floran-server/internal/errors"
	"github.com/wfunc/floran-server/internal/liveops"
	"github.com/wfunc/floran-server/internal/logger"
	"github.com/wfunc/floran-server/internal/matchmaking"
	"github.com/wfunc/floran-server/internal/repository"
	"github.com/wfunc/floran-server/internal/rewards"
	"github.com/wfunc/floran-server/internal/service"
	"github.com/wfunc/floran-server/internal/telemetry"
	ws "github.com/wfunc/floran-server/internal/websocket"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	db         *gorm.DB
	services   *service.Services
	liveops    *liveops.Service
	sink       *telemetry.Sink
	chat       *chat.Manager
	hub        *ws.Hub
	gateway    *ws.Gateway
	matchmaker *matchmaking.Service
	router     *api.Router
	httpServer *http.Server

	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	// 配置热加载：目前仅日志级别支持运行时调整
	config.Watch(func(c *config.Config) {
		logger.SetLevel(c.Log.Level)
	})

	printStartInfo(cfg)

	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:        cfg,
		logger:     logger.GetLogger(),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动植物对战服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "初始化组件失败")
	}

	if err := s.startServices(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "启动服务失败")
	}

	s.logger.Info("服务器启动成功",
		zap.String("http", fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)),
		zap.String("websocket_path", s.cfg.WebSocket.Path),
	)

	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	s.logger.Info("初始化组件...")

	// 数据库
	if err := s.initDatabase(); err != nil {
		return err
	}
	s.db = database.GetDB()

	// 业务服务
	jwtCfg := s.cfg.Security.JWT
	s.services = service.NewServices(s.db, &service.Config{
		JWTSecret:          jwtCfg.Secret,
		AccessTokenExpiry:  time.Duration(jwtCfg.ExpireHours) * time.Hour,
		RefreshTokenExpiry: time.Duration(jwtCfg.RefreshHours) * time.Hour,
	}, s.logger)

	// 运营活动
	s.liveops = liveops.NewService(s.logger)
	s.liveops.SetEvents(parseLiveopsEvents(s.cfg.Liveops.Events, s.logger))

	// 遥测
	s.sink = telemetry.NewSink(s.cfg.Telemetry.EventCapacity, s.logger)

	// 聊天
	s.chat = chat.NewManager(s.logger)

	// 连接层与对战网关
	repos := repository.NewManager(s.db)
	dispatcher := rewards.NewDispatcher(repos, s.liveops, s.sink, s.logger)
	s.hub = ws.NewHub(s.logger)
	s.gateway = ws.NewGateway(
		s.hub,
		dispatcher,
		s.chat,
		repos,
		api.NewTokenValidator(s.services.Auth, s.services.User),
		s.sink,
		s.logger,
	)

	// 匹配服务，配对回调交给网关
	s.matchmaker = matchmaking.NewService(s.gateway.HandlePair, s.logger)
	s.matchmaker.SetPassInterval(s.cfg.Matchmaking.TickInterval)
	s.gateway.AttachMatchmaker(s.matchmaker)

	// HTTP路由
	gin.SetMode(ginMode(s.cfg.Server.Mode))
	s.router = api.NewRouter(&api.RouterConfig{
		DB:              s.db,
		Services:        s.services,
		Liveops:         s.liveops,
		Sink:            s.sink,
		Hub:             s.hub,
		WSPath:          s.cfg.WebSocket.Path,
		CORSOrigin:      s.cfg.Server.CORSOrigin,
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
		Logger:          s.logger,
	})

	s.logger.Info("所有组件初始化完成")
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	s.logger.Info("初始化数据库...")

	if err := database.Init(&s.cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected() {
		return errors.New(errors.ErrDatabaseConnect, "数据库连接检查失败")
	}

	s.logger.Info("数据库初始化完成")
	return nil
}

// startServices 启动服务
func (s *Server) startServices() error {
	s.logger.Info("启动服务...")

	// 连接中心
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
	}()

	// 匹配轮询
	s.matchmaker.Start(s.ctx)

	// HTTP服务器
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router.GetEngine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("启动HTTP服务", zap.String("address", addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
		}
	}()

	s.logger.Info("所有服务启动完成")
	return nil
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))

	close(s.shutdownCh)
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 先停HTTP入口，再取消内部goroutine
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
		}
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return errors.New(errors.ErrTimeout, "关闭超时")
	}

	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}

	return nil
}

// parseLiveopsEvents 把配置中的活动转换为运营活动表，时间解析失败的条目跳过并告警
func parseLiveopsEvents(entries []config.LiveopsEventConfig, log *zap.Logger) []liveops.Event {
	events := make([]liveops.Event, 0, len(entries))
	for _, e := range entries {
		startsAt, err := time.Parse(time.RFC3339, e.StartsAt)
		if err != nil {
			log.Warn("活动开始时间无法解析", zap.String("event_id", e.ID), zap.Error(err))
			continue
		}
		endsAt, err := time.Parse(time.RFC3339, e.EndsAt)
		if err != nil {
			log.Warn("活动结束时间无法解析", zap.String("event_id", e.ID), zap.Error(err))
			continue
		}
		events = append(events, liveops.Event{
			ID:           e.ID,
			Name:         e.Name,
			Modes:        e.Modes,
			XPMultiplier: e.XPMultiplier,
			BCMultiplier: e.BCMultiplier,
			StartsAt:     startsAt,
			EndsAt:       endsAt,
		})
	}
	return events
}

// ginMode 把运行模式映射为gin模式
func ginMode(mode string) string {
	switch mode {
	case "production", "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("植物对战服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("植物对战服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  floran-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  FLORAN_SERVER_MODE     运行环境 (development/production/test)")
	fmt.Println("  FLORAN_CONFIG          配置文件路径")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  floran-server -config=/path/to/config.yaml")
	fmt.Println("  floran-server -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	fmt.Printf("Floran Server | 版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Printf("配置文件: %s\n", config.GetString("config_file"))
}
