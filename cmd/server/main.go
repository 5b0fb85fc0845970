package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/middlewares/server/recovery"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
	"github.com/hertz-contrib/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"

	"resume-chat-go/internal/agent"
	"resume-chat-go/internal/api/handler"
	"resume-chat-go/internal/api/router"
	"resume-chat-go/internal/config"
	appLogger "resume-chat-go/internal/logger"
	"resume-chat-go/internal/resume"
	"resume-chat-go/internal/types"
)

func main() {
	// .env仅用于本地开发，文件不存在时静默跳过
	_ = godotenv.Load()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径（留空时按常见位置查找）")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)

	if err := cfg.Validate(); err != nil {
		glog.Fatalf("配置校验失败: %v", err)
	}
	glog.Info("配置加载成功")

	store := resume.NewStore(cfg.Resume.DataPath)
	if _, err := store.Load(context.Background()); err != nil {
		// 启动时的预检只告警不退出：文件可在运行期补上，工具调用时会重新读取
		glog.Warnf("简历数据预检失败: %v", err)
	} else {
		glog.Infof("简历数据加载成功: %s", store.Path())
	}

	chatModel, err := agent.NewOpenAIChatModel(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.APIURL,
		float32(cfg.OpenAI.Temperature),
	)
	if err != nil {
		glog.Fatalf("初始化模型客户端失败: %v", err)
	}

	memory := buildChatMemory(cfg)

	resumeAgent, err := agent.NewResumeAgent(
		context.Background(),
		chatModel,
		resume.Tools(store),
		memory,
		cfg.Resume.OwnerName,
		cfg.Agent.MaxToolRounds,
	)
	if err != nil {
		glog.Fatalf("初始化简历代理失败: %v", err)
	}
	glog.Info("简历代理初始化成功")

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)

	h.Use(recovery.Recovery(recovery.WithRecoveryHandler(func(c context.Context, ctx *app.RequestContext, err interface{}, stack []byte) {
		glog.CtxErrorf(c, "请求处理panic: %v\n%s", err, stack)
		message := "An unexpected error occurred"
		if cfg.Server.Debug {
			message = "panic: " + string(stack)
		}
		ctx.JSON(consts.StatusInternalServerError, types.ErrorResponse{
			Error:   "Internal server error",
			Message: message,
			Type:    "panic",
		})
	})))

	h.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Session-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 访问日志，带请求ID
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		requestID := ""
		if id, err := uuid.NewV7(); err == nil {
			requestID = id.String()
		}
		start := time.Now()
		ctx.Next(c)
		appLogger.Info().
			Str("request_id", requestID).
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", ctx.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
	})

	router.RegisterRoutes(h, handler.NewChatHandler(cfg, resumeAgent))
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// buildChatMemory 根据配置选择会话存储：
// 配置了Redis地址用Redis，否则用进程内存储（重启即失）。
func buildChatMemory(cfg *config.Config) agent.ChatMemory {
	if cfg.Redis.Address == "" {
		glog.Info("使用进程内会话存储")
		return agent.NewInMemoryChatMemory()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	memory, err := agent.NewRedisChatMemory(client, cfg.Redis.KeyPrefix, time.Duration(cfg.Redis.TTLMinutes)*time.Minute)
	if err != nil {
		glog.Fatalf("初始化Redis会话存储失败: %v", err)
	}
	glog.Infof("使用Redis会话存储: %s", cfg.Redis.Address)
	return memory
}

// initLogger 初始化zerolog并接管hertz的日志输出，同时写控制台和文件
func initLogger(cfg *config.Config) {
	logFilePath := filepath.Join("logs", "app.log")
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		log.Fatalf("创建日志目录失败: %v", err)
	}
	fileWriter, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("无法打开日志文件 %s: %v", logFilePath, err)
	}

	appLogger.Init(appLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	}, fileWriter)

	glog.SetLogger(hertzadapter.From(appLogger.Logger))
	level, err := zerolog.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	switch level {
	case zerolog.DebugLevel:
		glog.SetLevel(glog.LevelDebug)
	case zerolog.WarnLevel:
		glog.SetLevel(glog.LevelWarn)
	case zerolog.ErrorLevel:
		glog.SetLevel(glog.LevelError)
	default:
		glog.SetLevel(glog.LevelInfo)
	}
}
