package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "urlshorten/docs"
	"urlshorten/internal/bootstrap"
	"urlshorten/internal/config"
	"urlshorten/internal/handler"
	"urlshorten/internal/middleware"
	auth "urlshorten/pkg/jwt"
	"urlshorten/pkg/logger"
	"urlshorten/pkg/redis"
)

// @title urlshorten API
// @version 1.0
// @description 短链接服务：分配唯一短码、跳转并统计点击数。
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Bearer <token>

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("配置加载失败: %v", err))
	}

	logger.InitLogger(logger.Options{
		Level:      cfg.Log.Level,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	defer func() {
		if err := logger.Logger.Sync(); err != nil {
			fmt.Println("日志同步失败:", err)
		}
	}()
	sugaredLogger := zap.S()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg, sugaredLogger)
	if err != nil {
		sugaredLogger.Fatalf("数据库初始化失败: %v", err)
	}
	defer store.Close()
	sugaredLogger.Infow("✅ 数据库连接成功", "driver", cfg.Database.Driver)

	var rdb *goredis.Client
	if cfg.Cache.Host != "" {
		rdb, err = redis.Connect(ctx, redis.Options{
			Host: cfg.Cache.Host, Port: cfg.Cache.Port, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
		})
		if err != nil {
			sugaredLogger.Warnf("缓存连接失败，将直接访问数据库: %v", err)
			rdb = nil
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					sugaredLogger.Errorf("关闭 Redis 连接失败: %v", err)
				}
			}()
			sugaredLogger.Info("✅ 缓存连接成功")
		}
	}

	links := bootstrap.WithCache(store.LinkStore, rdb, cfg, sugaredLogger)
	allocator, resolver := bootstrap.NewShortener(links, cfg, sugaredLogger)

	tokenManager := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.ExpirationHours)
	if err := bootstrap.EnsureAdmin(ctx, links, cfg.Auth, sugaredLogger); err != nil {
		sugaredLogger.Errorf("创建管理员失败: %v", err)
	}

	if cfg.App.Mode == "production" || cfg.App.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.GinZapLogger(logger.Logger))
	router.Use(middleware.GinZapRecovery(logger.Logger))
	router.Use(middleware.RateLimit(rdb, &cfg.RateLimit, sugaredLogger))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handler.RegisterRoutes(router,
		handler.NewShortLinkHandler(allocator, resolver, links, sugaredLogger),
		handler.NewAdminHandler(links, cfg.Shortener.MaxURLLength, sugaredLogger),
		handler.NewAuthHandler(links, tokenManager, sugaredLogger),
		middleware.AuthMiddleware(tokenManager),
		middleware.AdminMiddleware(),
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		sugaredLogger.Infof("🚀 服务启动成功, 访问 http://localhost:%d", cfg.Server.Port)
		sugaredLogger.Infof("📚 Swagger 文档地址: http://localhost:%d/swagger/index.html", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugaredLogger.Fatalf("服务启动失败: %v", err)
		}
	}()

	<-ctx.Done()
	sugaredLogger.Info("收到退出信号，开始关闭服务")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugaredLogger.Errorf("服务关闭失败: %v", err)
	}
	sugaredLogger.Info("服务已退出")
}
