// Package bootstrap 根据配置组装存储、缓存和短链接服务，供 server 和 shortctl 共用。
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"urlshorten/internal/config"
	"urlshorten/internal/migrations"
	"urlshorten/internal/model"
	"urlshorten/internal/repository"
	"urlshorten/internal/repository/cache"
	"urlshorten/internal/repository/gormstore"
	"urlshorten/internal/repository/postgres"
	"urlshorten/internal/shortcode"
	"urlshorten/internal/shortener"
	"urlshorten/pkg/database"
)

// Store 打开的存储以及释放它的函数
type Store struct {
	repository.LinkStore
	Close func()
}

// OpenStore 按 database.driver 打开存储并完成建表
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*Store, error) {
	switch cfg.Database.Driver {
	case "mysql", "sqlite":
		dsn := cfg.Database.DSN
		if cfg.Database.Driver == "mysql" {
			dsn = cfg.Database.MySQLDSN()
		}
		db, err := database.Open(database.Options{
			Driver:       cfg.Database.Driver,
			DSN:          dsn,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return nil, err
		}
		store := gormstore.New(db)
		if err := store.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return &Store{LinkStore: store, Close: closeFn}, nil

	case "postgres":
		store, err := postgres.Connect(ctx, postgres.PoolConfig{
			DSN:      cfg.Database.DSN,
			MaxConns: int32(cfg.Database.MaxOpenConns),
			MinConns: int32(cfg.Database.MaxIdleConns),
		})
		if err != nil {
			return nil, err
		}
		if err := migrations.NewMigrator(store.SQLDB(), logger).RunUp(); err != nil {
			store.Close()
			return nil, err
		}
		return &Store{LinkStore: store, Close: store.Close}, nil
	}
	return nil, fmt.Errorf("不支持的数据库驱动: %q", cfg.Database.Driver)
}

// WithCache 配置了 Redis 时为存储加上解析缓存
func WithCache(store repository.LinkStore, rdb *goredis.Client, cfg *config.Config, logger *zap.SugaredLogger) repository.LinkStore {
	if rdb == nil {
		return store
	}
	return cache.New(store, cache.NewRedisClient(rdb), cfg.Cache.TTL(), logger)
}

// ShortenerOptions 从配置生成分配参数
func ShortenerOptions(cfg *config.Config) shortener.Options {
	return shortener.Options{
		BaseURL:      cfg.App.BaseURL,
		CodeLength:   cfg.Shortener.CodeLength,
		MaxAttempts:  cfg.Shortener.MaxAttempts,
		MaxURLLength: cfg.Shortener.MaxURLLength,
		StoreTimeout: cfg.Shortener.StoreTimeout(),
	}
}

// NewShortener 创建分配器和解析器
func NewShortener(store repository.Store, cfg *config.Config, logger *zap.SugaredLogger) (*shortener.Allocator, *shortener.Resolver) {
	opts := ShortenerOptions(cfg)
	return shortener.NewAllocator(store, shortcode.NewGenerator(), opts, logger),
		shortener.NewResolver(store, opts, logger)
}

// EnsureAdmin 不存在时创建配置中的管理员账号
func EnsureAdmin(ctx context.Context, users repository.UserStore, authCfg config.Auth, logger *zap.SugaredLogger) error {
	if authCfg.AdminUsername == "" || authCfg.AdminPassword == "" {
		logger.Warn("未配置管理员账号，跳过创建")
		return nil
	}

	_, err := users.FindUserByUsername(ctx, authCfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	admin := model.User{
		Username: authCfg.AdminUsername,
		Email:    authCfg.AdminEmail,
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	if err := admin.SetPassword(authCfg.AdminPassword); err != nil {
		return err
	}
	if err := users.CreateUser(ctx, &admin); err != nil {
		return err
	}
	logger.Infow("✅ 默认管理员创建成功", "username", admin.Username)
	return nil
}
