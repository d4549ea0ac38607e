// Package redis 创建解析缓存和限流共用的 Redis 连接。
package redis

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPoolSize    = 20
	defaultDialTimeout = 5 * time.Second
)

// Options 连接参数，Host 为空表示不启用 Redis
type Options struct {
	Host        string
	Port        int
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
}

// Enabled 是否配置了 Redis
func (o Options) Enabled() bool {
	return o.Host != ""
}

// Addr host:port 形式的地址
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Connect 建立连接并 PING 一次。未启用时返回 nil, nil，调用方按无缓存处理。
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	if !opts.Enabled() {
		return nil, nil
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = defaultPoolSize
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr(),
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		DialTimeout: opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接 Redis %s 失败: %w", opts.Addr(), err)
	}
	return client, nil
}
