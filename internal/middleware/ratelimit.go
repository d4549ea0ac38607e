package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"urlshorten/internal/config"
)

// Limiter 判断某个客户端此刻是否还能发起请求
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// counter 固定窗口计数需要的 Redis 命令
type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisWindowLimiter 基于 Redis INCR + EXPIRE 的固定窗口限流，多实例共享计数
type RedisWindowLimiter struct {
	client counter
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisWindowLimiter 每个 window 内最多 limit 次请求
func NewRedisWindowLimiter(client counter, limit int64, window time.Duration) *RedisWindowLimiter {
	return &RedisWindowLimiter{client: client, limit: limit, window: window, now: time.Now}
}

func (l *RedisWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, slot)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= l.limit, nil
}

// IPRateLimiter 每个 IP 一个令牌桶，只在单实例内生效
type IPRateLimiter struct {
	mu        sync.Mutex
	ips       map[string]*rateLimiterEntry
	r         rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter perMinute 为每分钟允许的请求数
func NewIPRateLimiter(perMinute int64, burst int) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	r := rate.Inf
	if perMinute > 0 {
		r = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &IPRateLimiter{
		ips:       make(map[string]*rateLimiterEntry),
		r:         r,
		burst:     burst,
		idle:      3 * time.Minute,
		lastSweep: time.Now(),
	}
}

func (rl *IPRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	return rl.getLimiter(key).Allow(), nil
}

func (rl *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	// 顺带清理长时间不活跃的 IP
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, entry := range rl.ips {
			if now.Sub(entry.lastSeen) > rl.idle {
				delete(rl.ips, k)
			}
		}
		rl.lastSweep = now
	}

	entry, ok := rl.ips[ip]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.ips[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimit 全局限流中间件。配置了 Redis 时多实例共享窗口计数，否则按 IP 在内存中限流。
func RateLimit(redisClient *redis.Client, limitConfig *config.Limit, logger *zap.SugaredLogger) gin.HandlerFunc {
	if !limitConfig.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	var limiter Limiter
	if redisClient != nil {
		limiter = NewRedisWindowLimiter(redisClient, limitConfig.Requests, time.Minute)
	} else {
		limiter = NewIPRateLimiter(limitConfig.Requests, int(limitConfig.Burst))
	}
	return RateLimitWith(limiter, limitConfig.SkipPaths, logger)
}

// RateLimitWith 使用指定的限流器
func RateLimitWith(limiter Limiter, skipPaths []string, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过特定路径
		for _, path := range skipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		ip := c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), ip)
		if err != nil {
			// 限流后端不可用时放行
			logger.Warnw("限流检查失败", "ip", ip, "error", err)
			c.Next()
			return
		}
		if !allowed {
			logger.Warnw("请求被限流", "ip", ip, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "请求过于频繁，请稍后再试",
			})
			return
		}

		c.Next()
	}
}
