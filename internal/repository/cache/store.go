// Package cache 为短链接解析加一层 Redis 缓存。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"urlshorten/internal/model"
	"urlshorten/internal/repository"
)

const keyPrefix = "shortlink:"

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// Client 缓存需要的最小 Redis 能力
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type redisClient struct {
	rdb redis.Cmdable
}

// NewRedisClient 把 go-redis 客户端适配为 Client
func NewRedisClient(rdb redis.Cmdable) Client {
	return &redisClient{rdb: rdb}
}

func (c *redisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (c *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *redisClient) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// entry 只缓存解析需要的字段，点击数始终落到数据库
type entry struct {
	ID           uint   `json:"id"`
	OriginalURL  string `json:"original_url"`
	ShortenedURL string `json:"shortened_url"`
}

// Store 缓存装饰器，未覆盖的方法直接透传给底层存储
type Store struct {
	repository.LinkStore
	client Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// New 包装底层存储。Redis 出错时只记录日志并回源。
func New(inner repository.LinkStore, client Client, ttl time.Duration, logger *zap.SugaredLogger) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		LinkStore: inner,
		client:    client,
		ttl:       ttl,
		logger:    logger.Named("cache"),
	}
}

func cacheKey(suffix string) string {
	return keyPrefix + suffix
}

// idKey 记录 id 对应的缓存 key，自增发现记录失效时据此清理
func idKey(id uint) string {
	return keyPrefix + "id:" + strconv.FormatUint(uint64(id), 10)
}

func (s *Store) FindActiveByShortenedURLSuffix(ctx context.Context, suffix string) (*model.ShortLink, error) {
	key := cacheKey(suffix)

	raw, err := s.client.Get(ctx, key)
	switch {
	case err == nil:
		var e entry
		if jsonErr := json.Unmarshal([]byte(raw), &e); jsonErr == nil {
			return &model.ShortLink{
				ID:           e.ID,
				OriginalURL:  e.OriginalURL,
				ShortenedURL: e.ShortenedURL,
				Code:         codeOf(suffix),
				IsActive:     true,
			}, nil
		}
		s.logger.Warnw("缓存内容无法解析，已回源", "key", key)
	case !errors.Is(err, ErrMiss):
		s.logger.Warnw("读取缓存失败，已回源", "key", key, "error", err)
	}

	link, err := s.LinkStore.FindActiveByShortenedURLSuffix(ctx, suffix)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(entry{ID: link.ID, OriginalURL: link.OriginalURL, ShortenedURL: link.ShortenedURL})
	if err := s.client.Set(ctx, key, string(data), s.ttl); err != nil {
		s.logger.Warnw("写入缓存失败", "key", key, "error", err)
		return link, nil
	}
	if err := s.client.Set(ctx, idKey(link.ID), suffix, s.ttl); err != nil {
		s.logger.Warnw("写入缓存失败", "key", idKey(link.ID), "error", err)
	}
	return link, nil
}

// IncrementClickCount 只对启用记录计数。底层返回 ErrNotFound 时记录已禁用或删除，
// 同时清掉该记录的缓存。
func (s *Store) IncrementClickCount(ctx context.Context, id uint) (int64, error) {
	clicks, err := s.LinkStore.IncrementClickCount(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.evictByID(ctx, id)
	}
	return clicks, err
}

func (s *Store) Update(ctx context.Context, id uint, patch repository.Patch) (*model.ShortLink, error) {
	link, err := s.LinkStore.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, link)
	return link, nil
}

func (s *Store) Delete(ctx context.Context, id uint) (*model.ShortLink, error) {
	link, err := s.LinkStore.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, link)
	return link, nil
}

func (s *Store) invalidate(ctx context.Context, link *model.ShortLink) {
	code := link.Code
	if code == "" {
		code, _ = model.CodeFromShortenedURL(link.ShortenedURL)
	}
	if code == "" {
		return
	}
	s.del(ctx, cacheKey(model.RedirectSuffix(code)), idKey(link.ID))
}

func (s *Store) evictByID(ctx context.Context, id uint) {
	suffix, err := s.client.Get(ctx, idKey(id))
	switch {
	case err == nil:
		s.del(ctx, cacheKey(suffix), idKey(id))
	case errors.Is(err, ErrMiss):
		// 反查 key 已过期时从数据库取短链接
		if link, findErr := s.LinkStore.FindByID(ctx, id); findErr == nil {
			s.invalidate(ctx, link)
		}
	default:
		s.logger.Warnw("读取缓存失败", "key", idKey(id), "error", err)
	}
}

func (s *Store) del(ctx context.Context, keys ...string) {
	if err := s.client.Del(ctx, keys...); err != nil {
		s.logger.Warnw("删除缓存失败", "keys", keys, "error", err)
	}
}

func codeOf(suffix string) string {
	code, _ := model.CodeFromSuffix(suffix)
	return code
}
