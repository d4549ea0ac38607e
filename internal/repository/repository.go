// Package repository 定义短链接的持久化接口。
// 唯一性约束和点击数原子自增都由存储层保证。
package repository

import (
	"context"
	"errors"
	"time"

	"urlshorten/internal/model"
)

var (
	// ErrUniqueViolation 表示写入因为 shortened_url 唯一索引冲突而失败
	ErrUniqueViolation = errors.New("shortened url already exists")
	// ErrNotFound 表示没有符合条件的记录
	ErrNotFound = errors.New("short link not found")
)

// Store 是分配器和解析器依赖的最小持久化接口
type Store interface {
	ExistsByShortenedURL(ctx context.Context, shortenedURL string) (bool, error)
	// Insert 写入新记录并回填 ID，唯一索引冲突时返回 ErrUniqueViolation
	Insert(ctx context.Context, link *model.ShortLink) error
	// FindActiveByShortenedURLSuffix 查找以 suffix 结尾且处于启用状态的记录
	FindActiveByShortenedURLSuffix(ctx context.Context, suffix string) (*model.ShortLink, error)
	// IncrementClickCount 原子地把启用记录的点击数加一并返回新值，记录不存在或已禁用时返回 ErrNotFound
	IncrementClickCount(ctx context.Context, id uint) (int64, error)
}

// ListFilter 管理端列表查询条件
type ListFilter struct {
	Query  string
	Limit  int
	Offset int
}

// Patch 管理端可修改的字段，nil 表示不修改。shortened_url 一经写入不可修改。
type Patch struct {
	OriginalURL *string
	CustomAlias *string
	IsActive    *bool
}

// Stats 汇总统计
type Stats struct {
	TotalLinks  int64 `json:"total_links"`
	TotalClicks int64 `json:"total_clicks"`
	ActiveLinks int64 `json:"active_links"`
}

// Admin 是管理端使用的增删改查接口
type Admin interface {
	List(ctx context.Context, filter ListFilter) ([]model.ShortLink, int64, error)
	FindByID(ctx context.Context, id uint) (*model.ShortLink, error)
	Update(ctx context.Context, id uint, patch Patch) (*model.ShortLink, error)
	Delete(ctx context.Context, id uint) (*model.ShortLink, error)
	Stats(ctx context.Context) (Stats, error)
}

// UserStore 用户账号存储
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	FindUserByID(ctx context.Context, id uint) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

// LinkStore 同时提供核心接口和管理接口，具体后端都实现它
type LinkStore interface {
	Store
	Admin
	UserStore
	Ping(ctx context.Context) error
}

// NormalizeLimit 给列表查询套上默认值和上限
func (f ListFilter) NormalizeLimit() ListFilter {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
