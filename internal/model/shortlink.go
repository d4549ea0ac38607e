package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	// RedirectPathSegment 是短链接中位于域名和短码之间的固定路径段
	RedirectPathSegment = "/r/"

	// 各字段的长度上限
	MaxShortenedURLLength = 150
	MaxCustomAliasLength  = 150
)

// ShortLink 短链接模型
type ShortLink struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	OriginalURL  string    `gorm:"type:text;not null" json:"original_url"`
	ShortenedURL string    `gorm:"size:150;uniqueIndex;not null" json:"shortened_url"`
	Code         string    `gorm:"size:64;index;not null" json:"code"`
	CustomAlias  *string   `gorm:"size:150" json:"custom_alias,omitempty"`
	ClickCount   int64     `gorm:"not null;default:0" json:"click_count"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName 指定表名
func (ShortLink) TableName() string {
	return "short_links"
}

// BeforeCreate 在写入前根据 ShortenedURL 补全 Code 列
func (l *ShortLink) BeforeCreate(tx *gorm.DB) error {
	if l.Code == "" {
		l.Code, _ = CodeFromShortenedURL(l.ShortenedURL)
	}
	return nil
}

// ComposeShortenedURL 把 baseURL 和短码拼成完整的短链接
func ComposeShortenedURL(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + RedirectPathSegment + code
}

// CodeFromShortenedURL 取出最后一个 "/r/" 之后的短码，是 ComposeShortenedURL 的逆操作
func CodeFromShortenedURL(shortenedURL string) (string, bool) {
	idx := strings.LastIndex(shortenedURL, RedirectPathSegment)
	if idx < 0 {
		return "", false
	}
	code := shortenedURL[idx+len(RedirectPathSegment):]
	if code == "" || strings.ContainsAny(code, "/?#") {
		return "", false
	}
	return code, true
}

// RedirectSuffix 返回短码对应的短链接后缀，例如 "/r/abc123"
func RedirectSuffix(code string) string {
	return RedirectPathSegment + code
}

// CodeFromSuffix 从 "/r/<code>" 形式的后缀中取出短码
func CodeFromSuffix(suffix string) (string, bool) {
	if !strings.HasPrefix(suffix, RedirectPathSegment) {
		return "", false
	}
	return CodeFromShortenedURL(suffix)
}
