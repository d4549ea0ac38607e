package shortener

import (
	"context"
	"time"

	"urlshorten/internal/model"
	"urlshorten/internal/shortcode"
)

const (
	DefaultMaxAttempts  = 5
	DefaultMaxURLLength = 2048
	DefaultStoreTimeout = 3 * time.Second
)

// Options 分配器和解析器共用的参数
type Options struct {
	// BaseURL 短链接前缀，例如 https://sho.rt
	BaseURL        string
	CodeLength     int
	MaxAttempts    int
	MaxURLLength   int
	MaxAliasLength int
	// StoreTimeout 单次存储调用的超时
	StoreTimeout time.Duration
}

// withDefaults 补齐未设置的字段
func (o Options) withDefaults() Options {
	if o.CodeLength <= 0 {
		o.CodeLength = shortcode.DefaultLength
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.MaxURLLength <= 0 {
		o.MaxURLLength = DefaultMaxURLLength
	}
	if o.MaxAliasLength <= 0 {
		o.MaxAliasLength = model.MaxCustomAliasLength
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = DefaultStoreTimeout
	}
	return o
}

func (o Options) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.StoreTimeout)
}
