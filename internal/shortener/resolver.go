package shortener

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"urlshorten/internal/model"
	"urlshorten/internal/repository"
)

// Resolution 一次成功解析的结果
type Resolution struct {
	LinkID      uint
	OriginalURL string
	ClickCount  int64
}

// Resolver 按短码查找启用的记录并累加点击数，不保存任何调用间状态
type Resolver struct {
	store  repository.Store
	opts   Options
	logger *zap.SugaredLogger
}

// NewResolver 创建解析器
func NewResolver(store repository.Store, opts Options, logger *zap.SugaredLogger) *Resolver {
	return &Resolver{
		store:  store,
		opts:   opts.withDefaults(),
		logger: logger.Named("resolver"),
	}
}

// Resolve 返回短码对应的原始链接
func (r *Resolver) Resolve(ctx context.Context, code string) (string, error) {
	res, err := r.Lookup(ctx, code)
	if err != nil {
		return "", err
	}
	return res.OriginalURL, nil
}

// Lookup 与 Resolve 相同，但同时返回累加后的点击数
func (r *Resolver) Lookup(ctx context.Context, code string) (*Resolution, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}

	link, err := r.find(ctx, model.RedirectSuffix(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistenceFailure("find short link", err)
	}

	clicks, err := r.increment(ctx, link.ID)
	if errors.Is(err, repository.ErrNotFound) {
		// 查询和自增之间记录被删除
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistenceFailure("increment click count", err)
	}

	r.logger.Debugw("短链接解析成功", "code", code, "clicks", clicks)
	return &Resolution{LinkID: link.ID, OriginalURL: link.OriginalURL, ClickCount: clicks}, nil
}

func (r *Resolver) find(ctx context.Context, suffix string) (*model.ShortLink, error) {
	callCtx, cancel := r.opts.storeContext(ctx)
	defer cancel()
	return r.store.FindActiveByShortenedURLSuffix(callCtx, suffix)
}

func (r *Resolver) increment(ctx context.Context, id uint) (int64, error) {
	callCtx, cancel := r.opts.storeContext(ctx)
	defer cancel()
	return r.store.IncrementClickCount(callCtx, id)
}
