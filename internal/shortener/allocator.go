// Package shortener 实现短链接的分配和解析。
// 唯一性由存储层的唯一索引保证，分配器把唯一冲突当作重试信号。
package shortener

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"urlshorten/internal/model"
	"urlshorten/internal/repository"
)

// CodeGenerator 生成指定长度的随机短码
type CodeGenerator interface {
	Generate(length int) (string, error)
}

// AllocateRequest 创建短链接的参数
type AllocateRequest struct {
	OriginalURL string
	CustomAlias *string
	// ShortenedURL 非空时跳过生成，直接使用调用方给定的短链接
	ShortenedURL string
}

// Preview 未落库的候选短链接
type Preview struct {
	Code         string `json:"code"`
	ShortenedURL string `json:"short_url"`
}

// Allocator 分配唯一短码并创建记录
type Allocator struct {
	store     repository.Store
	generator CodeGenerator
	opts      Options
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewAllocator 创建分配器
func NewAllocator(store repository.Store, generator CodeGenerator, opts Options, logger *zap.SugaredLogger) *Allocator {
	return &Allocator{
		store:     store,
		generator: generator,
		opts:      opts.withDefaults(),
		logger:    logger.Named("allocator"),
		now:       time.Now,
	}
}

// Allocate 校验输入后分配短码并写入存储
func (a *Allocator) Allocate(ctx context.Context, req AllocateRequest) (*model.ShortLink, error) {
	originalURL := strings.TrimSpace(req.OriginalURL)
	if originalURL == "" {
		return nil, invalidInput("original url is required")
	}
	if utf8.RuneCountInString(originalURL) > a.opts.MaxURLLength {
		return nil, invalidInput("original url exceeds %d characters", a.opts.MaxURLLength)
	}

	var alias *string
	if req.CustomAlias != nil {
		if v := strings.TrimSpace(*req.CustomAlias); v != "" {
			if utf8.RuneCountInString(v) > a.opts.MaxAliasLength {
				return nil, invalidInput("custom alias exceeds %d characters", a.opts.MaxAliasLength)
			}
			alias = &v
		}
	}

	if shortened := strings.TrimSpace(req.ShortenedURL); shortened != "" {
		return a.allocateGiven(ctx, originalURL, alias, shortened)
	}
	return a.allocateGenerated(ctx, originalURL, alias)
}

func (a *Allocator) newRecord(originalURL string, alias *string, shortened, code string) *model.ShortLink {
	return &model.ShortLink{
		OriginalURL:  originalURL,
		ShortenedURL: shortened,
		Code:         code,
		CustomAlias:  alias,
		ClickCount:   0,
		IsActive:     true,
		CreatedAt:    a.now(),
	}
}

// allocateGenerated 按状态机循环：生成、检查、写入，冲突则重试
func (a *Allocator) allocateGenerated(ctx context.Context, originalURL string, alias *string) (*model.ShortLink, error) {
	var (
		st      = stateGenerating
		attempt int
		code    string
		link    *model.ShortLink
		failure error
	)

	for !st.terminal() {
		ev := eventNone

		switch st {
		case stateGenerating:
			attempt++
			var err error
			code, err = a.generator.Generate(a.opts.CodeLength)
			if err != nil {
				failure = err
				ev = eventError
				break
			}
			ev = eventGenerated

		case stateChecking:
			shortened := model.ComposeShortenedURL(a.opts.BaseURL, code)
			exists, err := a.exists(ctx, shortened)
			switch {
			case err != nil:
				failure = persistenceFailure("check shortened url", err)
				ev = eventError
			case exists:
				a.logger.Debugw("短码已存在，重新生成", "code", code, "attempt", attempt)
				ev = eventTaken
			default:
				ev = eventFree
			}

		case stateInserting:
			link = a.newRecord(originalURL, alias, model.ComposeShortenedURL(a.opts.BaseURL, code), code)
			err := a.insert(ctx, link)
			switch {
			case errors.Is(err, repository.ErrUniqueViolation):
				a.logger.Debugw("写入时短码冲突，重新生成", "code", code, "attempt", attempt)
				link = nil
				ev = eventCollision
			case err != nil:
				failure = persistenceFailure("insert short link", err)
				link = nil
				ev = eventError
			default:
				ev = eventInserted
			}
		}

		st = nextState(st, ev, attempt, a.opts.MaxAttempts)
	}

	switch st {
	case stateSuccess:
		return link, nil
	case stateExhausted:
		a.logger.Warnw("短码分配重试次数用尽", "attempts", attempt)
		return nil, ErrAllocationExhausted
	}
	return nil, failure
}

// allocateGiven 使用调用方给定的短链接，只检查和写入一次
func (a *Allocator) allocateGiven(ctx context.Context, originalURL string, alias *string, shortened string) (*model.ShortLink, error) {
	if utf8.RuneCountInString(shortened) > model.MaxShortenedURLLength {
		return nil, invalidInput("shortened url exceeds %d characters", model.MaxShortenedURLLength)
	}
	code, ok := model.CodeFromShortenedURL(shortened)
	if !ok {
		return nil, invalidInput("shortened url must end with %s<code>", model.RedirectPathSegment)
	}

	exists, err := a.exists(ctx, shortened)
	if err != nil {
		return nil, persistenceFailure("check shortened url", err)
	}
	if exists {
		return nil, ErrDuplicateShortLink
	}

	link := a.newRecord(originalURL, alias, shortened, code)
	err = a.insert(ctx, link)
	if errors.Is(err, repository.ErrUniqueViolation) {
		return nil, ErrDuplicateShortLink
	}
	if err != nil {
		return nil, persistenceFailure("insert short link", err)
	}
	return link, nil
}

// Preview 生成一个候选短链接但不写库，之后可通过 ShortenedURL 提交
func (a *Allocator) Preview() (Preview, error) {
	code, err := a.generator.Generate(a.opts.CodeLength)
	if err != nil {
		return Preview{}, err
	}
	return Preview{Code: code, ShortenedURL: model.ComposeShortenedURL(a.opts.BaseURL, code)}, nil
}

func (a *Allocator) exists(ctx context.Context, shortened string) (bool, error) {
	callCtx, cancel := a.opts.storeContext(ctx)
	defer cancel()
	return a.store.ExistsByShortenedURL(callCtx, shortened)
}

func (a *Allocator) insert(ctx context.Context, link *model.ShortLink) error {
	callCtx, cancel := a.opts.storeContext(ctx)
	defer cancel()
	return a.store.Insert(callCtx, link)
}
