package shortener

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput 原始链接为空、超长，或自定义参数不合法
	ErrInvalidInput = errors.New("invalid input")
	// ErrAllocationExhausted 重试次数用尽仍未拿到可用短码，可稍后重试
	ErrAllocationExhausted = errors.New("short code allocation exhausted")
	// ErrDuplicateShortLink 调用方指定的短链接已被占用
	ErrDuplicateShortLink = errors.New("short link already taken")
	// ErrNotFound 没有对应的启用中短链接
	ErrNotFound = errors.New("short link not found")
	// ErrPersistence 存储层的非预期错误
	ErrPersistence = errors.New("persistence failure")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func persistenceFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
