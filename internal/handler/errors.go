package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"urlshorten/internal/repository"
	"urlshorten/internal/shortener"
)

// statusFor 把领域错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, shortener.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shortener.ErrDuplicateShortLink):
		return http.StatusConflict
	case errors.Is(err, shortener.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shortener.ErrAllocationExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor 返回给客户端的错误描述，5xx 不暴露内部细节
func messageFor(err error) string {
	switch {
	case errors.Is(err, shortener.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, shortener.ErrDuplicateShortLink):
		return "短链接已被占用"
	case errors.Is(err, shortener.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return "链接不存在或已禁用"
	case errors.Is(err, shortener.ErrAllocationExhausted):
		return "短码分配失败，请稍后重试"
	default:
		return "服务器内部错误"
	}
}

// respondError 写入错误响应，5xx 记录日志
func respondError(c *gin.Context, logger *zap.SugaredLogger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorw("请求处理失败",
			"path", c.Request.URL.Path,
			"status", status,
			"error", err,
		)
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": messageFor(err)})
}
