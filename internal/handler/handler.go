package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"urlshorten/internal/model"
	"urlshorten/internal/shortener"
)

// Pinger 健康检查依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// ShortLinkHandler 处理创建和跳转
type ShortLinkHandler struct {
	allocator *shortener.Allocator
	resolver  *shortener.Resolver
	pinger    Pinger
	logger    *zap.SugaredLogger
}

// NewShortLinkHandler 创建处理器实例
func NewShortLinkHandler(allocator *shortener.Allocator, resolver *shortener.Resolver, pinger Pinger, logger *zap.SugaredLogger) *ShortLinkHandler {
	return &ShortLinkHandler{
		allocator: allocator,
		resolver:  resolver,
		pinger:    pinger,
		logger:    logger.Named("handler"),
	}
}

// HealthCheck godoc
// @Summary 健康检查
// @Tags System
// @Produce  json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *ShortLinkHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warnw("数据库健康检查失败", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "down", "timestamp": time.Now()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "up", "timestamp": time.Now()})
}

// CreateShortLinkRequest 创建短链接请求
type CreateShortLinkRequest struct {
	OriginalURL string  `json:"original_url" binding:"required,url" example:"https://github.com/gin-gonic/gin"`
	CustomAlias *string `json:"custom_alias,omitempty" example:"gin"`
	// ShortenedURL 可选，通常来自 /api/shorten/preview
	ShortenedURL string `json:"shortened_url,omitempty" example:"http://localhost:8080/r/aZ3kP9"`
}

// ShortLinkResponse 短链接详情
type ShortLinkResponse struct {
	ID          uint      `json:"id" example:"1"`
	ShortURL    string    `json:"short_url" example:"http://localhost:8080/r/aZ3kP9"`
	Code        string    `json:"code" example:"aZ3kP9"`
	OriginalURL string    `json:"original_url" example:"https://github.com/gin-gonic/gin"`
	CustomAlias *string   `json:"custom_alias,omitempty"`
	ClickCount  int64     `json:"click_count" example:"0"`
	IsActive    bool      `json:"is_active" example:"true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newShortLinkResponse(link *model.ShortLink) ShortLinkResponse {
	code := link.Code
	if code == "" {
		code, _ = model.CodeFromShortenedURL(link.ShortenedURL)
	}
	return ShortLinkResponse{
		ID:          link.ID,
		ShortURL:    link.ShortenedURL,
		Code:        code,
		OriginalURL: link.OriginalURL,
		CustomAlias: link.CustomAlias,
		ClickCount:  link.ClickCount,
		IsActive:    link.IsActive,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

// CreateShortLink godoc
// @Summary 创建短链接
// @Description 为一个长 URL 分配唯一短码。传入 shortened_url 时直接使用该短链接。
// @Tags ShortLink
// @Security ApiKeyAuth
// @Accept  json
// @Produce  json
// @Param   link  body   CreateShortLinkRequest  true  "长链接 URL"
// @Success 201 {object} ShortLinkResponse "成功响应"
// @Failure 400 {object} map[string]string "请求无效"
// @Failure 409 {object} map[string]string "短链接已被占用"
// @Failure 503 {object} map[string]string "短码分配失败"
// @Failure 500 {object} map[string]string "服务器内部错误"
// @Router /api/shorten [post]
func (h *ShortLinkHandler) CreateShortLink(c *gin.Context) {
	var req CreateShortLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	link, err := h.allocator.Allocate(c.Request.Context(), shortener.AllocateRequest{
		OriginalURL:  req.OriginalURL,
		CustomAlias:  req.CustomAlias,
		ShortenedURL: req.ShortenedURL,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Infow("短链接创建成功", "id", link.ID, "code", link.Code)
	c.JSON(http.StatusCreated, newShortLinkResponse(link))
}

// PreviewShortLink godoc
// @Summary 预生成短链接
// @Description 生成一个候选短链接但不保存，可随后作为 shortened_url 提交
// @Tags ShortLink
// @Security ApiKeyAuth
// @Produce  json
// @Success 200 {object} shortener.Preview
// @Failure 500 {object} map[string]string "服务器内部错误"
// @Router /api/shorten/preview [post]
func (h *ShortLinkHandler) PreviewShortLink(c *gin.Context) {
	preview, err := h.allocator.Preview()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// RedirectToOriginal godoc
// @Summary 短链接跳转
// @Description 查找短码对应的原始链接，点击数加一后 302 跳转
// @Tags ShortLink
// @Param   code  path  string  true  "短码"
// @Success 302
// @Failure 404 {object} map[string]string "链接不存在或已禁用"
// @Router /r/{code} [get]
func (h *ShortLinkHandler) RedirectToOriginal(c *gin.Context) {
	originalURL, err := h.resolver.Resolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Redirect(http.StatusFound, originalURL)
}
