package handler

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"urlshorten/internal/model"
	"urlshorten/internal/repository"
)

// AdminHandler 管理端的短链接增删改查
type AdminHandler struct {
	store        repository.Admin
	maxURLLength int
	logger       *zap.SugaredLogger
}

// NewAdminHandler 创建管理端处理器
func NewAdminHandler(store repository.Admin, maxURLLength int, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{store: store, maxURLLength: maxURLLength, logger: logger.Named("admin")}
}

// ListLinksResponse 分页结果
type ListLinksResponse struct {
	Items []ShortLinkResponse `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Size  int                 `json:"size"`
}

// UpdateLinkRequest 可编辑字段，短链接本身不可修改
type UpdateLinkRequest struct {
	OriginalURL *string `json:"original_url,omitempty" binding:"omitempty,url"`
	CustomAlias *string `json:"custom_alias,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的链接 ID"})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// ListLinks godoc
// @Summary 短链接列表
// @Description 按原始链接或短链接模糊搜索，按创建时间倒序分页
// @Tags Admin
// @Security ApiKeyAuth
// @Produce  json
// @Param   q     query  string  false  "搜索关键字"
// @Param   page  query  int     false  "页码" default(1)
// @Param   size  query  int     false  "每页数量" default(20)
// @Success 200 {object} ListLinksResponse
// @Failure 403 {object} map[string]string "需要管理员权限"
// @Router /api/links [get]
func (h *AdminHandler) ListLinks(c *gin.Context) {
	page := queryInt(c, "page", 1)
	filter := repository.ListFilter{
		Query: c.Query("q"),
		Limit: queryInt(c, "size", 20),
	}.NormalizeLimit()
	filter.Offset = (page - 1) * filter.Limit

	links, total, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	items := make([]ShortLinkResponse, 0, len(links))
	for i := range links {
		items = append(items, newShortLinkResponse(&links[i]))
	}
	c.JSON(http.StatusOK, ListLinksResponse{Items: items, Total: total, Page: page, Size: filter.Limit})
}

// GetLink godoc
// @Summary 短链接详情
// @Tags Admin
// @Security ApiKeyAuth
// @Produce  json
// @Param   id  path  int  true  "链接 ID"
// @Success 200 {object} ShortLinkResponse
// @Failure 404 {object} map[string]string "链接不存在"
// @Router /api/links/{id} [get]
func (h *AdminHandler) GetLink(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	link, err := h.store.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newShortLinkResponse(link))
}

// UpdateLink godoc
// @Summary 编辑短链接
// @Description 修改原始链接、别名或启用状态
// @Tags Admin
// @Security ApiKeyAuth
// @Accept  json
// @Produce  json
// @Param   id    path  int                true  "链接 ID"
// @Param   link  body  UpdateLinkRequest  true  "修改内容"
// @Success 200 {object} ShortLinkResponse
// @Failure 400 {object} map[string]string "请求无效"
// @Failure 404 {object} map[string]string "链接不存在"
// @Router /api/links/{id} [put]
func (h *AdminHandler) UpdateLink(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	patch := repository.Patch{IsActive: req.IsActive}
	if req.OriginalURL != nil {
		v := strings.TrimSpace(*req.OriginalURL)
		if v == "" || utf8.RuneCountInString(v) > h.maxURLLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "原始链接为空或过长"})
			return
		}
		patch.OriginalURL = &v
	}
	if req.CustomAlias != nil {
		v := strings.TrimSpace(*req.CustomAlias)
		if utf8.RuneCountInString(v) > model.MaxCustomAliasLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "别名过长"})
			return
		}
		patch.CustomAlias = &v
	}

	link, err := h.store.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Infow("短链接已更新", "id", id)
	c.JSON(http.StatusOK, newShortLinkResponse(link))
}

// DeleteLink godoc
// @Summary 删除短链接
// @Tags Admin
// @Security ApiKeyAuth
// @Produce  json
// @Param   id  path  int  true  "链接 ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "链接不存在"
// @Router /api/links/{id} [delete]
func (h *AdminHandler) DeleteLink(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := h.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Infow("短链接已删除", "id", id)
	c.JSON(http.StatusOK, gin.H{"message": "删除成功"})
}

// GetStats godoc
// @Summary 统计信息
// @Tags Admin
// @Security ApiKeyAuth
// @Produce  json
// @Success 200 {object} repository.Stats
// @Router /api/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
