package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"urlshorten/internal/middleware"
	"urlshorten/internal/model"
	"urlshorten/internal/repository"
	auth "urlshorten/pkg/jwt"
)

// AuthHandler 包含认证相关的处理器
type AuthHandler struct {
	users      repository.UserStore
	jwtManager *auth.TokenManager
	logger     *zap.SugaredLogger
}

// NewAuthHandler 创建一个新的 AuthHandler
func NewAuthHandler(users repository.UserStore, jwtManager *auth.TokenManager, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{users: users, jwtManager: jwtManager, logger: logger.Named("auth")}
}

// LoginRequest 定义了登录请求的结构体
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// RegisterRequest 定义了注册请求的结构体
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"newuser"`
	Email    string `json:"email" binding:"required,email" example:"newuser@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"password123"`
}

// AuthResponse 定义了认证成功后的响应
type AuthResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// Login godoc
// @Summary 用户登录
// @Description 使用用户名和密码获取 JWT 令牌
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param   account  body   LoginRequest  true  "登录凭据"
// @Success 200 {object} AuthResponse "成功响应"
// @Failure 400 {object} map[string]string "请求无效"
// @Failure 401 {object} map[string]string "认证失败"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	user, err := h.users.FindUserByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !user.CheckPassword(req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "用户名或密码错误"})
		return
	}
	if err != nil {
		h.logger.Errorw("查询用户失败", "username", req.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "账户已被禁用"})
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		h.logger.Errorf("生成令牌失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成令牌失败"})
		return
	}

	if err := h.users.UpdateLastLogin(c.Request.Context(), user.ID, time.Now()); err != nil {
		h.logger.Warnw("更新最后登录时间失败", "user_id", user.ID, "error", err)
	}
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

// Register godoc
// @Summary 用户注册
// @Description 创建一个新用户并返回 JWT 令牌
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param   account  body   RegisterRequest  true  "注册信息"
// @Success 201 {object} AuthResponse "成功响应"
// @Failure 400 {object} map[string]string "请求无效或用户已存在"
// @Failure 500 {object} map[string]string "服务器内部错误"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	user := model.User{Username: req.Username, Email: req.Email, IsActive: true, Role: model.RoleUser}
	if err := user.SetPassword(req.Password); err != nil {
		h.logger.Errorf("密码加密失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "密码加密失败"})
		return
	}

	err := h.users.CreateUser(c.Request.Context(), &user)
	if errors.Is(err, repository.ErrUniqueViolation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "用户名或邮箱已存在"})
		return
	}
	if err != nil {
		h.logger.Errorf("创建用户失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建用户失败"})
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		h.logger.Errorf("注册后生成令牌失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成令牌失败"})
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: token})
}

// GetCurrentUser godoc
// @Summary 获取当前用户信息
// @Description 获取当前已登录用户的信息
// @Tags User
// @Security ApiKeyAuth
// @Produce  json
// @Success 200 {object} model.User "成功响应"
// @Failure 401 {object} map[string]string "未认证"
// @Failure 404 {object} map[string]string "用户不存在"
// @Router /api/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint(middleware.ContextUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未认证"})
		return
	}

	user, err := h.users.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}

	c.JSON(http.StatusOK, user)
}
