package handler

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册全部业务路由
func RegisterRoutes(
	router *gin.Engine,
	linkHandler *ShortLinkHandler,
	adminHandler *AdminHandler,
	authHandler *AuthHandler,
	authMiddleware, adminMiddleware gin.HandlerFunc,
) {
	router.GET("/health", linkHandler.HealthCheck)
	router.GET("/r/:code", linkHandler.RedirectToOriginal)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	api := router.Group("/api")
	api.Use(authMiddleware)
	{
		api.GET("/me", authHandler.GetCurrentUser)
		api.POST("/shorten", linkHandler.CreateShortLink)
		api.POST("/shorten/preview", linkHandler.PreviewShortLink)
	}

	admin := api.Group("")
	admin.Use(adminMiddleware)
	{
		admin.GET("/links", adminHandler.ListLinks)
		admin.GET("/links/:id", adminHandler.GetLink)
		admin.PUT("/links/:id", adminHandler.UpdateLink)
		admin.DELETE("/links/:id", adminHandler.DeleteLink)
		admin.GET("/stats", adminHandler.GetStats)
	}
}
