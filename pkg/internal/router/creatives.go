package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/creativevault/pkg/internal/handle"
	"github.com/yeisme/creativevault/pkg/middleware"
)

// RegisterCreativeRoutes 注册摄取与公开目录路由.
func RegisterCreativeRoutes(g *gin.RouterGroup, h *handle.Handlers) {
	creativeRoutes := g.Group("/creatives")
	{
		creativeRoutes.POST("", h.CreateCreative)        // 摄取
		creativeRoutes.POST("/update", h.UpdateCreative) // 部分更新 / 删除单个资产
		creativeRoutes.GET("", middleware.ETagMiddleware(), h.ListCreatives) // 公开目录
		creativeRoutes.GET("/:id", middleware.ETagMiddleware(), h.GetCreative)
	}
}
