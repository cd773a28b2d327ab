package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/creativevault/pkg/internal/handle"
)

// RegisterAdminRoutes 注册管理端路由.
func RegisterAdminRoutes(g *gin.RouterGroup, h *handle.Handlers) {
	adminRoutes := g.Group("/admin")
	{
		adminRoutes.GET("/creatives", h.ListAdminCreatives)
		adminRoutes.GET("/creatives/:id", h.GetAdminCreative)
		adminRoutes.POST("/creatives/delete", h.DeleteCreatives)

		adminRoutes.POST("/moderation", h.Moderate)
		adminRoutes.GET("/moderation", h.ModerationCounts)

		adminRoutes.GET("/maintenance/orphans", h.ScanOrphans)
	}
}
