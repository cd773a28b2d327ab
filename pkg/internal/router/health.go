package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/creativevault/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查路由.
func RegisterHealthCheckRoute(g *gin.RouterGroup, h *handle.Handlers) {
	healthRoutes := g.Group("/health")
	{
		healthRoutes.GET("/db", h.HealthCheck("db"))
		healthRoutes.GET("/s3", h.HealthCheck("s3"))
	}
}
