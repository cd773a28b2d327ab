package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/creativevault/pkg/internal/handle"
	"github.com/yeisme/creativevault/pkg/middleware"
)

// RegisterReferenceRoutes 注册参考数据路由.
func RegisterReferenceRoutes(g *gin.RouterGroup, h *handle.Handlers) {
	g.GET("/references", middleware.ETagMiddleware(), h.ListReferences)
}
