// Package router 将处理器绑定到 gin 路由组.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/creativevault/pkg/internal/handle"
)

// Register 注册 /api/v1 下的全部业务路由.
func Register(g *gin.RouterGroup, h *handle.Handlers) {
	RegisterCreativeRoutes(g, h)
	RegisterAdminRoutes(g, h)
	RegisterReferenceRoutes(g, h)
	RegisterHealthCheckRoute(g, h)
}
