package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const timeout = 2 * time.Second

// HealthCheck 返回指定组件的健康检查处理器.
func (h *Handlers) HealthCheck(component string) gin.HandlerFunc {
	return func(c *gin.Context) {
		checker, ok := h.Health[component]
		if !ok || checker == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": component + " client not initialized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		if err := checker.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"component": component, "status": "ok"})
	}
}
