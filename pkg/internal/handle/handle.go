// Package handle 提供 HTTP 请求处理器，业务依赖由应用层注入.
package handle

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/creativevault/pkg/internal/service"
	"github.com/yeisme/creativevault/pkg/log"
)

// HealthChecker 可探测连通性的组件.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handlers 聚合全部处理器依赖.
type Handlers struct {
	Creatives   *service.CreativeService
	Moderation  *service.ModerationService
	Catalog     *service.CatalogService
	References  *service.ReferenceService
	Maintenance *service.MaintenanceService
	// Health 组件名到探测器，如 db、s3.
	Health map[string]HealthChecker
	// MaxUploadBytes multipart 请求体上限，0 表示不限制.
	MaxUploadBytes int64
}

// writeError 把业务错误映射为 HTTP 状态码，响应体始终为 JSON.
func writeError(c *gin.Context, err error) {
	l := log.Logger()

	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		l.Warn().Str("code", verr.Code).Strs("field", verr.Fields()).Msg("request rejected")
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   verr.Message,
			"code":    verr.Code,
			"details": verr.Details,
		})
	case errors.Is(err, service.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, service.ErrMalformedRequest):
		l.Warn().Err(err).Msg("malformed request")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "MalformedRequestBody"})
	default:
		l.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}

// malformed 包装绑定错误.
func malformed(err error) error {
	return errors.Join(service.ErrMalformedRequest, err)
}

// paramID 解析路径中的 :id.
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})

		return 0, false
	}

	return uint(id), true
}
